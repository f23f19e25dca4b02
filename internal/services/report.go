package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/analytics"
	"spendtrack/internal/core"
)

// ReportStore is the read side of the repository used for report assembly.
type ReportStore interface {
	Fetch(ctx context.Context, userID int64) (core.Ledger, error)
	FetchAnomalyFlags(ctx context.Context, userID int64) (map[int64]string, error)
}

// ReportService turns one ledger snapshot into the aggregated views the
// dashboard renders. Every view in a report is computed from the same
// snapshot, so counts and totals always agree with each other.
type ReportService struct {
	store ReportStore
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store}
}

// OverviewDTO summarises the whole ledger.
type OverviewDTO struct {
	Total   core.Money      `json:"total"`
	Average decimal.Decimal `json:"average"`
	Max     core.Money      `json:"max"`
	Min     core.Money      `json:"min"`
	Count   int             `json:"count"`
}

// SplitDTO is the necessary / non-necessary breakdown.
type SplitDTO struct {
	Necessary    core.Money `json:"necessary"`
	NonNecessary core.Money `json:"non_necessary"`
	Ratio        float64    `json:"ratio"`
}

type CategoryTotalDTO struct {
	Category string     `json:"category"`
	Total    core.Money `json:"total"`
}

type TopExpenseDTO struct {
	ID          int64      `json:"id"`
	Date        string     `json:"date"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description,omitempty"`
}

type MonthRowDTO struct {
	Month string          `json:"month"`
	Count int             `json:"count"`
	Sum   core.Money      `json:"sum"`
	Mean  decimal.Decimal `json:"mean"`
	Max   core.Money      `json:"max"`
	Min   core.Money      `json:"min"`
}

type MonthCategoryDTO struct {
	Month    string     `json:"month"`
	Category string     `json:"category"`
	Total    core.Money `json:"total"`
}

type TrendPointDTO struct {
	Label string          `json:"label"`
	Mean  decimal.Decimal `json:"mean"`
}

type WeekdayStatDTO struct {
	Weekday        string          `json:"weekday"`
	Total          core.Money      `json:"total"`
	Average        decimal.Decimal `json:"average"`
	NecessityRatio float64         `json:"necessity_ratio"`
	Count          int             `json:"count"`
	HasData        bool            `json:"has_data"`
}

type SavingsDTO struct {
	Tip     decimal.Decimal `json:"tip"`
	HasTip  bool            `json:"has_tip"`
	Warning bool            `json:"warning"`
}

// DashboardReport is the full aggregated payload for one user.
type DashboardReport struct {
	Empty       bool               `json:"empty"`
	Overview    *OverviewDTO       `json:"overview,omitempty"`
	Split       SplitDTO           `json:"split"`
	Categories  []CategoryTotalDTO `json:"categories"`
	TopExpenses []TopExpenseDTO    `json:"top_expenses"`
	Monthly     []MonthRowDTO      `json:"monthly"`
	MonthlyByCategory []MonthCategoryDTO `json:"monthly_by_category"`
	Trend       []TrendPointDTO    `json:"trend"`
	Weekdays    []WeekdayStatDTO   `json:"weekdays"`
	Savings     SavingsDTO         `json:"savings"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// EntryDTO is one ledger row with its anomaly label, if scored.
type EntryDTO struct {
	ID          int64      `json:"id"`
	Date        string     `json:"date"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	IsNecessary bool       `json:"is_necessary"`
	Description string     `json:"description,omitempty"`
	Anomaly     string     `json:"anomaly,omitempty"`
}

// EntriesReport lists the ledger newest first with anomaly labels joined in.
type EntriesReport struct {
	Entries []EntryDTO `json:"entries"`
	Count   int        `json:"count"`
}

// Dashboard fetches the user's ledger once and computes every aggregated
// view from that snapshot.
func (s *ReportService) Dashboard(ctx context.Context, userID int64) (*DashboardReport, error) {
	ledger, err := s.store.Fetch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch ledger: %w", err)
	}
	return BuildDashboard(ledger), nil
}

// BuildDashboard assembles the dashboard payload from a ledger snapshot.
// It is deterministic: the same snapshot always yields the same report,
// except for the generation timestamp.
func BuildDashboard(ledger core.Ledger) *DashboardReport {
	report := &DashboardReport{GeneratedAt: time.Now().UTC()}

	overview, err := analytics.Totals(ledger)
	if err != nil {
		// Empty ledger: every view renders its empty state.
		report.Empty = true
		report.Categories = []CategoryTotalDTO{}
		report.TopExpenses = []TopExpenseDTO{}
		report.Monthly = []MonthRowDTO{}
		report.MonthlyByCategory = []MonthCategoryDTO{}
		report.Trend = []TrendPointDTO{}
		report.Weekdays = weekdayDTOs(analytics.WeekdayStats(ledger))
		return report
	}

	report.Overview = &OverviewDTO{
		Total:   overview.Total,
		Average: overview.Average,
		Max:     overview.Max,
		Min:     overview.Min,
		Count:   overview.Count,
	}

	split := analytics.NecessitySplit(ledger)
	report.Split = SplitDTO{
		Necessary:    split.NecessaryTotal,
		NonNecessary: split.NonNecessaryTotal,
		Ratio:        split.Ratio,
	}

	for _, ct := range analytics.CategoryTotals(ledger) {
		report.Categories = append(report.Categories, CategoryTotalDTO{
			Category: ct.Category.String(),
			Total:    ct.Sum,
		})
	}

	for _, e := range analytics.TopN(ledger, analytics.DefaultTopN) {
		report.TopExpenses = append(report.TopExpenses, TopExpenseDTO{
			ID:          e.ID,
			Date:        e.Date.Format("2006-01-02"),
			Amount:      e.Amount,
			Category:    e.Category.String(),
			Description: e.Description,
		})
	}

	for _, row := range analytics.MonthlySummary(ledger) {
		report.Monthly = append(report.Monthly, MonthRowDTO{
			Month: row.Period.ShortLabel(),
			Count: row.Count,
			Sum:   row.Sum,
			Mean:  row.Mean,
			Max:   row.Max,
			Min:   row.Min,
		})
	}

	for _, mc := range analytics.MonthlyCategoryTotals(ledger) {
		report.MonthlyByCategory = append(report.MonthlyByCategory, MonthCategoryDTO{
			Month:    mc.Period.ShortLabel(),
			Category: mc.Category.String(),
			Total:    mc.Sum,
		})
	}

	trend := analytics.LastN(analytics.MonthlyAverageTrend(ledger), 12)
	for _, p := range trend {
		report.Trend = append(report.Trend, TrendPointDTO{Label: p.Label, Mean: p.Mean})
	}

	report.Weekdays = weekdayDTOs(analytics.WeekdayStats(ledger))

	suggestion := analytics.SavingsSuggestion(ledger)
	report.Savings = SavingsDTO{
		Tip:     suggestion.Tip,
		HasTip:  suggestion.HasTip,
		Warning: suggestion.Warning,
	}

	return report
}

// Entries joins the ledger with stored anomaly labels, newest first.
func (s *ReportService) Entries(ctx context.Context, userID int64) (*EntriesReport, error) {
	ledger, err := s.store.Fetch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch ledger: %w", err)
	}
	flags, err := s.store.FetchAnomalyFlags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch anomaly flags: %w", err)
	}

	report := &EntriesReport{Entries: []EntryDTO{}, Count: len(ledger)}
	for _, e := range ledger {
		report.Entries = append(report.Entries, EntryDTO{
			ID:          e.ID,
			Date:        e.Date.Format("2006-01-02"),
			Amount:      e.Amount,
			Category:    e.Category.String(),
			IsNecessary: e.IsNecessary,
			Description: e.Description,
			Anomaly:     flags[e.ID],
		})
	}
	return report, nil
}

func weekdayDTOs(stats [7]analytics.WeekdayStat) []WeekdayStatDTO {
	out := make([]WeekdayStatDTO, 0, len(stats))
	for _, st := range stats {
		out = append(out, WeekdayStatDTO{
			Weekday:        st.Weekday.String(),
			Total:          st.Total,
			Average:        st.Avg,
			NecessityRatio: st.NecessityRatio,
			Count:          st.Count,
			HasData:        st.Valid,
		})
	}
	return out
}
