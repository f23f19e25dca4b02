package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

// MonthRow is one row of the monthly summary table: aggregate statistics
// for a calendar month containing at least one record.
type MonthRow struct {
	Period Period
	Count  int
	Sum    core.Money
	Mean   decimal.Decimal
	Max    core.Money
	Min    core.Money
}

// MonthCategoryTotal is the spend sum for one (month, category) pair,
// used by the spending-per-category-over-time chart.
type MonthCategoryTotal struct {
	Period   Period
	Category core.Category
	Sum      core.Money
}

// TrendPoint is one point of the average-monthly-expense line chart.
type TrendPoint struct {
	Period Period
	Label  string
	Mean   decimal.Decimal
}

// MonthlySummary groups the ledger by calendar month and returns one row
// per month present, ordered chronologically ascending.
func MonthlySummary(l core.Ledger) []MonthRow {
	rows := make(map[Period]*MonthRow)
	for _, e := range l {
		p := PeriodOf(e.Date)
		row, ok := rows[p]
		if !ok {
			row = &MonthRow{Period: p, Max: e.Amount, Min: e.Amount}
			rows[p] = row
		}
		row.Count++
		row.Sum.Cents += e.Amount.Cents
		if e.Amount.Cents > row.Max.Cents {
			row.Max = e.Amount
		}
		if e.Amount.Cents < row.Min.Cents {
			row.Min = e.Amount
		}
	}

	out := make([]MonthRow, 0, len(rows))
	for _, row := range rows {
		row.Mean = row.Sum.Decimal().Div(decimal.NewFromInt(int64(row.Count)))
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out
}

// MonthlyCategoryTotals groups spend by (month, category), ordered by
// month ascending and category in canonical order within each month.
func MonthlyCategoryTotals(l core.Ledger) []MonthCategoryTotal {
	type key struct {
		p Period
		c core.Category
	}
	sums := make(map[key]int64)
	for _, e := range l {
		sums[key{PeriodOf(e.Date), e.Category}] += e.Amount.Cents
	}

	out := make([]MonthCategoryTotal, 0, len(sums))
	for k, cents := range sums {
		out = append(out, MonthCategoryTotal{Period: k.p, Category: k.c, Sum: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period.Before(out[j].Period)
		}
		return out[i].Category.Index() < out[j].Category.Index()
	})
	return out
}

// MonthlyAverageTrend returns the mean expense amount per month,
// ascending, ready for line-chart rendering.
func MonthlyAverageTrend(l core.Ledger) []TrendPoint {
	rows := MonthlySummary(l)
	out := make([]TrendPoint, len(rows))
	for i, row := range rows {
		out[i] = TrendPoint{Period: row.Period, Label: row.Period.ShortLabel(), Mean: row.Mean}
	}
	return out
}

// LastN windows an already computed trend to its most recent n points
// without recomputation. Fewer than n points yields the whole sequence.
func LastN(points []TrendPoint, n int) []TrendPoint {
	if n <= 0 {
		return nil
	}
	if n >= len(points) {
		return points
	}
	return points[len(points)-n:]
}
