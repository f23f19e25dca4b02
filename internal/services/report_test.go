package services

import (
	"context"
	"testing"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

type fakeStore struct {
	ledgers map[int64]core.Ledger
	flags   map[int64]map[int64]string

	appended  []core.ExpenseRecord
	appendErr error
	nextID    int64

	replaced map[int64][]storage.AnomalyFlag
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ledgers:  make(map[int64]core.Ledger),
		flags:    make(map[int64]map[int64]string),
		replaced: make(map[int64][]storage.AnomalyFlag),
		nextID:   1,
	}
}

func (f *fakeStore) Fetch(_ context.Context, userID int64) (core.Ledger, error) {
	return f.ledgers[userID], nil
}

func (f *fakeStore) FetchAnomalyFlags(_ context.Context, userID int64) (map[int64]string, error) {
	return f.flags[userID], nil
}

func (f *fakeStore) Append(_ context.Context, userID int64, e core.ExpenseRecord) (int64, error) {
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	e.ID = f.nextID
	f.nextID++
	f.appended = append(f.appended, e)
	f.ledgers[userID] = append(f.ledgers[userID], e)
	return e.ID, nil
}

func (f *fakeStore) ListUserIDs(_ context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(f.ledgers))
	for id := range f.ledgers {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) ReplaceAnomalyFlags(_ context.Context, userID int64, flags []storage.AnomalyFlag) error {
	f.replaced[userID] = flags
	return nil
}

func rec(id int64, cents int64, cat core.Category, y int, m int, d int, necessary bool) core.ExpenseRecord {
	return core.ExpenseRecord{
		ID:          id,
		Amount:      core.Money{Cents: cents},
		Category:    cat,
		Date:        core.NewDate(y, m, d),
		IsNecessary: necessary,
	}
}

func scenarioLedger() core.Ledger {
	return core.Ledger{
		rec(1, 10000, core.Food, 2024, 1, 5, true),
		rec(2, 5000, core.Food, 2024, 1, 20, false),
		rec(3, 20000, core.Transport, 2024, 2, 1, true),
	}
}

func TestDashboardFromSnapshot(t *testing.T) {
	store := newFakeStore()
	store.ledgers[1] = scenarioLedger()
	svc := NewReportService(store)

	report, err := svc.Dashboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if report.Empty {
		t.Fatal("report should not be empty")
	}
	if report.Overview == nil || report.Overview.Total.Cents != 35000 {
		t.Fatalf("overview total = %+v, want 350.00", report.Overview)
	}
	if report.Overview.Count != 3 {
		t.Errorf("overview count = %d, want 3", report.Overview.Count)
	}

	// Necessity split partitions the total.
	gotSplit := report.Split.Necessary.Cents + report.Split.NonNecessary.Cents
	if gotSplit != report.Overview.Total.Cents {
		t.Errorf("split does not partition total: %d != %d", gotSplit, report.Overview.Total.Cents)
	}

	// Category totals also partition the total.
	var catSum int64
	for _, ct := range report.Categories {
		catSum += ct.Total.Cents
	}
	if catSum != report.Overview.Total.Cents {
		t.Errorf("category totals do not partition total: %d != %d", catSum, report.Overview.Total.Cents)
	}

	if len(report.Monthly) != 2 {
		t.Fatalf("monthly rows = %d, want 2", len(report.Monthly))
	}
	if report.Monthly[0].Month != "Jan 2024" || report.Monthly[1].Month != "Feb 2024" {
		t.Errorf("monthly order = %q, %q", report.Monthly[0].Month, report.Monthly[1].Month)
	}
	if report.Monthly[0].Mean.StringFixed(2) != "75.00" {
		t.Errorf("january mean = %s, want 75.00", report.Monthly[0].Mean.StringFixed(2))
	}

	if len(report.Weekdays) != 7 {
		t.Fatalf("weekday rows = %d, want 7", len(report.Weekdays))
	}
	if report.Weekdays[0].Weekday != "Monday" || report.Weekdays[6].Weekday != "Sunday" {
		t.Errorf("weekday order = %q .. %q", report.Weekdays[0].Weekday, report.Weekdays[6].Weekday)
	}

	if len(report.TopExpenses) != 3 {
		t.Fatalf("top expenses = %d, want 3", len(report.TopExpenses))
	}
	if report.TopExpenses[0].Amount.Cents != 20000 {
		t.Errorf("top expense = %d cents, want 20000", report.TopExpenses[0].Amount.Cents)
	}
}

func TestDashboardEmptyLedger(t *testing.T) {
	svc := NewReportService(newFakeStore())

	report, err := svc.Dashboard(context.Background(), 99)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if !report.Empty {
		t.Error("report for empty ledger should set Empty")
	}
	if report.Overview != nil {
		t.Error("empty report should carry no overview")
	}
	if len(report.Weekdays) != 7 {
		t.Errorf("weekday rows = %d, want 7 even when empty", len(report.Weekdays))
	}
	for _, wd := range report.Weekdays {
		if wd.HasData {
			t.Errorf("weekday %s should have no data", wd.Weekday)
		}
	}
	if report.Savings.HasTip || report.Savings.Warning {
		t.Error("empty ledger should yield no savings advice")
	}
}

func TestDashboardIsDeterministic(t *testing.T) {
	store := newFakeStore()
	store.ledgers[1] = scenarioLedger()
	svc := NewReportService(store)

	a, _ := svc.Dashboard(context.Background(), 1)
	b, _ := svc.Dashboard(context.Background(), 1)

	a.GeneratedAt = b.GeneratedAt
	if len(a.Monthly) != len(b.Monthly) || len(a.Categories) != len(b.Categories) {
		t.Error("repeated dashboards differ in shape")
	}
	for i := range a.Categories {
		if a.Categories[i] != b.Categories[i] {
			t.Errorf("category row %d differs: %+v vs %+v", i, a.Categories[i], b.Categories[i])
		}
	}
}

func TestEntriesJoinsAnomalyFlags(t *testing.T) {
	store := newFakeStore()
	store.ledgers[1] = scenarioLedger()
	store.flags[1] = map[int64]string{3: "Anomaly", 1: "Normal"}
	svc := NewReportService(store)

	report, err := svc.Entries(context.Background(), 1)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if report.Count != 3 {
		t.Fatalf("count = %d, want 3", report.Count)
	}

	byID := make(map[int64]EntryDTO)
	for _, e := range report.Entries {
		byID[e.ID] = e
	}
	if byID[3].Anomaly != "Anomaly" {
		t.Errorf("entry 3 anomaly = %q, want Anomaly", byID[3].Anomaly)
	}
	if byID[1].Anomaly != "Normal" {
		t.Errorf("entry 1 anomaly = %q, want Normal", byID[1].Anomaly)
	}
	// Entry 2 was never scored and carries no label.
	if byID[2].Anomaly != "" {
		t.Errorf("entry 2 anomaly = %q, want empty", byID[2].Anomaly)
	}
}
