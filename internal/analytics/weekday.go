package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

// WeekdayStat aggregates spend for one day of the week. Valid is false
// for weekdays with no matching records; Avg and NecessityRatio are
// meaningless then and must be rendered as blank, never as NaN.
type WeekdayStat struct {
	Weekday        time.Weekday
	Total          core.Money
	Avg            decimal.Decimal
	NecessityRatio float64 // percentage of entries flagged necessary
	Count          int
	Valid          bool
}

// WeekdayStats returns exactly 7 rows in fixed Monday..Sunday order
// regardless of ledger content, including the empty ledger.
func WeekdayStats(l core.Ledger) [7]WeekdayStat {
	var out [7]WeekdayStat
	for i := range out {
		// Monday-first ordering; time.Weekday counts from Sunday.
		out[i].Weekday = time.Weekday((i + 1) % 7)
	}

	necessary := [7]int{}
	for _, e := range l {
		i := mondayIndex(e.Date.Time.Weekday())
		out[i].Total.Cents += e.Amount.Cents
		out[i].Count++
		if e.IsNecessary {
			necessary[i]++
		}
	}

	for i := range out {
		if out[i].Count == 0 {
			continue
		}
		out[i].Valid = true
		out[i].Avg = out[i].Total.Decimal().Div(decimal.NewFromInt(int64(out[i].Count)))
		out[i].NecessityRatio = float64(necessary[i]) / float64(out[i].Count) * 100
	}
	return out
}

// mondayIndex maps time.Weekday (Sunday=0) onto the Monday-first row
// order used by the weekday chart and the anomaly feature vector.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
