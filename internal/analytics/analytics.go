// Package analytics computes the derived views shown on the dashboard
// and reports tabs from a single in-memory ledger snapshot.
//
// Every function here is pure: it holds no state, performs no I/O, and
// is safe to call concurrently as long as each call receives its own
// snapshot. Calling any operation twice on the same snapshot yields
// identical output.
package analytics

import (
	"errors"
	"time"

	"spendtrack/internal/core"
)

// ErrEmptyLedger is returned by Totals when called on an empty ledger.
// It is the only operation with a non-empty precondition; all other
// operations are total and return zero values or sentinels instead.
var ErrEmptyLedger = errors.New("ledger is empty")

// Period is a calendar year+month grouping key, independent of day.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing d.
func PeriodOf(d core.Date) Period {
	return Period{Year: d.Year(), Month: d.Time.Month()}
}

// Before reports whether p is chronologically earlier than q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// Label renders the period as "January 2024".
func (p Period) Label() string {
	return p.Month.String() + " " + itoa(p.Year)
}

// ShortLabel renders the period as "Jan 2024", used as the trend chart
// axis label.
func (p Period) ShortLabel() string {
	return p.Month.String()[:3] + " " + itoa(p.Year)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
