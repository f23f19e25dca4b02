package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

// Overview holds the headline metrics for a non-empty ledger.
type Overview struct {
	Total   core.Money
	Average decimal.Decimal
	Max     core.Money
	Min     core.Money
	Count   int
}

// Split partitions total spend by the necessity flag. Ratio is the
// non-necessary fraction of total spend, 0.0 when the ledger is empty.
type Split struct {
	NecessaryTotal    core.Money
	NonNecessaryTotal core.Money
	Ratio             float64
}

// CategoryTotal is the spend sum for one category present in the ledger.
type CategoryTotal struct {
	Category core.Category
	Sum      core.Money
}

// Totals computes total, per-entry average, max, min and count.
// It requires a non-empty ledger and returns ErrEmptyLedger otherwise;
// callers must check emptiness (or the error) before rendering.
func Totals(l core.Ledger) (Overview, error) {
	if l.IsEmpty() {
		return Overview{}, ErrEmptyLedger
	}

	o := Overview{
		Max:   l[0].Amount,
		Min:   l[0].Amount,
		Count: len(l),
	}
	for _, e := range l {
		o.Total.Cents += e.Amount.Cents
		if e.Amount.Cents > o.Max.Cents {
			o.Max = e.Amount
		}
		if e.Amount.Cents < o.Min.Cents {
			o.Min = e.Amount
		}
	}
	o.Average = o.Total.Decimal().Div(decimal.NewFromInt(int64(o.Count)))
	return o, nil
}

// NecessitySplit partitions spend by necessity flag. Never fails: the
// empty ledger yields {0, 0, 0.0}.
func NecessitySplit(l core.Ledger) Split {
	var s Split
	for _, e := range l {
		if e.IsNecessary {
			s.NecessaryTotal.Cents += e.Amount.Cents
		} else {
			s.NonNecessaryTotal.Cents += e.Amount.Cents
		}
	}
	total := s.NecessaryTotal.Cents + s.NonNecessaryTotal.Cents
	if total > 0 {
		s.Ratio = float64(s.NonNecessaryTotal.Cents) / float64(total)
	}
	return s
}

// CategoryTotals groups spend by category, one row per distinct category
// present, in first-seen ledger order.
func CategoryTotals(l core.Ledger) []CategoryTotal {
	index := make(map[core.Category]int)
	var out []CategoryTotal
	for _, e := range l {
		i, seen := index[e.Category]
		if !seen {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryTotal{Category: e.Category})
		}
		out[i].Sum.Cents += e.Amount.Cents
	}
	return out
}

// DefaultTopN is the number of records shown in the highest-expenses table.
const DefaultTopN = 5

// TopN returns the n records with the greatest amounts, descending, with
// ties broken by original ledger order. Fewer than n records yields
// exactly that many.
func TopN(l core.Ledger, n int) []core.ExpenseRecord {
	if n <= 0 || l.IsEmpty() {
		return nil
	}
	out := make([]core.ExpenseRecord, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}
