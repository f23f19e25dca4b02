package analytics

import (
	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

// Savings heuristic constants. The tip and warning thresholds are
// independent and may both fire on the same ledger.
const (
	// TipRatioThreshold is the non-necessary spend fraction above which
	// a savings tip is emitted.
	TipRatioThreshold = 0.30

	// WarningRatioThreshold is the fraction above which the overspending
	// warning is emitted.
	WarningRatioThreshold = 0.40
)

// ReductionFactor is the assumed achievable cut of non-necessary spend.
var ReductionFactor = decimal.NewFromFloat(0.25)

// Suggestion is the savings tip derived from spending habits. Tip is
// only meaningful when HasTip is true.
type Suggestion struct {
	// Tip is the suggested monthly saving: ratio * avgMonthly * ReductionFactor.
	Tip    decimal.Decimal
	HasTip bool

	// Warning fires when more than 40% of spend is non-necessary.
	Warning bool
}

// SavingsSuggestion derives the heuristic savings tip from the ledger.
// A tip is emitted when the average monthly spend is positive and more
// than 30% of total spend is non-necessary.
func SavingsSuggestion(l core.Ledger) Suggestion {
	var s Suggestion
	split := NecessitySplit(l)
	s.Warning = split.Ratio > WarningRatioThreshold

	months := MonthlySummary(l)
	if len(months) == 0 {
		return s
	}
	var sum core.Money
	for _, m := range months {
		sum.Cents += m.Sum.Cents
	}
	avgMonthly := sum.Decimal().Div(decimal.NewFromInt(int64(len(months))))

	if avgMonthly.IsPositive() && split.Ratio > TipRatioThreshold {
		total := split.NecessaryTotal.Cents + split.NonNecessaryTotal.Cents
		ratio := core.Money{Cents: split.NonNecessaryTotal.Cents}.Decimal().
			Div(core.Money{Cents: total}.Decimal())
		s.Tip = ratio.Mul(avgMonthly).Mul(ReductionFactor)
		s.HasTip = true
	}
	return s
}
