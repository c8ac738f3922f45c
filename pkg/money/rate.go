package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of fractional digits of a finalized currency amount.
	Scale int32 = 2
	// RateScale is the precision kept for a monthly rate before it enters the
	// compounding terms.
	RateScale int32 = 10
)

var twelveHundred = decimal.NewFromInt(1200)

// Round applies the currency rounding policy: half-up to 2 places.
// decimal.Round rounds half away from zero, which is half-up for the
// non-negative amounts handled here.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// MonthlyRate converts an annual percentage rate (8.5 for 8.5%) to a monthly
// fraction, annual/1200, kept to RateScale digits.
func MonthlyRate(annualPercent decimal.Decimal) decimal.Decimal {
	return annualPercent.DivRound(twelveHundred, RateScale)
}

// Parse reads a decimal amount. Empty strings are rejected.
func Parse(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("invalid amount: empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Clamp bounds d to [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}
