// Package goalcalc derives progress and completion estimates from goal amounts.
package goalcalc

import (
	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateProgress returns the completed share of target in percent.
//
// The result is within [0, 100] and equals 100 exactly when invested >= target.
// Partial progress is truncated to 2 decimals so it never rounds up to 100.
// A non-positive target is rejected with domain.ErrInvalidInput.
func CalculateProgress(invested, target decimal.Decimal) (float64, error) {
	if !target.IsPositive() {
		return 0, domain.ErrInvalidInput
	}

	if invested.IsNegative() {
		invested = decimal.Zero
	}

	if invested.GreaterThanOrEqual(target) {
		return 100, nil
	}

	pct, _ := invested.Div(target).Mul(hundred).Truncate(2).Float64()

	return pct, nil
}

// Remaining returns how much is left to reach target, never negative.
func Remaining(invested, target decimal.Decimal) decimal.Decimal {
	left := target.Sub(invested)
	if left.IsNegative() {
		return decimal.Zero
	}

	return left
}
