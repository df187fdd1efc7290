package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/chamnan-dev/slipguard/internal/model"
)

// DefaultUSDToKHRRate converts dollar amounts into the riel reference
// currency when the caller does not configure a rate.
var DefaultUSDToKHRRate = decimal.NewFromInt(4100)

// toReferenceCurrency converts an amount into KHR, the single reference
// currency all comparisons run in.
func toReferenceCurrency(amount decimal.Decimal, currency model.Currency, usdToKHR decimal.Decimal) decimal.Decimal {
	if currency == model.CurrencyUSD {
		return amount.Mul(usdToKHR)
	}
	return amount
}

// withinTolerance reports whether actual deviates from expected by no more
// than tolerancePercent. A zero expected amount only matches a zero actual.
func withinTolerance(expected, actual decimal.Decimal, tolerancePercent float64) bool {
	diff := actual.Sub(expected).Abs()
	if expected.IsZero() {
		return diff.IsZero()
	}
	allowed := expected.Mul(decimal.NewFromFloat(tolerancePercent)).Div(decimal.NewFromInt(100))
	return diff.LessThanOrEqual(allowed)
}
