package utils

import "github.com/shopspring/decimal"

var (
	decimalHundred = decimal.NewFromInt(100)
	decimalHalf    = decimal.NewFromFloat(0.5)

	DefaultVatPercent = decimal.NewFromInt(5)
)

// Round2 rounds to 2 places with halves going toward +infinity
// (1.005 -> 1.01, -1.005 -> -1.00).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Mul(decimalHundred).Add(decimalHalf).Floor().Shift(-2)
}

// CalculateTax returns (tax, total) for a tax-exclusive base amount.
func CalculateTax(base decimal.Decimal, vatPercent decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	tax := Round2(base.Mul(vatPercent).Div(decimalHundred))
	total := Round2(base.Add(tax))
	return tax, total
}
