package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to two decimal places. All weight and money
// values are rounded at the point they are computed.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal prices a weight at a per-unit price.
func LineTotal(weight, pricePerUnit decimal.Decimal) decimal.Decimal {
	return Round2(weight.Mul(pricePerUnit))
}

// YieldPercentage is output/input*100, rounded. A zero input yields zero.
func YieldPercentage(output, input decimal.Decimal) decimal.Decimal {
	if !input.IsPositive() {
		return decimal.Zero
	}
	return Round2(output.Div(input).Mul(hundred))
}

// RoundPositive rounds v to two places and rejects a result that is not above
// zero, so 0.004 is refused rather than stored as 0.00.
func RoundPositive(field string, v decimal.Decimal) (decimal.Decimal, error) {
	r := Round2(v)
	if !r.IsPositive() {
		return decimal.Zero, NewValidationError(field, "must be at least 0.01")
	}
	return r, nil
}
