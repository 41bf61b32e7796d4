package shared

import "github.com/shopspring/decimal"

// Scales of the NUMERIC columns: money is (18,2), quantities (18,4)
const (
	MoneyScale    = 2
	QuantityScale = 4
)

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to cents
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// RoundQty rounds a quantity to the stored scale
func RoundQty(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityScale)
}

// Percent returns pct percent of base, unrounded
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// Ratio returns part/whole as a percentage rounded to two places, zero when whole is zero
func Ratio(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}

// Sum adds up f over items
func Sum[T any](items []T, f func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(f(it))
	}
	return total
}
