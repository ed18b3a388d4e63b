package ledger

import "github.com/shopspring/decimal"

const (
	MoneyPlaces    = 2
	QuantityPlaces = 8
)

// DustThreshold is the quantity at or below which a position is considered closed.
var DustThreshold = decimal.New(1, -QuantityPlaces)

// Money rounds a currency amount to cents. Stored amounts are always rounded first.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Quantity rounds an asset quantity or unit price to 8 places.
func Quantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPlaces)
}

// Percent returns part/whole*100 rounded to 2 places, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}
