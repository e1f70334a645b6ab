package market

import "github.com/shopspring/decimal"

// NoteDenomination is the smallest amount that can be invested in one note.
var NoteDenomination = decimal.NewFromInt(25)

// Cents rounds an amount to cent precision.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsDenominationMultiple reports whether amount is a positive whole multiple
// of NoteDenomination.
func IsDenominationMultiple(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	return amount.Mod(NoteDenomination).IsZero()
}
