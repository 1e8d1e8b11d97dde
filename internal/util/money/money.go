package money

import "github.com/shopspring/decimal"

// minorUnitExponent is the number of decimal places in the store currency
// (cents). The processor API speaks integer minor units only.
const minorUnitExponent = 2

// ToMinorUnits converts a decimal amount to the processor's integer minor-unit
// representation, rounding to nearest. Truncation would systematically
// underbill.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(minorUnitExponent).Round(0).IntPart()
}

// FromMinorUnits is the exact inverse of ToMinorUnits.
func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.NewFromInt(units).Shift(-minorUnitExponent)
}
