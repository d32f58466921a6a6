// Package money provides exact base-10 arithmetic helpers for the ledger.
// All persisted amounts are decimal strings; this package is the only place
// that converts between strings and decimal.Decimal, so no floating point
// ever enters a money computation.
package money

import "github.com/shopspring/decimal"

// Parse converts a decimal string into a Decimal. The second return value is
// false when the input is not a valid decimal; callers treat that as a
// validation failure rather than an error to propagate.
func Parse(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseOrZero converts a decimal string, treating empty and invalid input as
// zero. Used for optional fields like fees where absence means no amount.
func ParseOrZero(s string) decimal.Decimal {
	d, ok := Parse(s)
	if !ok {
		return decimal.Zero
	}
	return d
}
