// Package money centralizes the decimal coercion and rounding rules used by
// the settlement engine. Every monetary value that leaves the engine has gone
// through Round2; every optional or free-form monetary input comes in through
// Orzero or Parse.
package money

import "github.com/shopspring/decimal"

// Orzero dereferences an optional amount, defaulting a missing value to zero.
func Orzero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// Parse converts a stored decimal string to an amount. Malformed or empty
// input coerces to zero rather than failing; settlement aggregation is
// best-effort over whatever the ledger holds.
func Parse(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round2 rounds to 2 fraction digits, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
