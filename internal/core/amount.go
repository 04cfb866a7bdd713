// Package core provides amount parsing utilities.
//
// Amounts are stored as floating point, but the raw form value is parsed
// through an exact decimal first so malformed input never reaches storage.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-supplied decimal string into a positive amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted.
// Returns ErrInvalidAmount for empty, non-numeric, zero or negative values.
//
// Examples:
//
//	ParseAmount("50")    -> 50, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}

	f := d.InexactFloat64()
	if err := ValidateAmount(f); err != nil {
		return 0, err
	}
	return f, nil
}

// ValidateAmount reports whether f is a finite positive amount.
func ValidateAmount(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
