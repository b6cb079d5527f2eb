// Package money converts between display amounts ("30.00") and the int64
// minor units used everywhere inside the ledger. All arithmetic on balances
// is integer-exact; decimals appear only at this boundary.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnitsPerUnit is the scale of the ledger currency (cents).
const MinorUnitsPerUnit = 100

var (
	ErrMalformedAmount = errors.New("malformed amount")
	ErrTooPrecise      = errors.New("amount has more than two decimal places")
)

var minorScale = decimal.NewFromInt(MinorUnitsPerUnit)

// Parse converts a display string such as "30.00" or "1250.5" into minor
// units. Amounts with sub-cent precision are rejected rather than rounded,
// so callers can never lose value silently.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	scaled := d.Mul(minorScale)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: %q", ErrTooPrecise, s)
	}
	return scaled.IntPart(), nil
}

// Format renders minor units as a fixed two-decimal display string.
func Format(minor int64) string {
	return decimal.NewFromInt(minor).Div(minorScale).StringFixed(2)
}
