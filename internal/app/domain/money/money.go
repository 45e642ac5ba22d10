// Package money provides fixed-point monetary amounts. All arithmetic is
// decimal; the rounding rule is round-half-up to two decimal places, applied
// at every point an amount becomes externally visible.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in major currency units (pounds).
type Amount struct {
	dec decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// FromString parses a decimal amount such as "1.50".
func FromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{dec: d}, nil
}

// FromFloat converts a float price as received from the catalog API.
func FromFloat(f float64) Amount {
	return Amount{dec: decimal.NewFromFloat(f)}
}

// FromMinorUnits converts an integer count of pence into an Amount.
func FromMinorUnits(n int64) Amount {
	return Amount{dec: decimal.New(n, -2)}
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{dec: a.dec.Add(b.dec)}
}

// MulInt returns a multiplied by an integer quantity, rounded to two
// decimal places.
func (a Amount) MulInt(n int) Amount {
	return Amount{dec: a.dec.Mul(decimal.NewFromInt(int64(n)))}.Round2()
}

// Round2 rounds half-up to two decimal places.
func (a Amount) Round2() Amount {
	return Amount{dec: a.dec.Round(2)}
}

// MinorUnits returns the amount as an integer number of pence, rounded
// half-up. This is the representation payment intents are created with.
func (a Amount) MinorUnits() int64 {
	return a.dec.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool {
	return a.dec.IsNegative()
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.dec.IsZero()
}

// Equal reports whether two amounts have the same value.
func (a Amount) Equal(b Amount) bool {
	return a.dec.Equal(b.dec)
}

// String renders the amount with exactly two decimal places.
func (a Amount) String() string {
	return a.dec.StringFixed(2)
}

// MarshalJSON encodes the amount as a fixed two-decimal string, matching the
// wire format the UI shell renders directly.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("parse amount %s: %w", string(data), err)
	}
	a.dec = d
	return nil
}
