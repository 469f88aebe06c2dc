package types

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// DefaultMinorUnitExponent is used for codes without ISO 4217 rounding data.
const DefaultMinorUnitExponent int32 = 2

// DefaultCurrency is applied to documents created without a currency.
const DefaultCurrency Currency = "USD"

// Currency is an upper-case ISO 4217 code.
type Currency string

// ParseCurrency normalizes and validates an ISO 4217 code.
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("parse currency %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

// IsValid reports whether the code is a known ISO 4217 currency.
func (c Currency) IsValid() bool {
	_, err := currency.ParseISO(string(c))
	return err == nil
}

// MinorUnitExponent returns the number of fractional digits of the currency
// (2 for USD and NGN, 0 for JPY, 3 for KWD).
func (c Currency) MinorUnitExponent() int32 {
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		return DefaultMinorUnitExponent
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

func (c Currency) String() string { return string(c) }
