// Package types provides money and currency primitives shared by all documents.
package types

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors. Values stay unrounded
// until RoundToCurrency is applied to a final stored amount.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewMoneyFromInt creates a Money value from a whole number.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Add returns a + b.
func Add(a, b Money) Money {
	return a.Add(b)
}

// Subtract returns a - b.
func Subtract(a, b Money) Money {
	return a.Sub(b)
}

// MultiplyByPercent returns amount × percent / 100 without rounding.
// The shift is exact, so no division precision is involved.
func MultiplyByPercent(amount, percent Money) Money {
	return amount.Mul(percent).Shift(-2)
}

// RoundToCurrency rounds half away from zero to the currency's minor unit.
func RoundToCurrency(amount Money, exponent int32) Money {
	return amount.Round(exponent)
}

// MinorUnits represents a monetary value in minor currency units (cents, kobo).
// Storage: int64 - sufficient for ±922 trillion minor units.
// Example: 123.45 USD → 12345, 500 JPY → 500
type MinorUnits int64

// ErrMinorUnitsOverflow is returned when an amount does not fit in MinorUnits.
var ErrMinorUnitsOverflow = errors.New("amount exceeds the minor unit range")

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

// ToMinorUnits rounds amount to the currency exponent and returns it in minor units.
// Amounts outside the int64 range yield ErrMinorUnitsOverflow.
func ToMinorUnits(amount Money, exponent int32) (MinorUnits, error) {
	shifted := amount.Round(exponent).Shift(exponent)
	if shifted.GreaterThan(maxMinorUnits) || shifted.LessThan(minMinorUnits) {
		return 0, ErrMinorUnitsOverflow
	}
	return MinorUnits(shifted.IntPart()), nil
}

// SumMinorUnits adds values, failing with ErrMinorUnitsOverflow instead of wrapping.
func SumMinorUnits(values ...MinorUnits) (MinorUnits, error) {
	var sum MinorUnits
	for _, v := range values {
		if (v > 0 && sum > math.MaxInt64-v) || (v < 0 && sum < math.MinInt64-v) {
			return 0, ErrMinorUnitsOverflow
		}
		sum += v
	}
	return sum, nil
}

// ToMoney converts minor units back to a major-unit decimal.
func (m MinorUnits) ToMoney(exponent int32) Money {
	return decimal.New(int64(m), -exponent)
}

// Format renders the amount with exactly exponent fractional digits.
func (m MinorUnits) Format(exponent int32) string {
	return m.ToMoney(exponent).StringFixed(exponent)
}

func (m MinorUnits) IsZero() bool     { return m == 0 }
func (m MinorUnits) IsPositive() bool { return m > 0 }
func (m MinorUnits) IsNegative() bool { return m < 0 }

func (m MinorUnits) String() string {
	return fmt.Sprintf("%d", int64(m))
}
