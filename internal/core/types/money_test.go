package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplyByPercent(t *testing.T) {
	tests := []struct {
		amount  string
		percent string
		want    string
	}{
		{"200", "5", "10"},
		{"190", "10", "19"},
		{"0.01", "33.333", "0.0033333"},
		{"100", "0", "0"},
		{"100", "100", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.amount+"x"+tt.percent, func(t *testing.T) {
			got := MultiplyByPercent(MustMoney(tt.amount), MustMoney(tt.percent))
			assert.True(t, MustMoney(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestRoundToCurrency_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "0.13", RoundToCurrency(MustMoney("0.125"), 2).StringFixed(2))
	assert.Equal(t, "-0.13", RoundToCurrency(MustMoney("-0.125"), 2).StringFixed(2))
	assert.Equal(t, "3", RoundToCurrency(MustMoney("2.5"), 0).StringFixed(0))
	assert.Equal(t, "1.235", RoundToCurrency(MustMoney("1.2345"), 3).StringFixed(3))
}

func TestMinorUnits_RoundTrip(t *testing.T) {
	m, err := ToMinorUnits(MustMoney("409.004"), 2)
	require.NoError(t, err)
	assert.Equal(t, MinorUnits(40900), m)
	assert.True(t, MustMoney("409").Equal(m.ToMoney(2)))
	assert.Equal(t, "409.00", m.Format(2))

	m, err = ToMinorUnits(MustMoney("499.5"), 0)
	require.NoError(t, err)
	assert.Equal(t, MinorUnits(500), m)
	assert.Equal(t, "1.500", MinorUnits(1500).Format(3))
}

func TestToMinorUnits_RejectsOutOfRange(t *testing.T) {
	// 2^64 + 17 cents would wrap to 17 without the range check.
	_, err := ToMinorUnits(MustMoney("184467440737095516.17"), 2)
	assert.ErrorIs(t, err, ErrMinorUnitsOverflow)

	_, err = ToMinorUnits(MustMoney("-92233720368547758.09"), 2)
	assert.ErrorIs(t, err, ErrMinorUnitsOverflow)

	m, err := ToMinorUnits(MustMoney("92233720368547758.07"), 2)
	require.NoError(t, err)
	assert.Equal(t, MinorUnits(math.MaxInt64), m)
}

func TestSumMinorUnits(t *testing.T) {
	sum, err := SumMinorUnits(100, -30, 5)
	require.NoError(t, err)
	assert.Equal(t, MinorUnits(75), sum)

	_, err = SumMinorUnits(math.MaxInt64, 1)
	assert.ErrorIs(t, err, ErrMinorUnitsOverflow)

	_, err = SumMinorUnits(math.MinInt64, -1)
	assert.ErrorIs(t, err, ErrMinorUnitsOverflow)

	sum, err = SumMinorUnits(math.MaxInt64, 1, -1)
	assert.ErrorIs(t, err, ErrMinorUnitsOverflow, "overflow is detected at the step it happens")
	assert.Zero(t, sum)
}

func TestAddSubtract(t *testing.T) {
	a := MustMoney("0.1")
	b := MustMoney("0.2")
	assert.True(t, MustMoney("0.3").Equal(Add(a, b)))
	assert.True(t, MustMoney("-0.1").Equal(Subtract(a, b)))
}

func TestCurrency(t *testing.T) {
	c, err := ParseCurrency(" ngn ")
	require.NoError(t, err)
	assert.Equal(t, Currency("NGN"), c)
	assert.Equal(t, int32(2), c.MinorUnitExponent())

	assert.Equal(t, int32(0), Currency("JPY").MinorUnitExponent())
	assert.Equal(t, int32(3), Currency("KWD").MinorUnitExponent())
	assert.Equal(t, DefaultMinorUnitExponent, Currency("???").MinorUnitExponent())

	_, err = ParseCurrency("dollars")
	assert.Error(t, err)
	assert.False(t, Currency("ZZZ").IsValid())
}
