package decimal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstruction(t *testing.T) {
	m, err := NewFromString("1234.567")
	require.NoError(t, err)
	assert.Equal(t, "1234.57", m.Round().String())

	_, err = NewFromString("not money")
	assert.Error(t, err)

	assert.True(t, Zero().IsZero())
	assert.Equal(t, "42.00", NewFromInt(42).String())

	var zero Money
	assert.True(t, zero.IsZero(), "zero value is a usable zero amount")
}

// TestNoFloatDrift pins the reason this type exists: classic binary-float
// traps stay exact in decimal arithmetic.
func TestNoFloatDrift(t *testing.T) {
	a := RequireFromString("0.1")
	b := RequireFromString("0.2")
	assert.True(t, a.Add(b).Equal(RequireFromString("0.3")))

	cents := RequireFromString("0.01")
	total := Zero()
	for i := 0; i < 1000; i++ {
		total = total.Add(cents)
	}
	assert.True(t, total.Equal(NewFromInt(10)))
}

func TestArithmetic(t *testing.T) {
	gross := NewFromInt(37700)
	rate := decimal.RequireFromString("0.20")
	assert.Equal(t, "7540.00", gross.MulRate(rate).String())

	units := decimal.RequireFromString("3")
	assert.Equal(t, "150.00", NewFromInt(50).Mul(units).String())
	assert.Equal(t, "50.00", NewFromInt(150).Div(units).String())

	assert.Equal(t, "30.00", Sum(NewFromInt(5), NewFromInt(10), NewFromInt(15)).String())
}

func TestFloorZero(t *testing.T) {
	assert.True(t, RequireFromString("-17235").FloorZero().IsZero())
	positive := NewFromInt(100)
	assert.True(t, positive.FloorZero().Equal(positive))
	assert.True(t, Zero().FloorZero().IsZero())
}

func TestComparisons(t *testing.T) {
	small, big := NewFromInt(1), NewFromInt(2)
	assert.True(t, small.LessThan(big))
	assert.True(t, big.GreaterThan(small))
	assert.True(t, small.LessThanOrEqual(small))
	assert.True(t, small.GreaterThanOrEqual(small))
	assert.False(t, small.Equal(big))
	assert.True(t, RequireFromString("-0.01").IsNegative())
	assert.True(t, RequireFromString("0.01").IsPositive())

	assert.True(t, Min(small, big).Equal(small))
	assert.True(t, Max(small, big).Equal(big))
	assert.True(t, Min(small, small).Equal(small))
}

// TestRoundingBoundary checks half-up rounding at the cent boundary, the
// convention applied once at result boundaries.
func TestRoundingBoundary(t *testing.T) {
	assert.Equal(t, "1.13", RequireFromString("1.125").Round().String())
	assert.Equal(t, "1.12", RequireFromString("1.1249").Round().String())
	assert.Equal(t, "-1.13", RequireFromString("-1.125").Round().String())
}

func TestStringAlwaysTwoPlaces(t *testing.T) {
	assert.Equal(t, "0.00", Zero().String())
	assert.Equal(t, "5.50", RequireFromString("5.5").String())
	assert.Equal(t, "5.55", RequireFromString("5.5539").Round().String())
}
