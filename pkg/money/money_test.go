package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Currency
// ---------------------------------------------------------------------------

func TestNewCurrency(t *testing.T) {
	c, err := NewCurrency("INR")
	require.NoError(t, err)
	assert.Equal(t, "INR", c.Code())

	tests := []struct {
		name string
		code string
	}{
		{"empty", ""},
		{"lowercase", "inr"},
		{"too short", "IN"},
		{"digits", "IN1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCurrency(tt.code)
			assert.Error(t, err)
		})
	}
}

func TestMustCurrency_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCurrency("bad") })
}

// ---------------------------------------------------------------------------
// Money
// ---------------------------------------------------------------------------

func TestNew_RoundsToCurrencyScale(t *testing.T) {
	m := New(decimal.RequireFromString("10.005"), INR)
	assert.Equal(t, "10.01", m.Amount().StringFixed(2))
	assert.Equal(t, INR, m.Currency())
}

func TestMoney_Add(t *testing.T) {
	a := New(decimal.NewFromInt(100), INR)
	b := New(decimal.RequireFromString("0.50"), INR)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.RequireFromString("100.50")))

	total, err := Zero(INR).Add(sum)
	require.NoError(t, err)
	assert.True(t, total.Amount().Equal(sum.Amount()))
	assert.True(t, Zero(INR).IsZero())

	usd := New(decimal.NewFromInt(1), MustCurrency("USD"))
	_, err = a.Add(usd)
	assert.Contains(t, err.Error(), "currency mismatch")
}

// ---------------------------------------------------------------------------
// Rates and rounding
// ---------------------------------------------------------------------------

func TestRound_HalfUp(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1"},
		{"2.345", "2.35"},
		{"7083.3333333", "7083.33"},
		{"0.125", "0.13"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Round(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestMonthlyRate(t *testing.T) {
	r := MonthlyRate(decimal.RequireFromString("8.5"))
	assert.Equal(t, "0.0070833333", r.String())

	assert.True(t, MonthlyRate(decimal.Zero).IsZero())
	assert.Equal(t, "0.01", MonthlyRate(decimal.NewFromInt(12)).String())
}

func TestParse(t *testing.T) {
	d, err := Parse("50000.00")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(50000)))

	_, err = Parse("")
	assert.Error(t, err)
	_, err = Parse("12,00")
	assert.Error(t, err)
}

func TestClamp(t *testing.T) {
	lo, hi := decimal.NewFromInt(5000), decimal.NewFromInt(50000)
	assert.True(t, Clamp(decimal.NewFromInt(100), lo, hi).Equal(lo))
	assert.True(t, Clamp(decimal.NewFromInt(90000), lo, hi).Equal(hi))
	assert.True(t, Clamp(decimal.NewFromInt(12000), lo, hi).Equal(decimal.NewFromInt(12000)))
}
