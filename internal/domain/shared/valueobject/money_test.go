package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(100), EUR)
	require.NoError(t, err)
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, EUR, m.Currency())
}

func TestNewMoney_EmptyCurrency(t *testing.T) {
	_, err := NewMoney(decimal.NewFromInt(100), "")
	assert.Error(t, err)
}

func TestMoney_IsZero(t *testing.T) {
	zero, err := NewMoney(decimal.Zero, EUR)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	cent, err := NewMoney(decimal.RequireFromString("0.01"), EUR)
	require.NoError(t, err)
	assert.False(t, cent.IsZero())
}

func TestMoney_Equals(t *testing.T) {
	a, err := NewMoney(decimal.RequireFromString("42.50"), EUR)
	require.NoError(t, err)
	b, err := NewMoney(decimal.RequireFromString("42.5"), EUR)
	require.NoError(t, err)
	c, err := NewMoney(decimal.RequireFromString("42.50"), USD)
	require.NoError(t, err)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestMoney_String(t *testing.T) {
	m, err := NewMoney(decimal.RequireFromString("123.4"), USD)
	require.NoError(t, err)
	assert.Equal(t, "123.40 USD", m.String())
}

func TestMoney_MarshalJSON(t *testing.T) {
	m, err := NewMoney(decimal.RequireFromString("119.99"), EUR)
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "119.99", decoded.Amount)
	assert.Equal(t, "EUR", decoded.Currency)
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		input    string
		places   int32
		expected string
	}{
		{"99.999", 2, "100.00"},
		{"99.994", 2, "99.99"},
		{"0.125", 2, "0.13"},
		{"10.005", 2, "10.01"},   // half rounds up
		{"-10.005", 2, "-10.01"}, // symmetric for credits
		{"33.333", 2, "33.33"},
		{"1.5", 0, "2"},
		{"0.90125", 4, "0.9013"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := RoundHalfUp(decimal.RequireFromString(tt.input), tt.places)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)),
				"got %s", got)
		})
	}
}
