package currency

import (
	"testing"
	"time"

	"github.com/erp/finstate/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func createTestPair(rates ...Rate) *Pair {
	p := &Pair{
		Source: valueobject.USD,
		Target: valueobject.EUR,
		Rates:  rates,
	}
	p.ID = uuid.New()
	for i := range p.Rates {
		p.Rates[i].PairID = p.ID
	}
	p.SortRates()
	return p
}

func rate(validFrom time.Time, value string) Rate {
	r := Rate{ValidFrom: validFrom, Rate: d(value)}
	r.ID = uuid.New()
	return r
}

func TestPair_SortRates(t *testing.T) {
	p := createTestPair(
		rate(date(2023, 1, 1), "0.90"),
		rate(date(2024, 1, 1), "0.95"),
		rate(date(2023, 6, 1), "0.92"),
	)

	require.Len(t, p.Rates, 3)
	assert.Equal(t, date(2024, 1, 1), p.Rates[0].ValidFrom)
	assert.Equal(t, date(2023, 6, 1), p.Rates[1].ValidFrom)
	assert.Equal(t, date(2023, 1, 1), p.Rates[2].ValidFrom)
}

func TestPair_RateAt(t *testing.T) {
	p := createTestPair(
		rate(date(2023, 1, 1), "0.90"),
		rate(date(2023, 6, 1), "0.92"),
		rate(date(2024, 1, 1), "0.95"),
	)

	tests := []struct {
		name     string
		atDate   time.Time
		expected string
	}{
		{"newest rate applies from its date", date(2024, 1, 1), "0.95"},
		{"after the newest date", date(2024, 6, 1), "0.95"},
		{"between two rates", date(2023, 8, 15), "0.92"},
		{"exactly on a valid-from date", date(2023, 6, 1), "0.92"},
		{"oldest still valid range", date(2023, 3, 1), "0.90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, fellBack := p.RateAt(tt.atDate, false)
			require.NotNil(t, r)
			assert.False(t, fellBack)
			assert.True(t, d(tt.expected).Equal(r.Rate), "got %s", r.Rate)
		})
	}
}

func TestPair_RateAt_BeforeAllRates(t *testing.T) {
	p := createTestPair(
		rate(date(2023, 1, 1), "0.90"),
		rate(date(2024, 1, 1), "0.95"),
	)

	// Without fallback: no rate.
	r, fellBack := p.RateAt(date(2022, 6, 1), false)
	assert.Nil(t, r)
	assert.False(t, fellBack)

	// With fallback: the chronologically oldest rate, flagged.
	r, fellBack = p.RateAt(date(2022, 6, 1), true)
	require.NotNil(t, r)
	assert.True(t, fellBack)
	assert.True(t, d("0.90").Equal(r.Rate))
}

func TestPair_RateAt_DeletedRatesSkipped(t *testing.T) {
	deleted := rate(date(2024, 1, 1), "0.95")
	deleted.Deleted = true
	p := createTestPair(rate(date(2023, 1, 1), "0.90"), deleted)

	r, _ := p.RateAt(date(2024, 6, 1), false)
	require.NotNil(t, r)
	assert.True(t, d("0.90").Equal(r.Rate))
}

func TestPair_RateAt_NoRates(t *testing.T) {
	p := createTestPair()

	r, fellBack := p.RateAt(date(2024, 1, 1), true)
	assert.Nil(t, r)
	assert.False(t, fellBack)
}

func TestPair_Matches(t *testing.T) {
	p := createTestPair()

	ok, inverted := p.Matches(valueobject.USD, valueobject.EUR)
	assert.True(t, ok)
	assert.False(t, inverted)

	ok, inverted = p.Matches(valueobject.EUR, valueobject.USD)
	assert.True(t, ok)
	assert.True(t, inverted)

	ok, _ = p.Matches(valueobject.GBP, valueobject.EUR)
	assert.False(t, ok)
}

func TestConversionWarning(t *testing.T) {
	msg := ConversionWarning("RE-2024-001", date(2023, 1, 1), valueobject.USD, valueobject.EUR)
	assert.Equal(t, "RE-2024-001 (2023-01-01): USD → EUR", msg)
}
