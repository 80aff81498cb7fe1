package collectors

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/smartmoney/internal/domain"
)

func TestFilterShortInterest(t *testing.T) {
	raw := []domain.ShortInterestRow{
		{Ticker: "gme", SettlementDate: "2026-01-15", ShortInterest: 60_000_000, PriorShortInterest: 40_000_000, AvgDailyVolume: 12_000_000},
		{Ticker: "AMC", SettlementDate: "2026-01-15", ShortInterest: 90_000_000, ChangePct: 12.5, DaysToCover: 4.2},
		// Below the position floor.
		{Ticker: "PENNY", SettlementDate: "2026-01-15", ShortInterest: 50_000},
		// Warrants never pass ticker normalization.
		{Ticker: "ABC+", SettlementDate: "2026-01-15", ShortInterest: 5_000_000},
	}

	rows := FilterShortInterest(raw)
	require.Len(t, rows, 2)

	// Sorted by short interest descending.
	assert.Equal(t, "AMC", rows[0].Ticker)
	// Pre-populated derived fields pass through untouched.
	assert.Equal(t, 12.5, rows[0].ChangePct)
	assert.Equal(t, 4.2, rows[0].DaysToCover)

	gme := rows[1]
	assert.Equal(t, "GME", gme.Ticker)
	// Derived from the prior settlement: (60M - 40M) / 40M.
	assert.InDelta(t, 50.0, gme.ChangePct, 1e-9)
	// Derived from average daily volume: 60M / 12M.
	assert.InDelta(t, 5.0, gme.DaysToCover, 1e-9)
}

func TestEnrichFloat(t *testing.T) {
	floats := map[string]float64{
		"GME": 300_000_000,
	}
	c := &ShortInterestCollector{
		FloatLookup: func(ticker string) (float64, bool) {
			f, ok := floats[ticker]
			return f, ok
		},
		Log: zerolog.Nop(),
	}

	rows := []domain.ShortInterestRow{
		{Ticker: "GME", ShortInterest: 60_000_000},
		{Ticker: "NOFLT", ShortInterest: 10_000_000},
	}
	c.enrichFloat(rows)

	require.NotNil(t, rows[0].ShortPctFloat)
	assert.InDelta(t, 20.0, *rows[0].ShortPctFloat, 1e-9)
	assert.Nil(t, rows[1].ShortPctFloat)
}

func TestEnrichFloatDisabledWithoutLookup(t *testing.T) {
	c := &ShortInterestCollector{Log: zerolog.Nop()}
	rows := []domain.ShortInterestRow{{Ticker: "GME", ShortInterest: 60_000_000}}
	c.enrichFloat(rows)
	assert.Nil(t, rows[0].ShortPctFloat)
}
