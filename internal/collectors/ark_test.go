package collectors

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/smartmoney/internal/domain"
)

func TestDiffSnapshots(t *testing.T) {
	prev := ArkSnapshot{
		ETF:  "ARKK",
		Date: "2026-01-23",
		Holdings: []domain.ArkHolding{
			{Ticker: "AAPL", Shares: 100_000, WeightPct: 1.5},
			{Ticker: "TSLA", Shares: 1_000_000, WeightPct: 9.0},
			{Ticker: "MSFT", Shares: 200_000, WeightPct: 2.0},
			{Ticker: "GOOG", Shares: 1_000_000, WeightPct: 3.0},
		},
	}
	curr := ArkSnapshot{
		ETF:  "ARKK",
		Date: "2026-01-24",
		Holdings: []domain.ArkHolding{
			{Ticker: "AAPL", Shares: 102_000, WeightPct: 1.6},  // +2%
			{Ticker: "TSLA", Shares: 985_000, WeightPct: 8.8},  // -1.5%
			{Ticker: "GOOG", Shares: 1_005_000, WeightPct: 3.0}, // +0.5%, below threshold
			{Ticker: "NVDA", Shares: 50_000, WeightPct: 2.3},
		},
	}

	trades := DiffSnapshots(prev, curr)
	byTicker := map[string]domain.ArkTrade{}
	for _, tr := range trades {
		byTicker[tr.Ticker] = tr
	}
	require.Len(t, byTicker, 3)

	aapl := byTicker["AAPL"]
	assert.Equal(t, "INCREASED", aapl.ChangeType)
	assert.Equal(t, "Buy", aapl.TradeType)
	assert.Equal(t, 2_000.0, aapl.Shares)
	assert.Equal(t, "2026-01-24", aapl.Date)

	tsla := byTicker["TSLA"]
	assert.Equal(t, "DECREASED", tsla.ChangeType)
	assert.Equal(t, "Sell", tsla.TradeType)
	assert.Equal(t, 15_000.0, tsla.Shares)

	nvda := byTicker["NVDA"]
	assert.Equal(t, "NEW_POSITION", nvda.ChangeType)
	assert.Equal(t, "Buy", nvda.TradeType)
	require.NotNil(t, nvda.WeightPct)
	assert.Equal(t, 2.3, *nvda.WeightPct)

	// Sub-threshold moves produce no trade.
	assert.NotContains(t, byTicker, "GOOG")

	msft := findSoldOut(trades, "MSFT")
	require.NotNil(t, msft)
	assert.Equal(t, "Sell", msft.TradeType)
	assert.Equal(t, 200_000.0, msft.Shares)
}

func findSoldOut(trades []domain.ArkTrade, ticker string) *domain.ArkTrade {
	for i := range trades {
		if trades[i].Ticker == ticker && trades[i].ChangeType == "SOLD_OUT" {
			return &trades[i]
		}
	}
	return nil
}

func TestArkCollectorDiffAcrossRuns(t *testing.T) {
	store := testStore(t)
	stateDir := t.TempDir()

	day1 := []ArkSnapshot{{
		ETF:  "ARKK",
		Date: "2026-01-23",
		Holdings: []domain.ArkHolding{
			{Ticker: "TSLA", ETF: "ARKK", Shares: 1_000_000, WeightPct: 9.0, Date: "2026-01-23"},
		},
	}}
	day2 := []ArkSnapshot{{
		ETF:  "ARKK",
		Date: "2026-01-24",
		Holdings: []domain.ArkHolding{
			{Ticker: "TSLA", ETF: "ARKK", Shares: 1_050_000, WeightPct: 9.2, Date: "2026-01-24"},
			{Ticker: "NVDA", ETF: "ARKK", Shares: 40_000, WeightPct: 1.1, Date: "2026-01-24"},
		},
	}}

	snapshots := day1
	c := NewArkCollector(store, func() ([]ArkSnapshot, error) { return snapshots, nil }, stateDir, zerolog.Nop())
	c.Now = func() time.Time { return collectorRef }

	// First run has no prior state: holdings only, no trades.
	count, err := c.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Second run diffs against the persisted snapshot.
	snapshots = day2
	count, err = c.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var doc domain.ArkTradesArtifact
	require.NoError(t, store.ReadInto(domain.ArtifactArkTrades, &doc))
	require.Len(t, doc.Trades, 2)
	assert.Equal(t, "NVDA", doc.Trades[0].Ticker)
	assert.Equal(t, "NEW_POSITION", doc.Trades[0].ChangeType)
	assert.Equal(t, "TSLA", doc.Trades[1].Ticker)
	assert.Equal(t, "INCREASED", doc.Trades[1].ChangeType)

	var holdings domain.ArkHoldingsArtifact
	require.NoError(t, store.ReadInto(domain.ArtifactArkHoldings, &holdings))
	assert.Len(t, holdings.Holdings, 2)
}
