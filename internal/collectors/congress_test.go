package collectors

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/smartmoney/internal/cache"
	"github.com/aristath/smartmoney/internal/domain"
)

var collectorRef = time.Date(2026, 1, 26, 12, 0, 0, 0, time.UTC)

func testStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestCongressNormalize(t *testing.T) {
	c := &CongressCollector{Log: zerolog.Nop()}

	records := []CongressRecord{
		{
			Ticker:          "nvda",
			Representative:  " Jane Doe ",
			Party:           "D",
			House:           "House of Representatives",
			Transaction:     "purchase",
			Range:           "$100,001 - $250,000",
			TransactionDate: "2026-01-20",
			ReportDate:      "2026-01-24",
		},
		{
			Ticker:          "AAPL",
			Representative:  "John Roe",
			Party:           "republican",
			House:           "US Senate",
			Transaction:     "sale",
			Range:           "$1,001 - $15,000",
			TransactionDate: "2026-01-22",
			ReportDate:      "2026-01-25",
		},
		// Cash placeholder rows carry no ticker and are dropped.
		{Ticker: "--", Transaction: "purchase", TransactionDate: "2026-01-23"},
	}

	trades := c.Normalize(records)
	require.Len(t, trades, 2)

	// Newest transaction first.
	assert.Equal(t, "AAPL", trades[0].Ticker)
	assert.Equal(t, "Sell", trades[0].TradeType)
	assert.Equal(t, "Republican", trades[0].Party)
	assert.Equal(t, "Senate", trades[0].Chamber)

	assert.Equal(t, "NVDA", trades[1].Ticker)
	assert.Equal(t, "Jane Doe", trades[1].Politician)
	assert.Equal(t, "Democrat", trades[1].Party)
	assert.Equal(t, "House", trades[1].Chamber)
	assert.Equal(t, "Buy", trades[1].TradeType)
	assert.Equal(t, 100_001.0, trades[1].AmountMin)
	assert.Equal(t, 250_000.0, trades[1].AmountMax)
}

func TestParseCongressRecordsJSONL(t *testing.T) {
	input := strings.Join([]string{
		`{"Ticker":"NVDA","Transaction":"purchase","TransactionDate":"2026-01-20"}`,
		`this line is not json`,
		``,
		`{"Ticker":"AAPL","Transaction":"sale","TransactionDate":"2026-01-21"}`,
	}, "\n")

	records, err := ParseCongressRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "NVDA", records[0].Ticker)
	assert.Equal(t, "AAPL", records[1].Ticker)
}

func TestParseCongressRecordsArray(t *testing.T) {
	input := `[{"Ticker":"NVDA","Transaction":"purchase"},{"Ticker":"TSLA","Transaction":"sale"}]`

	records, err := ParseCongressRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	// A malformed array fails the whole batch.
	_, err = ParseCongressRecords(strings.NewReader(`[{"Ticker":`))
	assert.Error(t, err)

	// Empty input is an empty batch.
	records, err = ParseCongressRecords(strings.NewReader("  \n "))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCongressRunWritesEmptyArtifactOnFetchFailure(t *testing.T) {
	store := testStore(t)
	c := &CongressCollector{
		Store:  store,
		Source: func() ([]CongressRecord, error) { return nil, errors.New("provider down") },
		Now:    func() time.Time { return collectorRef },
		Log:    zerolog.Nop(),
	}

	count, err := c.Run()
	assert.Equal(t, 0, count)
	assert.ErrorIs(t, err, ErrFetch)

	// The empty artifact records the failure so readers never see a stale
	// payload without context.
	var doc domain.CongressArtifact
	require.NoError(t, store.ReadInto(domain.ArtifactCongress, &doc))
	assert.Empty(t, doc.Trades)
	assert.Contains(t, doc.Metadata.Error, "provider down")
}

func TestCongressRunSuccess(t *testing.T) {
	store := testStore(t)
	c := &CongressCollector{
		Store: store,
		Source: func() ([]CongressRecord, error) {
			return []CongressRecord{
				{Ticker: "NVDA", Transaction: "purchase", Range: "$100,001 - $250,000", TransactionDate: "2026-01-20"},
				{Ticker: "NVDA", Transaction: "sale", Range: "$1,001 - $15,000", TransactionDate: "2026-01-21"},
			}, nil
		},
		Now: func() time.Time { return collectorRef },
		Log: zerolog.Nop(),
	}

	count, err := c.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var doc domain.CongressArtifact
	require.NoError(t, store.ReadInto(domain.ArtifactCongress, &doc))
	assert.Len(t, doc.Trades, 2)
	assert.Equal(t, 1, doc.Metadata.BuyCount)
	assert.Equal(t, 1, doc.Metadata.SellCount)
	assert.Equal(t, 2, doc.Metadata.TotalCount)
}
