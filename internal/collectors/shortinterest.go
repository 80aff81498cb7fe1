package collectors

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/smartmoney/internal/cache"
	"github.com/aristath/smartmoney/internal/domain"
)

// Float enrichment budget: the top names by short interest plus a priority
// list of widely-followed tickers.
const (
	floatEnrichTop   = 80
	floatEnrichTotal = 150
)

// priorityFloatTickers always get float enrichment when present, regardless
// of their short-interest rank.
var priorityFloatTickers = []string{
	"AAPL", "MSFT", "AMZN", "GOOGL", "META", "TSLA", "NVDA", "AMD", "NFLX",
	"GME", "AMC", "BBBY", "PLTR", "COIN", "RIVN", "LCID", "SOFI", "HOOD",
	"F", "T", "BAC", "INTC", "NIO", "SNAP", "UBER",
}

// ShortInterestCollector normalizes bi-monthly short interest settlements and
// enriches the largest positions with float data.
type ShortInterestCollector struct {
	Store  *cache.Store
	Source func() ([]domain.ShortInterestRow, error)
	// FloatLookup resolves shares outstanding float for a ticker. Nil
	// disables enrichment.
	FloatLookup func(ticker string) (float64, bool)
	Now         func() time.Time
	Log         zerolog.Logger
}

// NewShortInterestCollector builds the collector.
func NewShortInterestCollector(store *cache.Store, source func() ([]domain.ShortInterestRow, error), floatLookup func(string) (float64, bool), log zerolog.Logger) *ShortInterestCollector {
	return &ShortInterestCollector{
		Store:       store,
		Source:      source,
		FloatLookup: floatLookup,
		Log:         log.With().Str("collector", domain.SourceShortInterest).Logger(),
	}
}

// Name returns the source identifier.
func (c *ShortInterestCollector) Name() string { return domain.SourceShortInterest }

// Run filters, enriches and writes short_interest.json.
func (c *ShortInterestCollector) Run() (int, error) {
	now := clock(c.Now)

	raw, err := c.Source()
	if err != nil {
		c.Log.Error().Err(err).Msg("Failed to read short interest source")
		c.writeEmpty(now, err)
		return 0, fetchErr(err)
	}

	rows := FilterShortInterest(raw)
	c.enrichFloat(rows)

	artifact := domain.ShortInterestArtifact{
		Tickers:  rows,
		Metadata: domain.NewMetadata(len(rows), now),
	}
	if err := c.Store.Write(domain.ArtifactShortInterest, artifact); err != nil {
		return 0, parseErr(fmt.Errorf("failed to write short interest artifact: %w", err))
	}
	c.Log.Info().Int("tickers", len(rows)).Msg("Short interest artifact refreshed")
	return len(rows), nil
}

// FilterShortInterest drops sub-threshold positions and non-equity symbols,
// recomputes change_pct when a prior value is present, and sorts by short
// interest descending.
func FilterShortInterest(raw []domain.ShortInterestRow) []domain.ShortInterestRow {
	rows := make([]domain.ShortInterestRow, 0, len(raw))
	for _, r := range raw {
		// NormalizeTicker already rejects warrants/units markers (+ = ^) and
		// over-long symbols.
		ticker, ok := domain.NormalizeTicker(r.Ticker)
		if !ok {
			continue
		}
		if r.ShortInterest < domain.MinShortInterest {
			continue
		}
		r.Ticker = ticker
		if r.ChangePct == 0 && r.PriorShortInterest > 0 {
			r.ChangePct = float64(r.ShortInterest-r.PriorShortInterest) / float64(r.PriorShortInterest) * 100
		}
		if r.DaysToCover == 0 && r.AvgDailyVolume > 0 {
			r.DaysToCover = float64(r.ShortInterest) / float64(r.AvgDailyVolume)
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ShortInterest != rows[j].ShortInterest {
			return rows[i].ShortInterest > rows[j].ShortInterest
		}
		return rows[i].Ticker < rows[j].Ticker
	})
	return rows
}

// enrichFloat computes short_pct_float for the enrichment set: the top rows
// by short interest plus the priority names, capped at the total budget.
func (c *ShortInterestCollector) enrichFloat(rows []domain.ShortInterestRow) {
	if c.FloatLookup == nil {
		return
	}
	priority := map[string]bool{}
	for _, t := range priorityFloatTickers {
		priority[t] = true
	}

	enriched := 0
	for i := range rows {
		if enriched >= floatEnrichTotal {
			break
		}
		if i >= floatEnrichTop && !priority[rows[i].Ticker] {
			continue
		}
		floatShares, ok := c.FloatLookup(rows[i].Ticker)
		if !ok || floatShares <= 0 {
			continue
		}
		pct := float64(rows[i].ShortInterest) / floatShares * 100
		rows[i].ShortPctFloat = &pct
		enriched++
	}
}

func (c *ShortInterestCollector) writeEmpty(now time.Time, cause error) {
	artifact := domain.ShortInterestArtifact{
		Tickers:  []domain.ShortInterestRow{},
		Metadata: emptyMetadata(now, cause.Error()),
	}
	if err := c.Store.Write(domain.ArtifactShortInterest, artifact); err != nil {
		c.Log.Error().Err(err).Msg("Failed to write empty short interest artifact")
	}
}
