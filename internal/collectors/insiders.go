package collectors

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/smartmoney/internal/cache"
	"github.com/aristath/smartmoney/internal/domain"
)

// InsidersInput is the collaborator-provided raw input: trades plus optional
// pre-computed clusters. When Clusters is nil the collector derives them.
type InsidersInput struct {
	Trades   []domain.InsiderTrade
	Clusters []domain.InsiderCluster
}

// InsidersCollector normalizes insider transactions and derives buy clusters.
type InsidersCollector struct {
	Store  *cache.Store
	Source func() (InsidersInput, error)
	Now    func() time.Time
	Log    zerolog.Logger
}

// NewInsidersCollector builds the collector.
func NewInsidersCollector(store *cache.Store, source func() (InsidersInput, error), log zerolog.Logger) *InsidersCollector {
	return &InsidersCollector{
		Store:  store,
		Source: source,
		Log:    log.With().Str("collector", domain.SourceInsider).Logger(),
	}
}

// Name returns the source identifier.
func (c *InsidersCollector) Name() string { return domain.SourceInsider }

// Run normalizes the feed and writes insiders.json.
func (c *InsidersCollector) Run() (int, error) {
	now := clock(c.Now)

	input, err := c.Source()
	if err != nil {
		c.Log.Error().Err(err).Msg("Failed to read insiders source")
		c.writeEmpty(now, err)
		return 0, fetchErr(err)
	}

	trades := make([]domain.InsiderTrade, 0, len(input.Trades))
	for _, t := range input.Trades {
		ticker, ok := domain.NormalizeTicker(t.Ticker)
		if !ok || t.Value < 0 {
			continue
		}
		t.Ticker = ticker
		trades = append(trades, t)
	}
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].TradeDate != trades[j].TradeDate {
			return trades[i].TradeDate > trades[j].TradeDate
		}
		return trades[i].Ticker < trades[j].Ticker
	})

	clusters := input.Clusters
	if clusters == nil {
		clusters = DetectClusters(trades)
	}

	md := domain.NewMetadata(len(trades), now)
	md.ClusterCount = len(clusters)
	artifact := domain.InsidersArtifact{
		Trades:   trades,
		Clusters: clusters,
		Metadata: md,
	}
	if err := c.Store.Write(domain.ArtifactInsiders, artifact); err != nil {
		return 0, parseErr(fmt.Errorf("failed to write insiders artifact: %w", err))
	}
	c.Log.Info().Int("trades", len(trades)).Int("clusters", len(clusters)).Msg("Insiders artifact refreshed")
	return len(trades), nil
}

// DetectClusters groups insider buys per ticker inside a rolling 14 day
// window and emits a cluster whenever 3 or more distinct insiders bought.
func DetectClusters(trades []domain.InsiderTrade) []domain.InsiderCluster {
	type buy struct {
		date    time.Time
		dateStr string
		insider string
		value   float64
	}
	buysByTicker := map[string][]buy{}
	for _, t := range trades {
		if t.TransactionType != "Buy" || t.Value < domain.MinInsiderValue {
			continue
		}
		date, err := time.Parse("2006-01-02", t.TradeDate)
		if err != nil {
			continue
		}
		buysByTicker[t.Ticker] = append(buysByTicker[t.Ticker], buy{
			date:    date,
			dateStr: t.TradeDate,
			insider: t.InsiderName,
			value:   t.Value,
		})
	}

	var clusters []domain.InsiderCluster
	for ticker, buys := range buysByTicker {
		sort.Slice(buys, func(i, j int) bool { return buys[i].date.Before(buys[j].date) })

		// Slide a window anchored at each buy; keep the densest qualifying
		// window per ticker.
		var best *domain.InsiderCluster
		for start := range buys {
			insiders := map[string]bool{}
			total := 0.0
			last := start
			for end := start; end < len(buys); end++ {
				if buys[end].date.Sub(buys[start].date) > domain.ClusterWindowDays*24*time.Hour {
					break
				}
				insiders[buys[end].insider] = true
				total += buys[end].value
				last = end
			}
			if len(insiders) < domain.ClusterMinInsiders {
				continue
			}
			names := make([]string, 0, len(insiders))
			for name := range insiders {
				names = append(names, name)
			}
			sort.Strings(names)
			candidate := domain.InsiderCluster{
				Ticker:       ticker,
				InsiderCount: len(insiders),
				TotalValue:   total,
				Insiders:     names,
				FirstDate:    buys[start].dateStr,
				LastDate:     buys[last].dateStr,
			}
			if best == nil || candidate.InsiderCount > best.InsiderCount ||
				(candidate.InsiderCount == best.InsiderCount && candidate.TotalValue > best.TotalValue) {
				c := candidate
				best = &c
			}
		}
		if best != nil {
			clusters = append(clusters, *best)
		}
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].InsiderCount != clusters[j].InsiderCount {
			return clusters[i].InsiderCount > clusters[j].InsiderCount
		}
		return clusters[i].Ticker < clusters[j].Ticker
	})
	return clusters
}

func (c *InsidersCollector) writeEmpty(now time.Time, cause error) {
	artifact := domain.InsidersArtifact{
		Trades:   []domain.InsiderTrade{},
		Clusters: []domain.InsiderCluster{},
		Metadata: emptyMetadata(now, cause.Error()),
	}
	if err := c.Store.Write(domain.ArtifactInsiders, artifact); err != nil {
		c.Log.Error().Err(err).Msg("Failed to write empty insiders artifact")
	}
}
