// Package pipeline orchestrates the refresh cycle: collectors first, then the
// conviction and confluence engines, then the derived stores and the optional
// S3 mirror.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/smartmoney/internal/backup"
	"github.com/aristath/smartmoney/internal/cache"
	"github.com/aristath/smartmoney/internal/collectors"
	"github.com/aristath/smartmoney/internal/columnar"
	"github.com/aristath/smartmoney/internal/domain"
	"github.com/aristath/smartmoney/internal/engine"
)

// refreshLogMaxRows bounds the append-only refresh log artifact.
const refreshLogMaxRows = 1000

// ErrPartialFailure reports that some, but not all, collectors failed during
// a full refresh.
var ErrPartialFailure = errors.New("some sources failed to refresh")

// Pipeline wires the collectors and engines together.
type Pipeline struct {
	Store      *cache.Store
	Collectors map[string]collectors.Collector
	V2         *engine.V2
	V7         *engine.V7
	Columnar   *columnar.Store
	Mirror     *backup.Mirror
	Now        func() time.Time
	log        zerolog.Logger
}

// New builds a pipeline over the given collectors.
func New(store *cache.Store, colls []collectors.Collector, v2 *engine.V2, v7 *engine.V7, col *columnar.Store, mirror *backup.Mirror, log zerolog.Logger) *Pipeline {
	byName := make(map[string]collectors.Collector, len(colls))
	for _, c := range colls {
		byName[c.Name()] = c
	}
	return &Pipeline{
		Store:      store,
		Collectors: byName,
		V2:         v2,
		V7:         v7,
		Columnar:   col,
		Mirror:     mirror,
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// RefreshSource runs one collector, logging the outcome to the refresh log.
func (p *Pipeline) RefreshSource(source string) (int, error) {
	c, ok := p.Collectors[source]
	if !ok {
		return 0, fmt.Errorf("unknown source %q", source)
	}
	runID := uuid.NewString()
	return p.runCollector(runID, c)
}

// RefreshAll runs every collector, rebuilds the rankings and derived stores,
// and mirrors the artifacts. Individual collector failures do not stop the
// pass; they surface as ErrPartialFailure.
func (p *Pipeline) RefreshAll(ctx context.Context) error {
	runID := uuid.NewString()
	failed := 0
	for _, source := range domain.AllSources {
		c, ok := p.Collectors[source]
		if !ok {
			continue
		}
		if _, err := p.runCollector(runID, c); err != nil {
			failed++
		}
	}

	if err := p.Rank(); err != nil {
		p.log.Error().Err(err).Msg("Ranking pass failed")
		failed++
	}

	// Derived stores and the mirror are best-effort: the artifacts are
	// already on disk.
	if p.Columnar != nil {
		if _, err := p.Columnar.RefreshAll(); err != nil {
			p.log.Warn().Err(err).Msg("Columnar refresh failed")
		}
	}
	p.Mirror.Sync(ctx)

	if failed > 0 {
		return fmt.Errorf("%w: %d failures", ErrPartialFailure, failed)
	}
	return nil
}

// Rank rebuilds ranking_v2.json and ranking_v3.json from the current
// artifacts.
func (p *Pipeline) Rank() error {
	in, err := LoadInputs(p.Store)
	if err != nil {
		return err
	}
	now := p.now()

	v2Ranking := p.V2.Rank(in)
	if err := p.Store.Write(domain.ArtifactRankingV2, domain.RankingArtifact{
		Signals:  v2Ranking,
		Metadata: domain.NewMetadata(len(v2Ranking), now),
	}); err != nil {
		return fmt.Errorf("failed to write v2 ranking: %w", err)
	}

	v7Ranking := p.V7.Rank(v2Ranking, in, 0)
	if err := p.Store.Write(domain.ArtifactRankingV3, domain.RankingArtifact{
		Signals:  v7Ranking,
		Metadata: domain.NewMetadata(len(v7Ranking), now),
	}); err != nil {
		return fmt.Errorf("failed to write v7 ranking: %w", err)
	}

	p.log.Info().Int("v2", len(v2Ranking)).Int("v7", len(v7Ranking)).Msg("Rankings rebuilt")
	return nil
}

// runCollector executes one collector and appends its refresh log row.
func (p *Pipeline) runCollector(runID string, c collectors.Collector) (int, error) {
	start := p.now()
	count, err := c.Run()
	elapsed := time.Since(start)

	row := domain.RefreshLog{
		RunID:        runID,
		Source:       c.Name(),
		Status:       "success",
		RecordsCount: count,
		DurationMS:   elapsed.Milliseconds(),
		Timestamp:    start.UTC().Format(time.RFC3339),
	}
	if err != nil {
		row.Status = "failed"
		row.ErrorMsg = err.Error()
		p.log.Error().Str("source", c.Name()).Err(err).Msg("Source refresh failed")
	} else {
		p.log.Info().Str("source", c.Name()).Int("records", count).Dur("elapsed", elapsed).Msg("Source refreshed")
	}
	p.appendRefreshLog(row)
	return count, err
}

// appendRefreshLog appends one row to the refresh log artifact, trimming the
// oldest rows past the retention bound. Logging failures are not fatal.
func (p *Pipeline) appendRefreshLog(row domain.RefreshLog) {
	var doc domain.RefreshLogArtifact
	if p.Store.Exists(domain.ArtifactRefreshLog) {
		if err := p.Store.ReadInto(domain.ArtifactRefreshLog, &doc); err != nil {
			p.log.Warn().Err(err).Msg("Refresh log unreadable, starting fresh")
			doc = domain.RefreshLogArtifact{}
		}
	}
	doc.Rows = append(doc.Rows, row)
	if len(doc.Rows) > refreshLogMaxRows {
		doc.Rows = doc.Rows[len(doc.Rows)-refreshLogMaxRows:]
	}
	doc.Metadata = domain.NewMetadata(len(doc.Rows), p.now())
	if err := p.Store.Write(domain.ArtifactRefreshLog, doc); err != nil {
		p.log.Warn().Err(err).Msg("Failed to write refresh log")
	}
}

// LoadInputs reads every scored artifact into engine inputs. Missing
// artifacts leave their slice nil; malformed ones are an error.
func LoadInputs(store *cache.Store) (engine.Inputs, error) {
	var in engine.Inputs

	if store.Exists(domain.ArtifactCongress) {
		var doc domain.CongressArtifact
		if err := store.ReadInto(domain.ArtifactCongress, &doc); err != nil {
			return in, err
		}
		in.Congress = doc.Trades
	}
	if store.Exists(domain.ArtifactArkTrades) {
		var doc domain.ArkTradesArtifact
		if err := store.ReadInto(domain.ArtifactArkTrades, &doc); err != nil {
			return in, err
		}
		in.ArkTrades = doc.Trades
	}
	if store.Exists(domain.ArtifactArkHoldings) {
		var doc domain.ArkHoldingsArtifact
		if err := store.ReadInto(domain.ArtifactArkHoldings, &doc); err != nil {
			return in, err
		}
		in.ArkHoldings = doc.Holdings
	}
	if store.Exists(domain.ArtifactDarkPool) {
		var doc domain.DarkPoolArtifact
		if err := store.ReadInto(domain.ArtifactDarkPool, &doc); err != nil {
			return in, err
		}
		in.DarkPool = doc.Tickers
	}
	if store.Exists(domain.ArtifactInstitutions) {
		var doc domain.InstitutionsArtifact
		if err := store.ReadInto(domain.ArtifactInstitutions, &doc); err != nil {
			return in, err
		}
		in.Institutions = doc.Filings
	}
	if store.Exists(domain.ArtifactInsiders) {
		var doc domain.InsidersArtifact
		if err := store.ReadInto(domain.ArtifactInsiders, &doc); err != nil {
			return in, err
		}
		in.InsiderTrades = doc.Trades
		in.InsiderClusters = doc.Clusters
	}
	if store.Exists(domain.ArtifactShortInterest) {
		var doc domain.ShortInterestArtifact
		if err := store.ReadInto(domain.ArtifactShortInterest, &doc); err != nil {
			return in, err
		}
		in.ShortInterest = doc.Tickers
	}
	if store.Exists(domain.ArtifactSuperinvestor) {
		var doc domain.SuperinvestorArtifact
		if err := store.ReadInto(domain.ArtifactSuperinvestor, &doc); err != nil {
			return in, err
		}
		in.Superinvestors = doc.Activity
	}
	return in, nil
}
