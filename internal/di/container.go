// Package di provides dependency injection wiring and initialization.
package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/smartmoney/internal/backup"
	"github.com/aristath/smartmoney/internal/cache"
	"github.com/aristath/smartmoney/internal/collectors"
	"github.com/aristath/smartmoney/internal/columnar"
	"github.com/aristath/smartmoney/internal/config"
	"github.com/aristath/smartmoney/internal/darkpool"
	"github.com/aristath/smartmoney/internal/engine"
	"github.com/aristath/smartmoney/internal/fetch"
	"github.com/aristath/smartmoney/internal/normalize"
	"github.com/aristath/smartmoney/internal/pipeline"
	"github.com/aristath/smartmoney/internal/scheduler"
)

// Container holds all application dependencies.
//
// It is the single source of truth for service instances: created once by
// Wire() at startup, torn down by Close() on shutdown.
type Container struct {
	Config *config.Config

	// Stores
	CacheStore    *cache.Store    // Atomic JSON artifact store
	ColumnarDB    *columnar.DB    // Derived SQLite database
	ColumnarStore *columnar.Store // Flat query layer over the artifacts
	Watcher       *columnar.Watcher

	// Lookups
	TickerNames map[string]string // Ticker to company name, seeded from the CUSIP table

	// Collectors and engines
	Collectors []collectors.Collector
	V1         *engine.V1
	V2         *engine.V2
	V7         *engine.V7

	// Orchestration
	Pipeline  *pipeline.Pipeline
	Mirror    *backup.Mirror
	Scheduler *scheduler.Scheduler
}

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Stores (cache, columnar)
// 2. Collectors over the raw drop directory
// 3. Engines
// 4. Pipeline, mirror, scheduler
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	cacheStore, err := cache.New(filepath.Join(cfg.DataDir, "cache"), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache store: %w", err)
	}

	db, err := columnar.OpenDB(cfg.DatabasePath, columnar.ProfileDerived)
	if err != nil {
		return nil, fmt.Errorf("failed to open columnar database: %w", err)
	}
	colStore := columnar.New(db, cacheStore, log)
	watcher := columnar.NewWatcher(colStore, cfg.RefreshInterval)

	var sources collectors.SourceSet = collectors.FileSources{Dir: filepath.Join(cfg.DataDir, "raw")}
	if cfg.SourcesBaseURL != "" {
		client := fetch.NewClient(fetch.Config{
			RequestsPerMinute: cfg.FetchRPM,
			DailyLimit:        cfg.FetchDailyLimit,
			Timeout:           cfg.HTTPTimeout,
			UserAgent:         cfg.FetchUserAgent,
		}, log)
		sources = collectors.NewRemoteSources(ctx, cfg.SourcesBaseURL, client)
	}
	detector := &darkpool.Detector{}
	colls := []collectors.Collector{
		collectors.NewCongressCollector(cacheStore, sources.Congress, log),
		collectors.NewArkCollector(cacheStore, sources.Ark, cfg.DataDir, log),
		collectors.NewDarkPoolCollector(cacheStore, sources.DarkPool, detector, log),
		collectors.NewInstitutionsCollector(cacheStore, sources.Institutions, log),
		collectors.NewInsidersCollector(cacheStore, sources.Insiders, log),
		collectors.NewShortInterestCollector(cacheStore, sources.ShortInterest, nil, log),
		collectors.NewSuperinvestorsCollector(cacheStore, sources.Superinvestors, log),
	}

	v2 := engine.NewV2(log)
	v7 := engine.NewV7(log)

	mirror, err := backup.NewMirror(ctx, cacheStore, cfg.BackupBucket, cfg.BackupPrefix, cfg.AWSRegion, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize S3 mirror: %w", err)
	}

	pipe := pipeline.New(cacheStore, colls, v2, v7, colStore, mirror, log)

	sched := scheduler.New(log)
	if err := scheduler.Register(sched, ctx, pipe); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register scheduler jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return &Container{
		Config:        cfg,
		CacheStore:    cacheStore,
		ColumnarDB:    db,
		ColumnarStore: colStore,
		Watcher:       watcher,
		TickerNames:   normalize.TickerNames(),
		Collectors:    colls,
		V1:            engine.NewV1(),
		V2:            v2,
		V7:            v7,
		Pipeline:      pipe,
		Mirror:        mirror,
		Scheduler:     sched,
	}, nil
}

// Close tears the container down in reverse construction order.
func (c *Container) Close() {
	if c.Watcher != nil {
		c.Watcher.Stop()
	}
	if c.ColumnarDB != nil {
		c.ColumnarDB.Close()
	}
}
