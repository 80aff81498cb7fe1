package collectors

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/smartmoney/internal/cache"
	"github.com/aristath/smartmoney/internal/domain"
	"github.com/aristath/smartmoney/internal/normalize"
)

// Thresholds for detecting position changes between daily snapshots, as a
// percentage of the prior share count.
const (
	arkIncreaseThresholdPct = 1.0
	arkDecreaseThresholdPct = -1.0
)

// ArkSnapshot is one day's holdings for a single ETF, as provided by the
// fetcher (CSV already parsed into rows).
type ArkSnapshot struct {
	ETF      string
	Date     string
	Holdings []domain.ArkHolding
}

// arkState is the persisted previous snapshot per ETF, stored as msgpack next
// to the cache (local collector state, not a shared artifact).
type arkState struct {
	Snapshots map[string]ArkSnapshot `msgpack:"snapshots"`
}

// ArkCollector diffs daily ARK ETF snapshots into a normalized trade log.
type ArkCollector struct {
	Store *cache.Store
	// Source provides today's snapshot per ETF.
	Source    func() ([]ArkSnapshot, error)
	Now       func() time.Time
	Log       zerolog.Logger
	StatePath string
	// ChangeLogPath receives the JSONL append-only change log.
	ChangeLogPath string
}

// NewArkCollector builds a collector with state files under stateDir.
func NewArkCollector(store *cache.Store, source func() ([]ArkSnapshot, error), stateDir string, log zerolog.Logger) *ArkCollector {
	return &ArkCollector{
		Store:         store,
		Source:        source,
		Log:           log.With().Str("collector", domain.SourceArk).Logger(),
		StatePath:     filepath.Join(stateDir, "ark_state.msgpack"),
		ChangeLogPath: filepath.Join(stateDir, "ark_changes.jsonl"),
	}
}

// Name returns the source identifier.
func (c *ArkCollector) Name() string { return domain.SourceArk }

// Run diffs today's snapshots against the persisted previous ones, emits the
// trades and holdings artifacts, appends the change log and saves state.
func (c *ArkCollector) Run() (int, error) {
	now := clock(c.Now)

	snapshots, err := c.Source()
	if err != nil {
		c.Log.Error().Err(err).Msg("Failed to read ARK snapshots")
		c.writeEmpty(now, err)
		return 0, fetchErr(err)
	}

	prev := c.loadState()
	var trades []domain.ArkTrade
	var holdings []domain.ArkHolding

	for _, snap := range snapshots {
		prevSnap, hasPrev := prev.Snapshots[snap.ETF]
		if hasPrev {
			trades = append(trades, DiffSnapshots(prevSnap, snap)...)
		}
		prev.Snapshots[snap.ETF] = snap
		holdings = append(holdings, snap.Holdings...)
	}

	sort.Slice(trades, func(i, j int) bool {
		if trades[i].Ticker != trades[j].Ticker {
			return trades[i].Ticker < trades[j].Ticker
		}
		return trades[i].ETF < trades[j].ETF
	})

	tradesArtifact := domain.ArkTradesArtifact{
		Trades:   trades,
		Metadata: domain.NewMetadata(len(trades), now),
	}
	holdingsArtifact := domain.ArkHoldingsArtifact{
		Holdings: holdings,
		Metadata: domain.NewMetadata(len(holdings), now),
	}
	if err := c.Store.Write(domain.ArtifactArkTrades, tradesArtifact); err != nil {
		return 0, parseErr(fmt.Errorf("failed to write ARK trades artifact: %w", err))
	}
	if err := c.Store.Write(domain.ArtifactArkHoldings, holdingsArtifact); err != nil {
		return 0, parseErr(fmt.Errorf("failed to write ARK holdings artifact: %w", err))
	}

	c.appendChangeLog(trades)
	c.saveState(prev)

	c.Log.Info().Int("trades", len(trades)).Int("holdings", len(holdings)).Msg("ARK artifacts refreshed")
	return len(trades), nil
}

// DiffSnapshots compares two snapshots of one ETF and emits the detected
// position changes: new positions, sold-out positions, and share count moves
// beyond the 1% thresholds.
func DiffSnapshots(prev, curr ArkSnapshot) []domain.ArkTrade {
	prevByTicker := map[string]domain.ArkHolding{}
	for _, h := range prev.Holdings {
		if ticker, ok := domain.NormalizeTicker(h.Ticker); ok {
			prevByTicker[ticker] = h
		}
	}

	var trades []domain.ArkTrade
	seen := map[string]bool{}
	for _, h := range curr.Holdings {
		ticker, ok := domain.NormalizeTicker(h.Ticker)
		if !ok {
			continue
		}
		seen[ticker] = true
		weight := h.WeightPct

		prevHolding, existed := prevByTicker[ticker]
		changeType := ""
		shares := h.Shares
		switch {
		case !existed:
			changeType = "NEW_POSITION"
		case prevHolding.Shares > 0:
			changePct := (h.Shares - prevHolding.Shares) / prevHolding.Shares * 100
			if changePct >= arkIncreaseThresholdPct {
				changeType = "INCREASED"
				shares = h.Shares - prevHolding.Shares
			} else if changePct <= arkDecreaseThresholdPct {
				changeType = "DECREASED"
				shares = prevHolding.Shares - h.Shares
			}
		}
		if changeType == "" {
			continue
		}
		w := weight
		trades = append(trades, domain.ArkTrade{
			Ticker:     ticker,
			Company:    h.Company,
			ETF:        curr.ETF,
			TradeType:  normalize.ArkChangeToTradeType(changeType),
			Date:       curr.Date,
			Shares:     shares,
			WeightPct:  &w,
			ChangeType: changeType,
		})
	}

	for _, h := range prev.Holdings {
		ticker, ok := domain.NormalizeTicker(h.Ticker)
		if !ok || seen[ticker] {
			continue
		}
		trades = append(trades, domain.ArkTrade{
			Ticker:     ticker,
			Company:    h.Company,
			ETF:        curr.ETF,
			TradeType:  "Sell",
			Date:       curr.Date,
			Shares:     h.Shares,
			ChangeType: "SOLD_OUT",
		})
	}
	return trades
}

func (c *ArkCollector) loadState() arkState {
	state := arkState{Snapshots: map[string]ArkSnapshot{}}
	data, err := os.ReadFile(c.StatePath)
	if err != nil {
		return state
	}
	if err := msgpack.Unmarshal(data, &state); err != nil {
		c.Log.Warn().Err(err).Msg("Failed to decode ARK state, starting fresh")
		return arkState{Snapshots: map[string]ArkSnapshot{}}
	}
	if state.Snapshots == nil {
		state.Snapshots = map[string]ArkSnapshot{}
	}
	return state
}

func (c *ArkCollector) saveState(state arkState) {
	data, err := msgpack.Marshal(state)
	if err != nil {
		c.Log.Error().Err(err).Msg("Failed to encode ARK state")
		return
	}
	tmp := c.StatePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		c.Log.Error().Err(err).Msg("Failed to write ARK state")
		return
	}
	if err := os.Rename(tmp, c.StatePath); err != nil {
		os.Remove(tmp)
		c.Log.Error().Err(err).Msg("Failed to replace ARK state")
	}
}

// appendChangeLog appends one JSON line per detected change. The change log is
// an audit trail and is never rewritten.
func (c *ArkCollector) appendChangeLog(trades []domain.ArkTrade) {
	if len(trades) == 0 || c.ChangeLogPath == "" {
		return
	}
	f, err := os.OpenFile(c.ChangeLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		c.Log.Error().Err(err).Msg("Failed to open ARK change log")
		return
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, t := range trades {
		if err := enc.Encode(t); err != nil {
			c.Log.Error().Err(err).Msg("Failed to append ARK change log entry")
			return
		}
	}
}

func (c *ArkCollector) writeEmpty(now time.Time, cause error) {
	artifact := domain.ArkTradesArtifact{
		Trades:   []domain.ArkTrade{},
		Metadata: emptyMetadata(now, cause.Error()),
	}
	if err := c.Store.Write(domain.ArtifactArkTrades, artifact); err != nil {
		c.Log.Error().Err(err).Msg("Failed to write empty ARK artifact")
	}
}
