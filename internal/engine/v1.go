package engine

import (
	"sort"
	"time"

	"github.com/aristath/smartmoney/internal/domain"
	"github.com/aristath/smartmoney/internal/normalize"
)

// V1 is the original PRD formula engine, kept as a backward-compatible check
// against the V2/V7 pipeline. It scores on a 0-10 scale from the three
// original sources (congress, ARK, dark pool) with a flat confluence
// multiplier. V7 is the authoritative ranker.
type V1 struct {
	Now func() time.Time
}

// V1 source weights on the 0-10 scale.
var v1Weights = map[string]float64{
	domain.SourceCongress: 0.40,
	domain.SourceDarkPool: 0.35,
	domain.SourceArk:      0.25,
}

// NewV1 creates the formula engine.
func NewV1() *V1 {
	return &V1{Now: time.Now}
}

// V1Score is one scored ticker on the 0-10 scale.
type V1Score struct {
	Ticker      string             `json:"ticker"`
	Score       float64            `json:"score"`
	SourceCount int                `json:"source_count"`
	Sources     []string           `json:"sources"`
	Strengths   map[string]float64 `json:"strengths"`
}

// Rank scores every ticker seen by at least one of the three V1 sources.
func (e *V1) Rank(in Inputs) []V1Score {
	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}

	strengths := map[string]map[string]float64{}
	put := func(rawTicker, source string, strength float64) {
		ticker, ok := domain.NormalizeTicker(rawTicker)
		if !ok || strength <= 0 {
			return
		}
		m := strengths[ticker]
		if m == nil {
			m = map[string]float64{}
			strengths[ticker] = m
		}
		if strength > m[source] {
			m[source] = strength
		}
	}

	for _, t := range in.Congress {
		if t.TradeType != "Buy" {
			continue
		}
		put(t.Ticker, domain.SourceCongress, v1CongressStrength(t, now))
	}
	for _, t := range in.ArkTrades {
		if t.TradeType != "Buy" {
			continue
		}
		put(t.Ticker, domain.SourceArk, v1ArkStrength(t, now))
	}
	for _, entry := range in.DarkPool {
		if entry.ZScore < domain.AnomalyMinZ {
			continue
		}
		put(entry.Ticker, domain.SourceDarkPool, v1DarkpoolStrength(entry, now))
	}

	var scores []V1Score
	for ticker, bySource := range strengths {
		var weighted float64
		var sources []string
		for source, strength := range bySource {
			weighted += v1Weights[source] * strength
			sources = append(sources, source)
		}
		sort.Strings(sources)

		multiplier := 1 + 0.2*float64(len(sources)-1)
		score := round2(clamp(weighted*multiplier, 0, 10))

		rounded := make(map[string]float64, len(bySource))
		for source, strength := range bySource {
			rounded[source] = round2(strength)
		}
		scores = append(scores, V1Score{
			Ticker:      ticker,
			Score:       score,
			SourceCount: len(sources),
			Sources:     sources,
			Strengths:   rounded,
		})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		if scores[i].SourceCount != scores[j].SourceCount {
			return scores[i].SourceCount > scores[j].SourceCount
		}
		return scores[i].Ticker < scores[j].Ticker
	})
	return scores
}

// v1CongressStrength: amount tier on 0-10 plus a capped excess-return bonus,
// decayed at a 14 day half-life.
func v1CongressStrength(t domain.LegislatorTrade, now time.Time) float64 {
	amount := normalize.AmountFromRange(t.AmountRange, t.AmountMax)
	var tier float64
	switch {
	case amount >= 5_000_000:
		tier = 10
	case amount >= 1_000_000:
		tier = 9
	case amount >= 500_000:
		tier = 8
	case amount >= 250_000:
		tier = 7
	case amount >= 100_000:
		tier = 6
	case amount >= 50_000:
		tier = 5
	case amount >= 15_000:
		tier = 4
	default:
		tier = 3
	}
	if t.ExcessReturnPct != nil && *t.ExcessReturnPct > 0 {
		tier += clamp(*t.ExcessReturnPct*0.25, 0, 2.0)
	}
	return tier * RecencyDecay(DaysAgo(t.TransactionDate, now), 14)
}

// v1ArkStrength: 3 points per fund (single trade row sees one fund), +1 for a
// new position, +1 for weight above 2%, decayed at a 14 day half-life.
func v1ArkStrength(t domain.ArkTrade, now time.Time) float64 {
	strength := 3.0
	if t.ChangeType == "NEW_POSITION" {
		strength++
	}
	if t.WeightPct != nil && *t.WeightPct > 2 {
		strength++
	}
	return clamp(strength, 0, 10) * RecencyDecay(DaysAgo(t.Date, now), 14)
}

// v1DarkpoolStrength: z on a 2.8x slope capped at 10, +1 for DPI >= 0.6,
// +0.5 for 10M+ volume, decayed at a 7 day half-life.
func v1DarkpoolStrength(entry domain.DarkPoolEntry, now time.Time) float64 {
	strength := clamp(entry.ZScore*2.8, 0, 10)
	if entry.DPI >= 0.6 {
		strength++
	}
	if entry.TotalVolume >= 10_000_000 {
		strength += 0.5
	}
	return strength * RecencyDecay(DaysAgo(entry.Date, now), 7)
}
