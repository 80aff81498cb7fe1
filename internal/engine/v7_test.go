package engine

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/smartmoney/internal/domain"
)

func TestV7SingleNeutralSourceCapped(t *testing.T) {
	e := NewV7(zerolog.Nop())

	v2Ranking := []domain.RankedTicker{
		{
			Ticker:      "XYZ",
			Sources:     []string{domain.SourceDarkPool},
			SourceCount: 1,
			Convictions: map[string]float64{domain.SourceDarkPool: 80},
		},
	}

	ranked := e.Rank(v2Ranking, Inputs{}, 0)
	assert.Len(t, ranked, 1)

	r := ranked[0]
	// A lone non-directional source: discounted base 48 hits the single-source
	// cap of 45 and the direction stays undetermined.
	assert.Equal(t, 45.0, r.Score)
	assert.Equal(t, domain.DirectionNone, r.Direction)
	assert.NotNil(t, r.V7)
	assert.Equal(t, 45.0, r.V7.Cap)
	assert.Equal(t, 0, r.V7.AlignedActive)
	assert.Equal(t, 1, r.V7.TotalSources)
}

func TestV7OpposingSourceLowersScore(t *testing.T) {
	e := NewV7(zerolog.Nop())

	withOpposition := []domain.RankedTicker{
		{
			Ticker:      "TICK",
			Sources:     []string{domain.SourceArk, domain.SourceInsider, domain.SourceInstitution},
			SourceCount: 3,
			Convictions: map[string]float64{
				domain.SourceArk:         60,
				domain.SourceInsider:     50,
				domain.SourceInstitution: 40,
			},
		},
	}
	inWith := Inputs{
		ArkTrades:     []domain.ArkTrade{{Ticker: "TICK", ETF: "ARKK", TradeType: "Buy", Date: "2026-01-20"}},
		InsiderTrades: []domain.InsiderTrade{{Ticker: "TICK", InsiderName: "X", TransactionType: "Sell", TradeDate: "2026-01-21", Value: 500_000}},
	}

	withoutOpposition := []domain.RankedTicker{
		{
			Ticker:      "TICK",
			Sources:     []string{domain.SourceArk, domain.SourceInstitution},
			SourceCount: 2,
			Convictions: map[string]float64{
				domain.SourceArk:         60,
				domain.SourceInstitution: 40,
			},
		},
	}
	inWithout := Inputs{
		ArkTrades: []domain.ArkTrade{{Ticker: "TICK", ETF: "ARKK", TradeType: "Buy", Date: "2026-01-20"}},
	}

	scoreWith := e.Rank(withOpposition, inWith, 0)[0].Score
	scoreWithout := e.Rank(withoutOpposition, inWithout, 0)[0].Score

	assert.InDelta(t, 37.8, scoreWith, 0.05)
	assert.InDelta(t, 49.2, scoreWithout, 0.05)
	assert.Less(t, scoreWith, scoreWithout)
}

func TestV7AlignedSourceNeverLowersScore(t *testing.T) {
	e := NewV7(zerolog.Nop())

	in := Inputs{
		ArkTrades: []domain.ArkTrade{{Ticker: "GRW", ETF: "ARKK", TradeType: "Buy", Date: "2026-01-20"}},
		Congress:  []domain.LegislatorTrade{{Ticker: "GRW", TradeType: "Buy", TransactionDate: "2026-01-19"}},
	}

	single := []domain.RankedTicker{
		{
			Ticker:      "GRW",
			Sources:     []string{domain.SourceArk},
			SourceCount: 1,
			Convictions: map[string]float64{domain.SourceArk: 60},
		},
	}
	double := []domain.RankedTicker{
		{
			Ticker:      "GRW",
			Sources:     []string{domain.SourceArk, domain.SourceCongress},
			SourceCount: 2,
			Convictions: map[string]float64{
				domain.SourceArk:      60,
				domain.SourceCongress: 50,
			},
		},
	}

	singleScore := e.Rank(single, in, 0)[0].Score
	doubleScore := e.Rank(double, in, 0)[0].Score
	assert.GreaterOrEqual(t, doubleScore, singleScore)

	r := e.Rank(double, in, 0)[0]
	assert.Equal(t, domain.DirectionBullish, r.Direction)
	assert.Equal(t, 2, r.V7.AlignedActive)
	assert.Equal(t, 6.0, r.V7.DirectionBonus)
}

func TestV7FullPipelineFromV2(t *testing.T) {
	v2 := NewV2(zerolog.Nop())
	v2.Now = fixedClock(refDate)
	v7 := NewV7(zerolog.Nop())

	in := Inputs{
		Congress: []domain.LegislatorTrade{
			{Ticker: "NVDA", Politician: "Jane Doe", TradeType: "Buy", TransactionDate: "2026-01-20", AmountRange: "$100,001 - $250,000", ExcessReturnPct: fptr(5.2)},
		},
		ArkTrades: []domain.ArkTrade{
			{Ticker: "NVDA", ETF: "ARKK", TradeType: "Buy", Date: "2026-01-24", WeightPct: fptr(2.3), ChangeType: "INCREASED"},
		},
		DarkPool: []domain.DarkPoolEntry{
			{Ticker: "NVDA", Date: "2026-01-25", DPI: 0.67, ZScore: 2.8, TotalVolume: 45_000_000, IsAnomaly: true},
		},
	}

	ranked := v7.Rank(v2.Rank(in), in, 0)
	assert.Len(t, ranked, 1)

	r := ranked[0]
	assert.Equal(t, "NVDA", r.Ticker)
	assert.Equal(t, domain.DirectionBullish, r.Direction)
	assert.InDelta(t, 48.2, r.Score, 0.05)
	assert.Equal(t, 2, r.V7.AlignedActive)
	assert.Equal(t, 3, r.V7.TotalSources)
	assert.Equal(t, 85.0, r.V7.Cap)
	assert.Equal(t, 1.18, r.V7.ConfluenceMultiplier)
}

func TestV7Deterministic(t *testing.T) {
	e := NewV7(zerolog.Nop())

	v2Ranking := []domain.RankedTicker{
		{
			Ticker:      "DET",
			Sources:     []string{domain.SourceArk, domain.SourceDarkPool, domain.SourceInsider},
			SourceCount: 3,
			Convictions: map[string]float64{
				domain.SourceArk:      55,
				domain.SourceDarkPool: 70,
				domain.SourceInsider:  40,
			},
		},
	}
	in := Inputs{
		ArkTrades:     []domain.ArkTrade{{Ticker: "DET", ETF: "ARKK", TradeType: "Buy", Date: "2026-01-20"}},
		InsiderTrades: []domain.InsiderTrade{{Ticker: "DET", InsiderName: "X", TransactionType: "Buy", TradeDate: "2026-01-21", Value: 50_000}},
	}

	first := e.Rank(v2Ranking, in, 0)
	second := e.Rank(v2Ranking, in, 0)
	assert.Equal(t, first, second)
}

func TestV7MinScoreFilter(t *testing.T) {
	e := NewV7(zerolog.Nop())

	v2Ranking := []domain.RankedTicker{
		{Ticker: "LOW", Sources: []string{domain.SourceDarkPool}, SourceCount: 1, Convictions: map[string]float64{domain.SourceDarkPool: 20}},
		{Ticker: "HIGH", Sources: []string{domain.SourceDarkPool}, SourceCount: 1, Convictions: map[string]float64{domain.SourceDarkPool: 90}},
	}

	ranked := e.Rank(v2Ranking, Inputs{}, 40)
	assert.Len(t, ranked, 1)
	assert.Equal(t, "HIGH", ranked[0].Ticker)
}

func TestScoreCap(t *testing.T) {
	tests := []struct {
		alignedActive int
		totalSources  int
		want          float64
	}{
		{0, 1, 45},
		{1, 1, 55},
		{1, 2, 65},
		{2, 3, 85},
		{3, 4, 95},
		{4, 5, 100},
		{0, 5, 97},
		// More than five total sources uses the five-source cap.
		{0, 7, 97},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scoreCap(tt.alignedActive, tt.totalSources),
			"aligned=%d total=%d", tt.alignedActive, tt.totalSources)
	}
}

func TestConfluenceMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, confluenceMultiplier(1))
	assert.Equal(t, 1.08, confluenceMultiplier(2))
	assert.Equal(t, 1.18, confluenceMultiplier(3))
	assert.Equal(t, 1.40, confluenceMultiplier(7))
	assert.Equal(t, 1.40, confluenceMultiplier(9))
}
