package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/smartmoney/internal/domain"
)

func TestV1Rank_LegacyFormula(t *testing.T) {
	e := NewV1()
	e.Now = fixedClock(refDate)

	in := Inputs{
		Congress: []domain.LegislatorTrade{
			{Ticker: "NVDA", TradeType: "Buy", TransactionDate: "2026-01-20", AmountRange: "$100,001 - $250,000", ExcessReturnPct: fptr(5.2)},
		},
		ArkTrades: []domain.ArkTrade{
			{Ticker: "NVDA", ETF: "ARKK", TradeType: "Buy", Date: "2026-01-24", WeightPct: fptr(2.3), ChangeType: "INCREASED"},
		},
		DarkPool: []domain.DarkPoolEntry{
			{Ticker: "NVDA", Date: "2026-01-25", DPI: 0.67, ZScore: 2.8, TotalVolume: 45_000_000},
		},
	}

	scores := e.Rank(in)
	assert.Len(t, scores, 1)

	s := scores[0]
	assert.Equal(t, "NVDA", s.Ticker)
	assert.Equal(t, 3, s.SourceCount)
	assert.Equal(t, []string{domain.SourceArk, domain.SourceCongress, domain.SourceDarkPool}, s.Sources)
	assert.InDelta(t, 8.46, s.Score, 0.05)
	assert.Contains(t, s.Strengths, domain.SourceDarkPool)
}

func TestV1ScoreNeverExceedsTen(t *testing.T) {
	e := NewV1()
	e.Now = fixedClock(refDate)

	in := Inputs{
		Congress: []domain.LegislatorTrade{
			{Ticker: "MAX", TradeType: "Buy", TransactionDate: "2026-01-26", AmountRange: "Over $50,000,000", ExcessReturnPct: fptr(50)},
		},
		ArkTrades: []domain.ArkTrade{
			{Ticker: "MAX", ETF: "ARKK", TradeType: "Buy", Date: "2026-01-26", ChangeType: "NEW_POSITION", WeightPct: fptr(9)},
		},
		DarkPool: []domain.DarkPoolEntry{
			{Ticker: "MAX", Date: "2026-01-26", DPI: 0.92, ZScore: 8, TotalVolume: 90_000_000},
		},
	}

	scores := e.Rank(in)
	assert.Len(t, scores, 1)
	assert.LessOrEqual(t, scores[0].Score, 10.0)
}

func TestV1IgnoresSubThresholdZScores(t *testing.T) {
	e := NewV1()
	e.Now = fixedClock(refDate)

	in := Inputs{
		DarkPool: []domain.DarkPoolEntry{
			{Ticker: "WEAK", Date: "2026-01-25", DPI: 0.55, ZScore: 1.4, TotalVolume: 2_000_000},
		},
	}
	assert.Empty(t, e.Rank(in))
}
