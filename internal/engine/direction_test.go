package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/smartmoney/internal/domain"
)

func TestDetectDirections(t *testing.T) {
	in := Inputs{
		Congress: []domain.LegislatorTrade{
			{Ticker: "BULL", TradeType: "Buy"},
			{Ticker: "BULL", TradeType: "Buy"},
			{Ticker: "BULL", TradeType: "Sell"},
			{Ticker: "EVEN", TradeType: "Buy"},
			{Ticker: "EVEN", TradeType: "Sell"},
		},
		InsiderTrades: []domain.InsiderTrade{
			{Ticker: "BEAR", TransactionType: "Sell"},
			{Ticker: "BEAR", TransactionType: "Sell"},
			{Ticker: "BEAR", TransactionType: "Buy"},
		},
		ArkTrades: []domain.ArkTrade{
			{Ticker: "BULL", TradeType: "Buy"},
		},
	}

	dirs := DetectDirections(in)

	assert.Equal(t, domain.DirectionBullish, dirs["BULL"][domain.SourceCongress])
	assert.Equal(t, domain.DirectionBullish, dirs["BULL"][domain.SourceArk])
	assert.Equal(t, domain.DirectionNeutral, dirs["EVEN"][domain.SourceCongress])
	assert.Equal(t, domain.DirectionBearish, dirs["BEAR"][domain.SourceInsider])
}

func TestDetectDirectionsSuperinvestorAggregatePrecedence(t *testing.T) {
	in := Inputs{
		Superinvestors: []domain.SuperinvestorActivity{
			// Aggregate counts win over any per-manager rows for the ticker.
			{Ticker: "AGG", Source: domain.SuperinvestorSourceAggregate, BuyCount: 5, SellCount: 2},
			{Ticker: "AGG", Source: domain.SuperinvestorSourcePerManager, Manager: "A", ActivityType: "Sell"},
			{Ticker: "AGG", Source: domain.SuperinvestorSourcePerManager, Manager: "B", ActivityType: "Sell"},
			{Ticker: "AGG", Source: domain.SuperinvestorSourcePerManager, Manager: "C", ActivityType: "Sell"},
			{Ticker: "AGG", Source: domain.SuperinvestorSourcePerManager, Manager: "D", ActivityType: "Reduce"},
			// A ticker with only per-manager rows counts each once.
			{Ticker: "PMG", Source: domain.SuperinvestorSourcePerManager, Manager: "A", ActivityType: "Reduce"},
			{Ticker: "PMG", Source: domain.SuperinvestorSourcePerManager, Manager: "B", ActivityType: "Sell"},
			{Ticker: "PMG", Source: domain.SuperinvestorSourcePerManager, Manager: "C", ActivityType: "Add"},
		},
	}

	dirs := DetectDirections(in)

	assert.Equal(t, domain.DirectionBullish, dirs["AGG"][domain.SourceSuperinvestor])
	assert.Equal(t, domain.DirectionBearish, dirs["PMG"][domain.SourceSuperinvestor])
}

func TestDirectionCountsResolve(t *testing.T) {
	assert.Equal(t, domain.DirectionBullish, directionCounts{buys: 3, sells: 1}.resolve())
	assert.Equal(t, domain.DirectionBearish, directionCounts{buys: 1, sells: 3}.resolve())
	assert.Equal(t, domain.DirectionNeutral, directionCounts{buys: 2, sells: 2}.resolve())
	assert.Equal(t, domain.DirectionNeutral, directionCounts{}.resolve())
}
