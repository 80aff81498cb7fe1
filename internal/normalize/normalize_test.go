package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParty(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"D", "Democrat"},
		{"democrat", "Democrat"},
		{"R", "Republican"},
		{"Republican", "Republican"},
		{"I", "Independent"},
		{" independent ", "Independent"},
		{"Libertarian", "Libertarian"},
		{"", ""},
	}
	for _, tt := range tests {
		got := Party(tt.raw)
		assert.Equal(t, tt.want, got)
		// Normalization is idempotent.
		assert.Equal(t, got, Party(got))
	}
}

func TestChamber(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"House", "House"},
		{"house of representatives", "House"},
		{"US Senate", "Senate"},
		{"senate", "Senate"},
		{"Governor", "Governor"},
	}
	for _, tt := range tests {
		got := Chamber(tt.raw)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, Chamber(got))
	}
}

func TestTradeType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"purchase", "Buy"},
		{"Buy", "Buy"},
		{"sale", "Sell"},
		{"SELL", "Sell"},
		{"exchange", "Exchange"},
		{"Received", "Received"},
	}
	for _, tt := range tests {
		got := TradeType(tt.raw)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, TradeType(got))
	}
}

func TestArkChangeToTradeType(t *testing.T) {
	assert.Equal(t, "Buy", ArkChangeToTradeType("NEW_POSITION"))
	assert.Equal(t, "Buy", ArkChangeToTradeType("increased"))
	assert.Equal(t, "Sell", ArkChangeToTradeType("DECREASED"))
	assert.Equal(t, "Sell", ArkChangeToTradeType("SOLD_OUT"))
	assert.Equal(t, "", ArkChangeToTradeType("UNCHANGED"))
}

func TestFilingDateToQuarter(t *testing.T) {
	tests := []struct {
		filingDate string
		want       string
	}{
		{"2026-02-14", "Q4_2025"},
		{"2026-03-31", "Q4_2025"},
		{"2026-05-15", "Q1_2026"},
		{"2026-08-14", "Q2_2026"},
		{"2026-11-14", "Q3_2026"},
		{"2026-12-31", "Q3_2026"},
		{"not-a-date", "Q0_0000"},
		{"", "Q0_0000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FilingDateToQuarter(tt.filingDate), "filing date %q", tt.filingDate)
	}
}

func TestDPI(t *testing.T) {
	assert.InDelta(t, 0.89, DPI(44_500_000, 50_000_000), 1e-9)
	assert.Equal(t, 0.0, DPI(100, 0))
	assert.Equal(t, 0.0, DPI(100, -5))
	assert.Equal(t, 1.0, DPI(500, 500))
}
