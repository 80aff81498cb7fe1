// Package normalize holds the pure normalization functions applied at ingest:
// enum cleanup for legislator metadata, 13F quarter derivation, CUSIP mapping
// and dark pool index math. Every function is deterministic and idempotent.
package normalize

import (
	"fmt"
	"strings"
	"time"
)

// Party normalizes a party label to its full name. Single-letter codes and
// full names are recognized; anything else passes through trimmed.
func Party(raw string) string {
	p := strings.TrimSpace(raw)
	switch strings.ToUpper(p) {
	case "D", "DEMOCRAT":
		return "Democrat"
	case "R", "REPUBLICAN":
		return "Republican"
	case "I", "INDEPENDENT":
		return "Independent"
	}
	return p
}

// Chamber maps a chamber label to House or Senate by case-insensitive
// substring match, passing unknown values through trimmed.
func Chamber(raw string) string {
	c := strings.TrimSpace(raw)
	lower := strings.ToLower(c)
	switch {
	case strings.Contains(lower, "house"):
		return "House"
	case strings.Contains(lower, "senate"):
		return "Senate"
	}
	return c
}

// TradeType normalizes purchase/sale wording to the canonical Buy/Sell/
// Exchange enum, passing unknown values through trimmed.
func TradeType(raw string) string {
	t := strings.TrimSpace(raw)
	switch strings.ToLower(t) {
	case "purchase", "buy":
		return "Buy"
	case "sale", "sell":
		return "Sell"
	case "exchange":
		return "Exchange"
	}
	return t
}

// ArkChangeToTradeType maps an ARK change type to the trade direction it
// implies. Unknown change types yield an empty string.
func ArkChangeToTradeType(changeType string) string {
	switch strings.ToUpper(strings.TrimSpace(changeType)) {
	case "NEW_POSITION", "INCREASED":
		return "Buy"
	case "DECREASED", "SOLD_OUT":
		return "Sell"
	}
	return ""
}

// FilingDateToQuarter derives the 13F reporting quarter from the filing date.
// 13F filings land at least 45 days after quarter close, so a filing in months
// 1-3 reports Q4 of the prior year, 4-6 reports Q1, 7-9 Q2, 10-12 Q3.
// Malformed dates yield the sentinel "Q0_0000".
func FilingDateToQuarter(filingDate string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(filingDate))
	if err != nil {
		return "Q0_0000"
	}
	year := t.Year()
	switch {
	case t.Month() <= 3:
		return fmt.Sprintf("Q4_%d", year-1)
	case t.Month() <= 6:
		return fmt.Sprintf("Q1_%d", year)
	case t.Month() <= 9:
		return fmt.Sprintf("Q2_%d", year)
	default:
		return fmt.Sprintf("Q3_%d", year)
	}
}

// DPI computes the Dark Pool Index: short volume over total volume. Zero or
// negative total volume yields 0.
func DPI(shortVolume, totalVolume int64) float64 {
	if totalVolume <= 0 {
		return 0
	}
	return float64(shortVolume) / float64(totalVolume)
}
