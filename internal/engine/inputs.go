package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/smartmoney/internal/domain"
)

// Inputs carries every ingested artifact the engines score. Fields may be nil
// when a source has never refreshed; the engines simply produce no signals for
// it.
type Inputs struct {
	Congress        []domain.LegislatorTrade
	ArkTrades       []domain.ArkTrade
	ArkHoldings     []domain.ArkHolding
	DarkPool        []domain.DarkPoolEntry
	Institutions    []domain.InstitutionFiling
	InsiderTrades   []domain.InsiderTrade
	InsiderClusters []domain.InsiderCluster
	ShortInterest   []domain.ShortInterestRow
	Superinvestors  []domain.SuperinvestorActivity
}

// quarterEndDate maps a reporting quarter label ("Q1_2026") to the quarter's
// closing date, the best recency anchor a quarterly source offers.
func quarterEndDate(quarter string) string {
	parts := strings.SplitN(strings.TrimSpace(quarter), "_", 2)
	if len(parts) != 2 {
		return ""
	}
	var end string
	switch parts[0] {
	case "Q1":
		end = "03-31"
	case "Q2":
		end = "06-30"
	case "Q3":
		end = "09-30"
	case "Q4":
		end = "12-31"
	default:
		return ""
	}
	if _, err := time.Parse("2006", parts[1]); err != nil {
		return ""
	}
	return fmt.Sprintf("%s-%s", parts[1], end)
}
