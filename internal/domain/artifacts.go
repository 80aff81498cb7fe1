package domain

import "time"

// SchemaVersion is stamped into every artifact's metadata.
const SchemaVersion = 2

// Metadata is the shared artifact metadata block. Source-specific summary
// fields are optional and omitted when zero.
type Metadata struct {
	SchemaVersion   int     `json:"schema_version"`
	TotalCount      int     `json:"total_count"`
	LastUpdated     string  `json:"last_updated"`
	Error           string  `json:"error,omitempty"`
	BuyCount        int     `json:"buy_count,omitempty"`
	SellCount       int     `json:"sell_count,omitempty"`
	AvgPosition     float64 `json:"avg_position,omitempty"`
	AvgExcessReturn float64 `json:"avg_excess_return,omitempty"`
	AnomalyCount    int     `json:"anomaly_count,omitempty"`
	ClusterCount    int     `json:"cluster_count,omitempty"`
	FilingCount     int     `json:"filing_count,omitempty"`
	MinScore        float64 `json:"min_score,omitempty"`
}

// NewMetadata stamps a metadata block for a freshly built artifact.
func NewMetadata(totalCount int, now time.Time) Metadata {
	return Metadata{
		SchemaVersion: SchemaVersion,
		TotalCount:    totalCount,
		LastUpdated:   now.UTC().Format(time.RFC3339),
	}
}

// Artifact documents. Payload keys follow the shared convention: trades,
// holdings, filings, tickers or activity, with derived sections alongside.

// CongressArtifact is congress.json.
type CongressArtifact struct {
	Trades   []LegislatorTrade `json:"trades"`
	Metadata Metadata          `json:"metadata"`
}

// ArkTradesArtifact is ark_trades.json.
type ArkTradesArtifact struct {
	Trades   []ArkTrade `json:"trades"`
	Metadata Metadata   `json:"metadata"`
}

// ArkHoldingsArtifact is ark_holdings.json.
type ArkHoldingsArtifact struct {
	Holdings []ArkHolding `json:"holdings"`
	Metadata Metadata     `json:"metadata"`
}

// DarkPoolArtifact is darkpool.json: ranked entries plus the anomaly subset.
type DarkPoolArtifact struct {
	Tickers   []DarkPoolEntry `json:"tickers"`
	Anomalies []DarkPoolEntry `json:"anomalies"`
	Metadata  Metadata        `json:"metadata"`
}

// InstitutionsArtifact is institutions.json.
type InstitutionsArtifact struct {
	Filings  []InstitutionFiling `json:"filings"`
	Metadata Metadata            `json:"metadata"`
}

// InsidersArtifact is insiders.json: raw trades plus derived clusters.
type InsidersArtifact struct {
	Trades   []InsiderTrade   `json:"trades"`
	Clusters []InsiderCluster `json:"clusters"`
	Metadata Metadata         `json:"metadata"`
}

// ShortInterestArtifact is short_interest.json.
type ShortInterestArtifact struct {
	Tickers  []ShortInterestRow `json:"tickers"`
	Metadata Metadata           `json:"metadata"`
}

// SuperinvestorArtifact is superinvestors.json: activity plus top manager
// holdings.
type SuperinvestorArtifact struct {
	Activity []SuperinvestorActivity `json:"activity"`
	Holdings []SuperinvestorHolding  `json:"holdings"`
	Metadata Metadata                `json:"metadata"`
}

// RankingArtifact is ranking_v2.json / ranking_v3.json.
type RankingArtifact struct {
	Signals  []RankedTicker `json:"signals"`
	Metadata Metadata       `json:"metadata"`
}

// RefreshLogArtifact is refresh_log.json, append-only rows ordered by wall
// clock.
type RefreshLogArtifact struct {
	Rows     []RefreshLog `json:"rows"`
	Metadata Metadata     `json:"metadata"`
}
