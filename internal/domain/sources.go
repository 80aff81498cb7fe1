package domain

import "strings"

// Signal source identifiers. These are wire values embedded in ranking
// artifacts, not display names.
const (
	SourceCongress      = "congress"
	SourceArk           = "ark"
	SourceDarkPool      = "darkpool"
	SourceInstitution   = "institution"
	SourceInsider       = "insider"
	SourceSuperinvestor = "superinvestor"
	SourceShortInterest = "short_interest"
)

// AllSources lists every signal source in weight order.
var AllSources = []string{
	SourceCongress,
	SourceInsider,
	SourceArk,
	SourceDarkPool,
	SourceInstitution,
	SourceSuperinvestor,
	SourceShortInterest,
}

// SourceWeights are the fixed V7 confluence weights per source.
var SourceWeights = map[string]float64{
	SourceCongress:      20,
	SourceInsider:       20,
	SourceArk:           15,
	SourceDarkPool:      15,
	SourceInstitution:   10,
	SourceSuperinvestor: 10,
	SourceShortInterest: 10,
}

// ActiveSources reflect a deliberate capital allocation decision and earn the
// per-source alignment bonus in V7.
var ActiveSources = map[string]bool{
	SourceCongress:    true,
	SourceInsider:     true,
	SourceArk:         true,
	SourceDarkPool:    true,
	SourceInstitution: true,
}

// AlwaysNeutralSources never vote on direction: dark pool volume has no
// inherent side, institutional direction is already priced into the conviction
// change bonus, and short interest is intentionally non-directional.
var AlwaysNeutralSources = map[string]bool{
	SourceDarkPool:      true,
	SourceInstitution:   true,
	SourceShortInterest: true,
}

// Superinvestor activity row kinds. Aggregate rows summarize manager counts
// per ticker; per_manager rows describe an individual manager's move.
const (
	SuperinvestorSourceAggregate  = "aggregate"
	SuperinvestorSourcePerManager = "per_manager"
)

// Direction values.
const (
	DirectionBullish = "bullish"
	DirectionBearish = "bearish"
	DirectionNeutral = "neutral"
	DirectionNone    = "none"
)

// Artifact filenames in the cache directory.
const (
	ArtifactCongress      = "congress.json"
	ArtifactArkTrades     = "ark_trades.json"
	ArtifactArkHoldings   = "ark_holdings.json"
	ArtifactDarkPool      = "darkpool.json"
	ArtifactInstitutions  = "institutions.json"
	ArtifactInsiders      = "insiders.json"
	ArtifactShortInterest = "short_interest.json"
	ArtifactSuperinvestor = "superinvestors.json"
	ArtifactRankingV2     = "ranking_v2.json"
	ArtifactRankingV3     = "ranking_v3.json"
	ArtifactRefreshLog    = "refresh_log.json"
)

// Threshold constants shared by collectors and engines.
const (
	MinHistoryDays      = 20
	ZScoreWindow        = 30
	AnomalyMinZ         = 2.0
	AnomalyMinDPI       = 0.4
	AnomalyMinVolume    = 500_000
	AnomalyRecencyDays  = 7
	ClusterMinInsiders  = 3
	ClusterWindowDays   = 14
	MinInsiderValue     = 10_000
	MinInstitutionValue = 50_000_000
	MinShortInterest    = 100_000
)

// ArkFunds are the tracked ARK ETFs.
var ArkFunds = []string{"ARKK", "ARKW", "ARKQ", "ARKG", "ARKF", "ARKX"}

// NormalizeTicker upper-cases and trims a raw symbol and reports whether it is
// usable in signal paths. Valid tickers are 1-6 alphabetic characters with an
// optional single dot suffix for multi-class shares (BRK.A). Placeholders
// ("--", cash rows) and non-equity symbols are rejected.
func NormalizeTicker(raw string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" || t == "--" {
		return "", false
	}
	if strings.ContainsAny(t, "+=^$ ") {
		return "", false
	}
	parts := strings.Split(t, ".")
	if len(parts) > 2 {
		return "", false
	}
	base := parts[0]
	if base == "" || len(base) > 6 {
		return "", false
	}
	for _, r := range base {
		if r < 'A' || r > 'Z' {
			return "", false
		}
	}
	if len(parts) == 2 {
		suffix := parts[1]
		if suffix == "" || len(suffix) > 2 {
			return "", false
		}
		for _, r := range suffix {
			if r < 'A' || r > 'Z' {
				return "", false
			}
		}
	}
	return t, true
}
