// Package domain contains the canonical data model shared by collectors,
// engines and the refresh pipeline. The domain layer is pure: no I/O, no
// infrastructure dependencies. JSON tags define the artifact wire shape.
package domain

// LegislatorTrade is one disclosed trade by a member of Congress.
type LegislatorTrade struct {
	Ticker          string   `json:"ticker"`
	Politician      string   `json:"politician"`
	Party           string   `json:"party"`
	Chamber         string   `json:"chamber"`
	TradeType       string   `json:"trade_type"`
	TransactionDate string   `json:"transaction_date"`
	FilingDate      string   `json:"filing_date"`
	AmountMin       float64  `json:"amount_min"`
	AmountMax       float64  `json:"amount_max"`
	AmountRange     string   `json:"amount_range,omitempty"`
	ExcessReturnPct *float64 `json:"excess_return_pct,omitempty"`
	PriceChangePct  *float64 `json:"price_change_pct,omitempty"`
	SPYChangePct    *float64 `json:"spy_change_pct,omitempty"`
}

// ArkTrade is one daily position change detected across the ARK ETFs.
type ArkTrade struct {
	Ticker     string   `json:"ticker"`
	Company    string   `json:"company,omitempty"`
	ETF        string   `json:"etf"`
	TradeType  string   `json:"trade_type"`
	Date       string   `json:"date"`
	Shares     float64  `json:"shares"`
	WeightPct  *float64 `json:"weight_pct,omitempty"`
	ChangeType string   `json:"change_type"`
}

// ArkHolding is one position in an ARK ETF snapshot.
type ArkHolding struct {
	Ticker      string  `json:"ticker"`
	Company     string  `json:"company,omitempty"`
	ETF         string  `json:"etf"`
	Shares      float64 `json:"shares"`
	WeightPct   float64 `json:"weight_pct"`
	MarketValue float64 `json:"market_value"`
	Date        string  `json:"date"`
}

// DarkPoolRecord is one ticker-day of off-exchange short volume.
// DPI is short_volume / total_volume; records with zero total volume are
// excluded at ingest.
type DarkPoolRecord struct {
	Ticker      string  `json:"ticker"`
	Date        string  `json:"date"`
	ShortVolume int64   `json:"short_volume"`
	TotalVolume int64   `json:"total_volume"`
	DPI         float64 `json:"dpi"`
}

// DarkPoolEntry is the derived anomaly-detector output for one ticker.
type DarkPoolEntry struct {
	Ticker      string  `json:"ticker"`
	Date        string  `json:"date"`
	DPI         float64 `json:"dpi"`
	ZScore      float64 `json:"z_score"`
	TotalVolume int64   `json:"total_volume"`
	IsAnomaly   bool    `json:"is_anomaly"`
}

// InstitutionHolding is one position inside a 13F filing. Ticker may be empty
// when the CUSIP is unmapped; Issuer is always present and is the display
// fallback.
type InstitutionHolding struct {
	CUSIP        string   `json:"cusip"`
	Ticker       string   `json:"ticker,omitempty"`
	Issuer       string   `json:"issuer"`
	Value        float64  `json:"value"`
	Shares       float64  `json:"shares"`
	PctPortfolio float64  `json:"pct_portfolio"`
	IsNew        bool     `json:"is_new,omitempty"`
	ChangePct    *float64 `json:"change_pct,omitempty"`
}

// InstitutionFiling is one quarterly 13F filing, keyed by (cik, quarter).
type InstitutionFiling struct {
	CIK        string               `json:"cik"`
	FundName   string               `json:"fund_name"`
	FilingDate string               `json:"filing_date"`
	Quarter    string               `json:"quarter"`
	TotalValue float64              `json:"total_value"`
	Holdings   []InstitutionHolding `json:"holdings"`
}

// InsiderTrade is one Form 4 style insider transaction.
type InsiderTrade struct {
	Ticker          string  `json:"ticker"`
	Company         string  `json:"company,omitempty"`
	InsiderName     string  `json:"insider_name"`
	Title           string  `json:"title"`
	TransactionType string  `json:"transaction_type"`
	TradeDate       string  `json:"trade_date"`
	Value           float64 `json:"value"`
}

// InsiderCluster is a derived group of >= 3 distinct insiders buying the same
// ticker within a 14 day window.
type InsiderCluster struct {
	Ticker       string   `json:"ticker"`
	InsiderCount int      `json:"insider_count"`
	TotalValue   float64  `json:"total_value"`
	Insiders     []string `json:"insiders"`
	FirstDate    string   `json:"first_date"`
	LastDate     string   `json:"last_date"`
}

// ShortInterestRow is one bi-monthly short interest settlement row.
type ShortInterestRow struct {
	Ticker             string   `json:"ticker"`
	SettlementDate     string   `json:"settlement_date"`
	ShortInterest      int64    `json:"short_interest"`
	PriorShortInterest int64    `json:"prior_short_interest"`
	ChangePct          float64  `json:"change_pct"`
	DaysToCover        float64  `json:"days_to_cover"`
	AvgDailyVolume     int64    `json:"avg_daily_volume"`
	ShortPctFloat      *float64 `json:"short_pct_float,omitempty"`
}

// SuperinvestorActivity is one quarterly superinvestor action. Aggregate rows
// carry manager buy/sell counts for the ticker; per_manager rows describe an
// individual manager's move. Both kinds are kept, distinguished by Source.
type SuperinvestorActivity struct {
	Ticker       string  `json:"ticker"`
	Company      string  `json:"company,omitempty"`
	Manager      string  `json:"manager,omitempty"`
	ActivityType string  `json:"activity_type"`
	PortfolioPct float64 `json:"portfolio_pct,omitempty"`
	ChangePct    float64 `json:"change_pct,omitempty"`
	Quarter      string  `json:"quarter"`
	Source       string  `json:"source"`
	BuyCount     int     `json:"buy_count,omitempty"`
	SellCount    int     `json:"sell_count,omitempty"`
}

// SuperinvestorHolding is one top holding of a tracked manager.
type SuperinvestorHolding struct {
	Manager      string  `json:"manager"`
	Ticker       string  `json:"ticker"`
	Company      string  `json:"company,omitempty"`
	PortfolioPct float64 `json:"portfolio_pct"`
}

// RawSignal is the ephemeral per-source output of the conviction engine.
// RawData carries source context (company names, event details) and is never
// serialized into ranking artifacts.
type RawSignal struct {
	Ticker      string
	Source      string
	Direction   string
	Date        string
	Conviction  float64
	Description string
	RawData     map[string]interface{}
}

// SignalDetail is a RawSignal stripped of RawData, embedded in ranking
// artifacts.
type SignalDetail struct {
	Source      string  `json:"source"`
	Direction   string  `json:"direction"`
	Date        string  `json:"date"`
	Conviction  float64 `json:"conviction"`
	Description string  `json:"description"`
}

// Detail converts a RawSignal to its serializable form.
func (s RawSignal) Detail() SignalDetail {
	return SignalDetail{
		Source:      s.Source,
		Direction:   s.Direction,
		Date:        s.Date,
		Conviction:  s.Conviction,
		Description: s.Description,
	}
}

// SourceContribution is the per-source V7 breakdown line.
type SourceContribution struct {
	Source              string  `json:"source"`
	Status              string  `json:"status"` // aligned, neutral, opposing
	Direction           string  `json:"direction"`
	Conviction          float64 `json:"conviction"`
	EffectiveConviction float64 `json:"effective_conviction"`
	Contribution        float64 `json:"contribution"`
}

// V7Breakdown explains how a V7 score was assembled.
type V7Breakdown struct {
	Dominant             string               `json:"dominant"`
	BullishVotes         float64              `json:"bullish_votes"`
	BearishVotes         float64              `json:"bearish_votes"`
	Base                 float64              `json:"base"`
	Extra                float64              `json:"extra"`
	DirectionBonus       float64              `json:"direction_bonus"`
	Penalty              float64              `json:"penalty"`
	Cap                  float64              `json:"cap"`
	ConfluenceMultiplier float64              `json:"confluence_multiplier"`
	AlignedActive        int                  `json:"aligned_active"`
	AlignedPassive       int                  `json:"aligned_passive"`
	TotalSources         int                  `json:"total_sources"`
	Contributions        []SourceContribution `json:"contributions"`
}

// RankedTicker is one row of a ranking artifact (V2 or V7).
type RankedTicker struct {
	Ticker           string             `json:"ticker"`
	Company          string             `json:"company,omitempty"`
	Score            float64            `json:"score"`
	Direction        string             `json:"direction"`
	Sources          []string           `json:"sources"`
	SourceCount      int                `json:"source_count"`
	SignalDate       string             `json:"signal_date"`
	Convictions      map[string]float64 `json:"convictions"`
	MultiSourceBonus float64            `json:"multi_source_bonus"`
	Signals          []SignalDetail     `json:"signals,omitempty"`
	V7               *V7Breakdown       `json:"v7_breakdown,omitempty"`
}

// RefreshLog is one append-only refresh status row.
type RefreshLog struct {
	RunID        string `json:"run_id"`
	Source       string `json:"source"`
	Status       string `json:"status"` // success, failed
	RecordsCount int    `json:"records_count"`
	DurationMS   int64  `json:"duration_ms"`
	ErrorMsg     string `json:"error_msg,omitempty"`
	Timestamp    string `json:"timestamp"`
}
