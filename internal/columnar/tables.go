package columnar

import (
	"encoding/json"

	"github.com/aristath/smartmoney/internal/cache"
	"github.com/aristath/smartmoney/internal/domain"
)

// tableSpec maps one cache artifact to one derived table. Rows returns the
// flattened row values in column order; scalars pass through, lists and
// nested objects are JSON-serialized to string columns.
type tableSpec struct {
	Name     string
	Artifact string
	Columns  []column
	Rows     func(store *cache.Store) ([][]interface{}, error)
}

type column struct {
	Name string
	Type string
}

// jsonCol serializes a nested value to its string column form.
func jsonCol(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func nullableFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// tableSpecs is the full artifact-to-table map. Nested arrays are flattened
// with parent fields copied down (institution holdings carry cik, fund_name
// and quarter from their filing).
var tableSpecs = []tableSpec{
	{
		Name:     "congress_trades",
		Artifact: domain.ArtifactCongress,
		Columns: []column{
			{"ticker", "TEXT"}, {"politician", "TEXT"}, {"party", "TEXT"},
			{"chamber", "TEXT"}, {"trade_type", "TEXT"}, {"transaction_date", "TEXT"},
			{"filing_date", "TEXT"}, {"amount_min", "REAL"}, {"amount_max", "REAL"},
			{"amount_range", "TEXT"}, {"excess_return_pct", "REAL"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.CongressArtifact
			if err := store.ReadInto(domain.ArtifactCongress, &doc); err != nil {
				return nil, err
			}
			rows := make([][]interface{}, 0, len(doc.Trades))
			for _, t := range doc.Trades {
				rows = append(rows, []interface{}{
					t.Ticker, t.Politician, t.Party, t.Chamber, t.TradeType,
					t.TransactionDate, t.FilingDate, t.AmountMin, t.AmountMax,
					t.AmountRange, nullableFloat(t.ExcessReturnPct),
				})
			}
			return rows, nil
		},
	},
	{
		Name:     "ark_trades",
		Artifact: domain.ArtifactArkTrades,
		Columns: []column{
			{"ticker", "TEXT"}, {"company", "TEXT"}, {"etf", "TEXT"},
			{"trade_type", "TEXT"}, {"date", "TEXT"}, {"shares", "REAL"},
			{"weight_pct", "REAL"}, {"change_type", "TEXT"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.ArkTradesArtifact
			if err := store.ReadInto(domain.ArtifactArkTrades, &doc); err != nil {
				return nil, err
			}
			rows := make([][]interface{}, 0, len(doc.Trades))
			for _, t := range doc.Trades {
				rows = append(rows, []interface{}{
					t.Ticker, t.Company, t.ETF, t.TradeType, t.Date, t.Shares,
					nullableFloat(t.WeightPct), t.ChangeType,
				})
			}
			return rows, nil
		},
	},
	{
		Name:     "ark_holdings",
		Artifact: domain.ArtifactArkHoldings,
		Columns: []column{
			{"etf", "TEXT"}, {"date", "TEXT"}, {"ticker", "TEXT"},
			{"company", "TEXT"}, {"shares", "REAL"}, {"market_value", "REAL"},
			{"weight_pct", "REAL"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.ArkHoldingsArtifact
			if err := store.ReadInto(domain.ArtifactArkHoldings, &doc); err != nil {
				return nil, err
			}
			rows := make([][]interface{}, 0, len(doc.Holdings))
			for _, h := range doc.Holdings {
				rows = append(rows, []interface{}{
					h.ETF, h.Date, h.Ticker, h.Company, h.Shares, h.MarketValue,
					h.WeightPct,
				})
			}
			return rows, nil
		},
	},
	{
		Name:     "darkpool_tickers",
		Artifact: domain.ArtifactDarkPool,
		Columns: []column{
			{"ticker", "TEXT"}, {"date", "TEXT"}, {"dpi", "REAL"},
			{"z_score", "REAL"}, {"total_volume", "INTEGER"}, {"is_anomaly", "INTEGER"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.DarkPoolArtifact
			if err := store.ReadInto(domain.ArtifactDarkPool, &doc); err != nil {
				return nil, err
			}
			rows := make([][]interface{}, 0, len(doc.Tickers))
			for _, e := range doc.Tickers {
				rows = append(rows, []interface{}{
					e.Ticker, e.Date, e.DPI, e.ZScore, e.TotalVolume, boolInt(e.IsAnomaly),
				})
			}
			return rows, nil
		},
	},
	{
		Name:     "darkpool_anomalies",
		Artifact: domain.ArtifactDarkPool,
		Columns: []column{
			{"ticker", "TEXT"}, {"date", "TEXT"}, {"dpi", "REAL"},
			{"z_score", "REAL"}, {"total_volume", "INTEGER"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.DarkPoolArtifact
			if err := store.ReadInto(domain.ArtifactDarkPool, &doc); err != nil {
				return nil, err
			}
			rows := make([][]interface{}, 0, len(doc.Anomalies))
			for _, e := range doc.Anomalies {
				rows = append(rows, []interface{}{
					e.Ticker, e.Date, e.DPI, e.ZScore, e.TotalVolume,
				})
			}
			return rows, nil
		},
	},
	{
		Name:     "institution_filings",
		Artifact: domain.ArtifactInstitutions,
		Columns: []column{
			{"cik", "TEXT"}, {"fund_name", "TEXT"}, {"filing_date", "TEXT"},
			{"quarter", "TEXT"}, {"total_value", "REAL"}, {"holdings_count", "INTEGER"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.InstitutionsArtifact
			if err := store.ReadInto(domain.ArtifactInstitutions, &doc); err != nil {
				return nil, err
			}
			rows := make([][]interface{}, 0, len(doc.Filings))
			for _, f := range doc.Filings {
				rows = append(rows, []interface{}{
					f.CIK, f.FundName, f.FilingDate, f.Quarter, f.TotalValue,
					len(f.Holdings),
				})
			}
			return rows, nil
		},
	},
	{
		Name:     "institution_holdings",
		Artifact: domain.ArtifactInstitutions,
		Columns: []column{
			{"cik", "TEXT"}, {"fund_name", "TEXT"}, {"quarter", "TEXT"},
			{"cusip", "TEXT"}, {"ticker", "TEXT"}, {"issuer", "TEXT"},
			{"value", "REAL"}, {"shares", "REAL"}, {"pct_portfolio", "REAL"},
			{"is_new", "INTEGER"}, {"change_pct", "REAL"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.InstitutionsArtifact
			if err := store.ReadInto(domain.ArtifactInstitutions, &doc); err != nil {
				return nil, err
			}
			var rows [][]interface{}
			for _, f := range doc.Filings {
				for _, h := range f.Holdings {
					rows = append(rows, []interface{}{
						f.CIK, f.FundName, f.Quarter, h.CUSIP, h.Ticker, h.Issuer,
						h.Value, h.Shares, h.PctPortfolio, boolInt(h.IsNew),
						nullableFloat(h.ChangePct),
					})
				}
			}
			return rows, nil
		},
	},
	{
		Name:     "insider_trades",
		Artifact: domain.ArtifactInsiders,
		Columns: []column{
			{"ticker", "TEXT"}, {"company", "TEXT"}, {"insider_name", "TEXT"},
			{"title", "TEXT"}, {"transaction_type", "TEXT"}, {"trade_date", "TEXT"},
			{"value", "REAL"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.InsidersArtifact
			if err := store.ReadInto(domain.ArtifactInsiders, &doc); err != nil {
				return nil, err
			}
			rows := make([][]interface{}, 0, len(doc.Trades))
			for _, t := range doc.Trades {
				rows = append(rows, []interface{}{
					t.Ticker, t.Company, t.InsiderName, t.Title, t.TransactionType,
					t.TradeDate, t.Value,
				})
			}
			return rows, nil
		},
	},
	{
		Name:     "insider_clusters",
		Artifact: domain.ArtifactInsiders,
		Columns: []column{
			{"ticker", "TEXT"}, {"insider_count", "INTEGER"}, {"total_value", "REAL"},
			{"insiders", "TEXT"}, {"first_date", "TEXT"}, {"last_date", "TEXT"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.InsidersArtifact
			if err := store.ReadInto(domain.ArtifactInsiders, &doc); err != nil {
				return nil, err
			}
			rows := make([][]interface{}, 0, len(doc.Clusters))
			for _, c := range doc.Clusters {
				rows = append(rows, []interface{}{
					c.Ticker, c.InsiderCount, c.TotalValue, jsonCol(c.Insiders),
					c.FirstDate, c.LastDate,
				})
			}
			return rows, nil
		},
	},
	{
		Name:     "short_interest",
		Artifact: domain.ArtifactShortInterest,
		Columns: []column{
			{"ticker", "TEXT"}, {"settlement_date", "TEXT"},
			{"short_interest", "INTEGER"}, {"prior_short_interest", "INTEGER"},
			{"change_pct", "REAL"}, {"days_to_cover", "REAL"},
			{"avg_daily_volume", "INTEGER"}, {"short_pct_float", "REAL"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.ShortInterestArtifact
			if err := store.ReadInto(domain.ArtifactShortInterest, &doc); err != nil {
				return nil, err
			}
			rows := make([][]interface{}, 0, len(doc.Tickers))
			for _, r := range doc.Tickers {
				rows = append(rows, []interface{}{
					r.Ticker, r.SettlementDate, r.ShortInterest, r.PriorShortInterest,
					r.ChangePct, r.DaysToCover, r.AvgDailyVolume,
					nullableFloat(r.ShortPctFloat),
				})
			}
			return rows, nil
		},
	},
	{
		Name:     "superinvestor_activity",
		Artifact: domain.ArtifactSuperinvestor,
		Columns: []column{
			{"ticker", "TEXT"}, {"company", "TEXT"}, {"manager", "TEXT"},
			{"activity_type", "TEXT"}, {"portfolio_pct", "REAL"},
			{"change_pct", "REAL"}, {"quarter", "TEXT"}, {"source", "TEXT"},
			{"buy_count", "INTEGER"}, {"sell_count", "INTEGER"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.SuperinvestorArtifact
			if err := store.ReadInto(domain.ArtifactSuperinvestor, &doc); err != nil {
				return nil, err
			}
			rows := make([][]interface{}, 0, len(doc.Activity))
			for _, a := range doc.Activity {
				rows = append(rows, []interface{}{
					a.Ticker, a.Company, a.Manager, a.ActivityType, a.PortfolioPct,
					a.ChangePct, a.Quarter, a.Source, a.BuyCount, a.SellCount,
				})
			}
			return rows, nil
		},
	},
	{
		Name:     "superinvestor_holdings",
		Artifact: domain.ArtifactSuperinvestor,
		Columns: []column{
			{"manager", "TEXT"}, {"ticker", "TEXT"}, {"company", "TEXT"},
			{"portfolio_pct", "REAL"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.SuperinvestorArtifact
			if err := store.ReadInto(domain.ArtifactSuperinvestor, &doc); err != nil {
				return nil, err
			}
			rows := make([][]interface{}, 0, len(doc.Holdings))
			for _, h := range doc.Holdings {
				rows = append(rows, []interface{}{
					h.Manager, h.Ticker, h.Company, h.PortfolioPct,
				})
			}
			return rows, nil
		},
	},
	rankingSpec("ranking_v2", domain.ArtifactRankingV2),
	rankingSpec("ranking_v3", domain.ArtifactRankingV3),
}

// rankingSpec builds the shared spec for the V2 and V7 ranking tables.
func rankingSpec(name, artifact string) tableSpec {
	return tableSpec{
		Name:     name,
		Artifact: artifact,
		Columns: []column{
			{"ticker", "TEXT"}, {"company", "TEXT"}, {"score", "REAL"},
			{"direction", "TEXT"}, {"sources", "TEXT"}, {"source_count", "INTEGER"},
			{"signal_date", "TEXT"}, {"convictions", "TEXT"},
			{"multi_source_bonus", "REAL"}, {"v7_breakdown", "TEXT"},
		},
		Rows: func(store *cache.Store) ([][]interface{}, error) {
			var doc domain.RankingArtifact
			if err := store.ReadInto(artifact, &doc); err != nil {
				return nil, err
			}
			rows := make([][]interface{}, 0, len(doc.Signals))
			for _, s := range doc.Signals {
				var breakdown interface{}
				if s.V7 != nil {
					breakdown = jsonCol(s.V7)
				}
				rows = append(rows, []interface{}{
					s.Ticker, s.Company, s.Score, s.Direction, jsonCol(s.Sources),
					s.SourceCount, s.SignalDate, jsonCol(s.Convictions),
					s.MultiSourceBonus, breakdown,
				})
			}
			return rows, nil
		},
	}
}
