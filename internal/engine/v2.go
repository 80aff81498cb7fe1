package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/smartmoney/internal/domain"
	"github.com/aristath/smartmoney/internal/normalize"
)

// Per-source recency parameters: exponential half-life and a hard cutoff past
// which events stop producing signals.
var v2Recency = map[string]struct {
	HalfLifeDays float64
	CapDays      int
}{
	domain.SourceCongress:      {14, 60},
	domain.SourceArk:           {14, 30},
	domain.SourceDarkPool:      {7, 14},
	domain.SourceInstitution:   {30, 120},
	domain.SourceInsider:       {14, 45},
	domain.SourceSuperinvestor: {90, 270},
	domain.SourceShortInterest: {14, 45},
}

// prestigeFunds mark managers whose 13F positions earn a prestige bonus.
var prestigeFunds = []string{
	"berkshire", "citadel", "renaissance", "bridgewater",
	"two sigma", "de shaw", "millennium", "point72", "soros",
}

// V2 is the per-source conviction engine. Each source rule filters its events
// and scores tickers on a 0-100 conviction from size, recency, clustering and
// structural attributes; Rank then aggregates per ticker.
type V2 struct {
	Now func() time.Time
	log zerolog.Logger
}

// NewV2 creates the conviction engine.
func NewV2(log zerolog.Logger) *V2 {
	return &V2{
		Now: time.Now,
		log: log.With().Str("component", "engine_v2").Logger(),
	}
}

func (e *V2) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Signals runs every source rule and returns the flat signal list.
func (e *V2) Signals(in Inputs) []domain.RawSignal {
	var signals []domain.RawSignal
	signals = append(signals, e.congressSignals(in.Congress)...)
	signals = append(signals, e.arkSignals(in.ArkTrades, in.ArkHoldings)...)
	signals = append(signals, e.darkpoolSignals(in.DarkPool)...)
	signals = append(signals, e.institutionSignals(in.Institutions)...)
	signals = append(signals, e.insiderSignals(in.InsiderTrades, in.InsiderClusters)...)
	signals = append(signals, e.superinvestorSignals(in.Superinvestors)...)
	signals = append(signals, e.shortInterestSignals(in.ShortInterest)...)
	return signals
}

// Rank aggregates signals into the V2 ranking: per ticker, the max conviction
// per source, a source-count cap and a multi-source bonus.
func (e *V2) Rank(in Inputs) []domain.RankedTicker {
	return e.aggregate(e.Signals(in))
}

func (e *V2) aggregate(signals []domain.RawSignal) []domain.RankedTicker {
	type acc struct {
		convictions map[string]float64
		signals     []domain.RawSignal
		signalDate  string
		company     string
	}
	byTicker := map[string]*acc{}

	for _, sig := range signals {
		a := byTicker[sig.Ticker]
		if a == nil {
			a = &acc{convictions: map[string]float64{}}
			byTicker[sig.Ticker] = a
		}
		if sig.Conviction > a.convictions[sig.Source] {
			a.convictions[sig.Source] = sig.Conviction
		}
		a.signals = append(a.signals, sig)
		a.signalDate = laterDate(a.signalDate, sig.Date)
		if a.company == "" {
			if c, ok := sig.RawData["company"].(string); ok && c != "" {
				a.company = c
			}
		}
	}

	var ranked []domain.RankedTicker
	for ticker, a := range byTicker {
		maxConviction := 0.0
		var sources []string
		for src, conv := range a.convictions {
			sources = append(sources, src)
			if conv > maxConviction {
				maxConviction = conv
			}
		}
		sort.Strings(sources)

		sourceCount := len(sources)
		multiBonus := float64(sourceCount-1) * 20
		if multiBonus > 40 {
			multiBonus = 40
		}
		cap := sourceCapFactor(sourceCount)
		score := round1(clamp(maxConviction*cap+multiBonus, 0, 100))

		convictions := make(map[string]float64, len(a.convictions))
		for src, conv := range a.convictions {
			convictions[src] = round1(conv)
		}
		details := make([]domain.SignalDetail, 0, len(a.signals))
		for _, sig := range a.signals {
			details = append(details, sig.Detail())
		}

		ranked = append(ranked, domain.RankedTicker{
			Ticker:           ticker,
			Company:          a.company,
			Score:            score,
			Direction:        domain.DirectionBullish,
			Sources:          sources,
			SourceCount:      sourceCount,
			SignalDate:       a.signalDate,
			Convictions:      convictions,
			MultiSourceBonus: multiBonus,
			Signals:          details,
		})
	}

	SortRanking(ranked)
	return ranked
}

// SortRanking orders a ranking by (-score, -source_count, ticker), the stable
// order every ranking artifact uses.
func SortRanking(ranked []domain.RankedTicker) {
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].SourceCount != ranked[j].SourceCount {
			return ranked[i].SourceCount > ranked[j].SourceCount
		}
		return ranked[i].Ticker < ranked[j].Ticker
	})
}

// sourceCapFactor dampens single-source scores: confluence has to be earned.
func sourceCapFactor(sourceCount int) float64 {
	switch {
	case sourceCount <= 1:
		return 0.75
	case sourceCount == 2:
		return 0.85
	case sourceCount == 3:
		return 0.90
	default:
		return 1.0
	}
}

// congressSignals scores legislator buys: amount tier x recency, plus excess
// return and multi-member bonuses.
func (e *V2) congressSignals(trades []domain.LegislatorTrade) []domain.RawSignal {
	now := e.now()
	params := v2Recency[domain.SourceCongress]

	type acc struct {
		maxAmount float64
		maxExcess float64
		members   map[string]bool
		date      string
	}
	byTicker := map[string]*acc{}

	for _, t := range trades {
		if t.TradeType != "Buy" {
			continue
		}
		ticker, ok := domain.NormalizeTicker(t.Ticker)
		if !ok {
			continue
		}
		if DaysAgo(t.TransactionDate, now) > params.CapDays {
			continue
		}
		a := byTicker[ticker]
		if a == nil {
			a = &acc{members: map[string]bool{}}
			byTicker[ticker] = a
		}
		amount := normalize.AmountFromRange(t.AmountRange, t.AmountMax)
		if amount > a.maxAmount {
			a.maxAmount = amount
		}
		if t.ExcessReturnPct != nil && *t.ExcessReturnPct > a.maxExcess {
			a.maxExcess = *t.ExcessReturnPct
		}
		a.members[t.Politician] = true
		a.date = laterDate(a.date, t.TransactionDate)
	}

	var signals []domain.RawSignal
	for ticker, a := range byTicker {
		amountScore := congressAmountTier(a.maxAmount)
		recency := RecencyDecay(DaysAgo(a.date, now), params.HalfLifeDays)
		excessBonus := clamp(a.maxExcess*1.5, 0, 15)
		memberBonus := clamp(float64(len(a.members)-1)*10, 0, 20)
		conviction := clamp(amountScore*recency+excessBonus+memberBonus, 0, 100)

		signals = append(signals, domain.RawSignal{
			Ticker:     ticker,
			Source:     domain.SourceCongress,
			Direction:  "Bullish",
			Date:       a.date,
			Conviction: conviction,
			Description: fmt.Sprintf("%d member(s) bought, largest position %s",
				len(a.members), normalize.FormatDollars(a.maxAmount)),
			RawData: map[string]interface{}{
				"max_amount":    a.maxAmount,
				"max_excess":    a.maxExcess,
				"member_count":  len(a.members),
				"amount_score":  amountScore,
				"excess_bonus":  excessBonus,
				"member_bonus":  memberBonus,
				"recency_decay": recency,
			},
		})
	}
	return signals
}

func congressAmountTier(amount float64) float64 {
	switch {
	case amount >= 5_000_000:
		return 85
	case amount >= 1_000_000:
		return 70
	case amount >= 500_000:
		return 55
	case amount >= 250_000:
		return 45
	case amount >= 100_000:
		return 35
	case amount >= 50_000:
		return 25
	case amount >= 15_000:
		return 15
	default:
		return 10
	}
}

// arkSignals scores ARK buys: fund breadth x recency, plus new-position and
// portfolio weight bonuses.
func (e *V2) arkSignals(trades []domain.ArkTrade, holdings []domain.ArkHolding) []domain.RawSignal {
	now := e.now()
	params := v2Recency[domain.SourceArk]

	// Max holding weight per ticker across funds, for the weight bonus.
	holdingWeight := map[string]float64{}
	for _, h := range holdings {
		ticker, ok := domain.NormalizeTicker(h.Ticker)
		if !ok {
			continue
		}
		if h.WeightPct > holdingWeight[ticker] {
			holdingWeight[ticker] = h.WeightPct
		}
	}

	type acc struct {
		funds     map[string]bool
		hasNew    bool
		maxWeight float64
		date      string
		company   string
	}
	byTicker := map[string]*acc{}

	for _, t := range trades {
		if t.TradeType != "Buy" {
			continue
		}
		ticker, ok := domain.NormalizeTicker(t.Ticker)
		if !ok {
			continue
		}
		if DaysAgo(t.Date, now) > params.CapDays {
			continue
		}
		a := byTicker[ticker]
		if a == nil {
			a = &acc{funds: map[string]bool{}}
			byTicker[ticker] = a
		}
		a.funds[t.ETF] = true
		if t.ChangeType == "NEW_POSITION" {
			a.hasNew = true
		}
		if t.WeightPct != nil && *t.WeightPct > a.maxWeight {
			a.maxWeight = *t.WeightPct
		}
		if w := holdingWeight[ticker]; w > a.maxWeight {
			a.maxWeight = w
		}
		a.date = laterDate(a.date, t.Date)
		if a.company == "" {
			a.company = t.Company
		}
	}

	var signals []domain.RawSignal
	for ticker, a := range byTicker {
		fundScore := arkFundTier(len(a.funds))
		recency := RecencyDecay(DaysAgo(a.date, now), params.HalfLifeDays)
		typeBonus := 5.0
		if a.hasNew {
			typeBonus = 15
		}
		weightBonus := 0.0
		switch {
		case a.maxWeight > 5:
			weightBonus = 10
		case a.maxWeight > 2:
			weightBonus = 5
		}
		conviction := clamp(fundScore*recency+typeBonus+weightBonus, 0, 100)

		signals = append(signals, domain.RawSignal{
			Ticker:      ticker,
			Source:      domain.SourceArk,
			Direction:   "Bullish",
			Date:        a.date,
			Conviction:  conviction,
			Description: fmt.Sprintf("Bought across %d ARK fund(s)", len(a.funds)),
			RawData: map[string]interface{}{
				"company":      a.company,
				"fund_count":   len(a.funds),
				"new_position": a.hasNew,
				"max_weight":   a.maxWeight,
			},
		})
	}
	return signals
}

func arkFundTier(funds int) float64 {
	switch {
	case funds >= 5:
		return 85
	case funds == 4:
		return 75
	case funds == 3:
		return 60
	case funds == 2:
		return 40
	default:
		return 20
	}
}

// darkpoolSignals scores detector anomalies: Z tier x recency, plus DPI and
// volume bonuses. Entries below the Z gate never signal.
func (e *V2) darkpoolSignals(entries []domain.DarkPoolEntry) []domain.RawSignal {
	now := e.now()
	params := v2Recency[domain.SourceDarkPool]

	var signals []domain.RawSignal
	for _, entry := range entries {
		if entry.ZScore < domain.AnomalyMinZ {
			continue
		}
		ticker, ok := domain.NormalizeTicker(entry.Ticker)
		if !ok {
			continue
		}
		days := DaysAgo(entry.Date, now)
		if days > params.CapDays {
			continue
		}

		zTier := darkpoolZTier(entry.ZScore)
		recency := RecencyDecay(days, params.HalfLifeDays)
		dpiBonus := 0.0
		switch {
		case entry.DPI >= 0.8:
			dpiBonus = 15
		case entry.DPI >= 0.6:
			dpiBonus = 10
		case entry.DPI >= 0.4:
			dpiBonus = 5
		}
		volBonus := 0.0
		switch {
		case entry.TotalVolume >= 10_000_000:
			volBonus = 15
		case entry.TotalVolume >= 5_000_000:
			volBonus = 10
		case entry.TotalVolume >= 1_000_000:
			volBonus = 5
		}
		conviction := clamp(zTier*recency+dpiBonus+volBonus, 0, 100)

		signals = append(signals, domain.RawSignal{
			Ticker:      ticker,
			Source:      domain.SourceDarkPool,
			Direction:   "Bullish",
			Date:        entry.Date,
			Conviction:  conviction,
			Description: fmt.Sprintf("DPI %.2f at z=%.1f", entry.DPI, entry.ZScore),
			RawData: map[string]interface{}{
				"z_score":      entry.ZScore,
				"dpi":          entry.DPI,
				"total_volume": entry.TotalVolume,
			},
		})
	}
	return signals
}

func darkpoolZTier(z float64) float64 {
	switch {
	case z >= 5:
		return 85
	case z >= 4:
		return 70
	case z >= 3:
		return 50
	default:
		return 30
	}
}

// institutionSignals scores 13F positions worth at least $50M: value tier x
// recency, plus prestige, position change and multi-fund bonuses.
func (e *V2) institutionSignals(filings []domain.InstitutionFiling) []domain.RawSignal {
	now := e.now()
	params := v2Recency[domain.SourceInstitution]

	type acc struct {
		maxValue    float64
		funds       map[string]bool
		prestige    bool
		changeBonus float64
		date        string
		company     string
	}
	byTicker := map[string]*acc{}

	for _, filing := range filings {
		if DaysAgo(filing.FilingDate, now) > params.CapDays {
			continue
		}
		fundPrestige := isPrestigeFund(filing.FundName)
		for _, h := range filing.Holdings {
			if h.Value < domain.MinInstitutionValue {
				continue
			}
			ticker, ok := domain.NormalizeTicker(h.Ticker)
			if !ok {
				continue
			}
			a := byTicker[ticker]
			if a == nil {
				a = &acc{funds: map[string]bool{}}
				byTicker[ticker] = a
			}
			if h.Value > a.maxValue {
				a.maxValue = h.Value
			}
			a.funds[filing.FundName] = true
			a.prestige = a.prestige || fundPrestige
			if b := holdingChangeBonus(h); b > a.changeBonus {
				a.changeBonus = b
			}
			a.date = laterDate(a.date, filing.FilingDate)
			if a.company == "" {
				a.company = h.Issuer
			}
		}
	}

	var signals []domain.RawSignal
	for ticker, a := range byTicker {
		valTier := institutionValueTier(a.maxValue)
		recency := RecencyDecay(DaysAgo(a.date, now), params.HalfLifeDays)
		prestigeBonus := 0.0
		if a.prestige {
			prestigeBonus = 15
		}
		fundBonus := clamp(float64(len(a.funds)-1)*10, 0, 20)
		conviction := clamp(valTier*recency+prestigeBonus+a.changeBonus+fundBonus, 0, 100)

		signals = append(signals, domain.RawSignal{
			Ticker:     ticker,
			Source:     domain.SourceInstitution,
			Direction:  "Bullish",
			Date:       a.date,
			Conviction: conviction,
			Description: fmt.Sprintf("%d fund(s) holding, largest %s",
				len(a.funds), normalize.FormatDollars(a.maxValue)),
			RawData: map[string]interface{}{
				"company":      a.company,
				"max_value":    a.maxValue,
				"fund_count":   len(a.funds),
				"prestige":     a.prestige,
				"change_bonus": a.changeBonus,
			},
		})
	}
	return signals
}

func institutionValueTier(value float64) float64 {
	switch {
	case value >= 1_000_000_000:
		return 75
	case value >= 500_000_000:
		return 55
	case value >= 100_000_000:
		return 35
	default:
		return 20
	}
}

func holdingChangeBonus(h domain.InstitutionHolding) float64 {
	if h.IsNew {
		return 15
	}
	if h.ChangePct != nil {
		change := *h.ChangePct
		if change < 0 {
			change = -change
		}
		switch {
		case change >= 20:
			return 10
		case change >= 10:
			return 5
		}
	}
	return 0
}

func isPrestigeFund(fundName string) bool {
	lower := strings.ToLower(fundName)
	for _, name := range prestigeFunds {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// insiderSignals scores open-market insider buys of at least $10K: value tier
// x recency, plus cluster and executive title bonuses.
func (e *V2) insiderSignals(trades []domain.InsiderTrade, clusters []domain.InsiderCluster) []domain.RawSignal {
	now := e.now()
	params := v2Recency[domain.SourceInsider]

	clusterCount := map[string]int{}
	for _, c := range clusters {
		ticker, ok := domain.NormalizeTicker(c.Ticker)
		if !ok {
			continue
		}
		if c.InsiderCount > clusterCount[ticker] {
			clusterCount[ticker] = c.InsiderCount
		}
	}

	type acc struct {
		maxValue   float64
		titleBonus float64
		date       string
		company    string
	}
	byTicker := map[string]*acc{}

	for _, t := range trades {
		if t.TransactionType != "Buy" || t.Value < domain.MinInsiderValue {
			continue
		}
		ticker, ok := domain.NormalizeTicker(t.Ticker)
		if !ok {
			continue
		}
		if DaysAgo(t.TradeDate, now) > params.CapDays {
			continue
		}
		a := byTicker[ticker]
		if a == nil {
			a = &acc{}
			byTicker[ticker] = a
		}
		if t.Value > a.maxValue {
			a.maxValue = t.Value
		}
		if b := titleBonus(t.Title); b > a.titleBonus {
			a.titleBonus = b
		}
		a.date = laterDate(a.date, t.TradeDate)
		if a.company == "" {
			a.company = t.Company
		}
	}

	var signals []domain.RawSignal
	for ticker, a := range byTicker {
		valTier := insiderValueTier(a.maxValue)
		recency := RecencyDecay(DaysAgo(a.date, now), params.HalfLifeDays)
		clusterBonus := insiderClusterBonus(clusterCount[ticker])
		conviction := clamp(valTier*recency+clusterBonus+a.titleBonus, 0, 100)

		signals = append(signals, domain.RawSignal{
			Ticker:      ticker,
			Source:      domain.SourceInsider,
			Direction:   "Bullish",
			Date:        a.date,
			Conviction:  conviction,
			Description: fmt.Sprintf("Insider buying, largest %s", normalize.FormatDollars(a.maxValue)),
			RawData: map[string]interface{}{
				"company":       a.company,
				"max_value":     a.maxValue,
				"cluster_size":  clusterCount[ticker],
				"cluster_bonus": clusterBonus,
				"title_bonus":   a.titleBonus,
			},
		})
	}
	return signals
}

func insiderValueTier(value float64) float64 {
	switch {
	case value >= 5_000_000:
		return 80
	case value >= 1_000_000:
		return 65
	case value >= 500_000:
		return 50
	case value >= 100_000:
		return 30
	case value >= 50_000:
		return 15
	default:
		return 10
	}
}

func insiderClusterBonus(insiderCount int) float64 {
	switch {
	case insiderCount >= 5:
		return 25
	case insiderCount >= 4:
		return 20
	case insiderCount >= domain.ClusterMinInsiders:
		return 15
	default:
		return 0
	}
}

func titleBonus(title string) float64 {
	lower := strings.ToLower(title)
	for _, t := range []string{"ceo", "cfo", "coo", "cto", "president", "chairman", "chief"} {
		if strings.Contains(lower, t) {
			return 10
		}
	}
	for _, t := range []string{"vp", "vice president", "director", "svp"} {
		if strings.Contains(lower, t) {
			return 5
		}
	}
	return 0
}

// superinvestorSignals scores tracked-manager buying: manager breadth x
// recency, plus a portfolio concentration bonus. Aggregate rows supply manager
// counts directly; per_manager rows are counted by distinct manager.
func (e *V2) superinvestorSignals(activity []domain.SuperinvestorActivity) []domain.RawSignal {
	now := e.now()
	params := v2Recency[domain.SourceSuperinvestor]

	type acc struct {
		aggregateBuys int
		managers      map[string]bool
		maxPct        float64
		date          string
		company       string
	}
	byTicker := map[string]*acc{}

	for _, act := range activity {
		ticker, ok := domain.NormalizeTicker(act.Ticker)
		if !ok {
			continue
		}
		date := quarterEndDate(act.Quarter)
		if DaysAgo(date, now) > params.CapDays {
			continue
		}
		a := byTicker[ticker]
		if a == nil {
			a = &acc{managers: map[string]bool{}}
			byTicker[ticker] = a
		}
		switch act.Source {
		case domain.SuperinvestorSourceAggregate:
			if act.BuyCount > a.aggregateBuys {
				a.aggregateBuys = act.BuyCount
			}
		default: // per_manager
			if act.ActivityType == "Buy" || act.ActivityType == "Add" {
				a.managers[act.Manager] = true
			}
		}
		if act.PortfolioPct > a.maxPct {
			a.maxPct = act.PortfolioPct
		}
		a.date = laterDate(a.date, date)
		if a.company == "" {
			a.company = act.Company
		}
	}

	var signals []domain.RawSignal
	for ticker, a := range byTicker {
		// Aggregate counts take precedence over per-manager rows.
		buyers := a.aggregateBuys
		if buyers == 0 {
			buyers = len(a.managers)
		}
		if buyers == 0 {
			continue
		}
		base := superinvestorTier(buyers)
		recency := RecencyDecay(DaysAgo(a.date, now), params.HalfLifeDays)
		pctBonus := 0.0
		switch {
		case a.maxPct >= 5:
			pctBonus = 10
		case a.maxPct >= 2:
			pctBonus = 5
		}
		conviction := clamp(base*recency+pctBonus, 0, 100)

		signals = append(signals, domain.RawSignal{
			Ticker:      ticker,
			Source:      domain.SourceSuperinvestor,
			Direction:   "Bullish",
			Date:        a.date,
			Conviction:  conviction,
			Description: fmt.Sprintf("%d tracked manager(s) buying", buyers),
			RawData: map[string]interface{}{
				"company":       a.company,
				"manager_count": buyers,
				"max_pct":       a.maxPct,
			},
		})
	}
	return signals
}

func superinvestorTier(managers int) float64 {
	switch {
	case managers >= 10:
		return 80
	case managers >= 5:
		return 60
	case managers >= 3:
		return 45
	case managers >= 2:
		return 30
	default:
		return 20
	}
}

// shortInterestSignals scores short-interest buildups: change tier x recency,
// plus days-to-cover and short-float bonuses. The signal is intensity only;
// V7 treats the source as non-directional.
func (e *V2) shortInterestSignals(rows []domain.ShortInterestRow) []domain.RawSignal {
	now := e.now()
	params := v2Recency[domain.SourceShortInterest]

	var signals []domain.RawSignal
	for _, r := range rows {
		if r.ShortInterest < domain.MinShortInterest {
			continue
		}
		ticker, ok := domain.NormalizeTicker(r.Ticker)
		if !ok {
			continue
		}
		days := DaysAgo(r.SettlementDate, now)
		if days > params.CapDays {
			continue
		}

		tier := shortChangeTier(r.ChangePct)
		recency := RecencyDecay(days, params.HalfLifeDays)
		coverBonus := 0.0
		switch {
		case r.DaysToCover >= 10:
			coverBonus = 15
		case r.DaysToCover >= 5:
			coverBonus = 10
		case r.DaysToCover >= 3:
			coverBonus = 5
		}
		floatBonus := 0.0
		if r.ShortPctFloat != nil {
			switch {
			case *r.ShortPctFloat >= 20:
				floatBonus = 15
			case *r.ShortPctFloat >= 10:
				floatBonus = 10
			case *r.ShortPctFloat >= 5:
				floatBonus = 5
			}
		}
		conviction := clamp(tier*recency+coverBonus+floatBonus, 0, 100)

		signals = append(signals, domain.RawSignal{
			Ticker:      ticker,
			Source:      domain.SourceShortInterest,
			Direction:   "Bullish",
			Date:        r.SettlementDate,
			Conviction:  conviction,
			Description: fmt.Sprintf("Short interest %+.1f%%, %.1f days to cover", r.ChangePct, r.DaysToCover),
			RawData: map[string]interface{}{
				"short_interest": r.ShortInterest,
				"change_pct":     r.ChangePct,
				"days_to_cover":  r.DaysToCover,
			},
		})
	}
	return signals
}

func shortChangeTier(changePct float64) float64 {
	switch {
	case changePct >= 50:
		return 70
	case changePct >= 25:
		return 55
	case changePct >= 10:
		return 40
	default:
		return 25
	}
}
