package engine

import (
	"github.com/aristath/smartmoney/internal/domain"
)

// directionCounts tallies buy vs sell occurrences for one (ticker, source).
type directionCounts struct {
	buys  int
	sells int
}

func (c directionCounts) resolve() string {
	switch {
	case c.buys > c.sells:
		return domain.DirectionBullish
	case c.sells > c.buys:
		return domain.DirectionBearish
	default:
		return domain.DirectionNeutral
	}
}

// DetectDirections derives per-ticker per-source direction from the raw
// directional artifacts: legislator, ARK and insider trades plus
// superinvestor activity. Always-neutral sources are not represented here;
// V7 overrides them regardless.
func DetectDirections(in Inputs) map[string]map[string]string {
	counts := map[string]map[string]*directionCounts{}

	bump := func(ticker, source string, buy bool, n int) {
		t, ok := domain.NormalizeTicker(ticker)
		if !ok || n <= 0 {
			return
		}
		bySource := counts[t]
		if bySource == nil {
			bySource = map[string]*directionCounts{}
			counts[t] = bySource
		}
		c := bySource[source]
		if c == nil {
			c = &directionCounts{}
			bySource[source] = c
		}
		if buy {
			c.buys += n
		} else {
			c.sells += n
		}
	}

	for _, t := range in.Congress {
		switch t.TradeType {
		case "Buy", "Purchase":
			bump(t.Ticker, domain.SourceCongress, true, 1)
		case "Sell", "Sale":
			bump(t.Ticker, domain.SourceCongress, false, 1)
		}
	}

	for _, t := range in.ArkTrades {
		switch t.TradeType {
		case "Buy":
			bump(t.Ticker, domain.SourceArk, true, 1)
		case "Sell":
			bump(t.Ticker, domain.SourceArk, false, 1)
		}
	}

	for _, t := range in.InsiderTrades {
		switch t.TransactionType {
		case "Buy":
			bump(t.Ticker, domain.SourceInsider, true, 1)
		case "Sale", "Sell":
			bump(t.Ticker, domain.SourceInsider, false, 1)
		}
	}

	// Superinvestor aggregate rows carry manager counts per direction and take
	// precedence; per_manager rows each count once.
	aggregateSeen := map[string]bool{}
	for _, act := range in.Superinvestors {
		if act.Source != domain.SuperinvestorSourceAggregate {
			continue
		}
		t, ok := domain.NormalizeTicker(act.Ticker)
		if !ok {
			continue
		}
		aggregateSeen[t] = true
		bump(act.Ticker, domain.SourceSuperinvestor, true, act.BuyCount)
		bump(act.Ticker, domain.SourceSuperinvestor, false, act.SellCount)
	}
	for _, act := range in.Superinvestors {
		if act.Source == domain.SuperinvestorSourceAggregate {
			continue
		}
		t, ok := domain.NormalizeTicker(act.Ticker)
		if !ok || aggregateSeen[t] {
			continue
		}
		switch act.ActivityType {
		case "Buy", "Add":
			bump(act.Ticker, domain.SourceSuperinvestor, true, 1)
		case "Sell", "Reduce":
			bump(act.Ticker, domain.SourceSuperinvestor, false, 1)
		}
	}

	directions := map[string]map[string]string{}
	for ticker, bySource := range counts {
		directions[ticker] = map[string]string{}
		for source, c := range bySource {
			directions[ticker][source] = c.resolve()
		}
	}
	return directions
}
