package collectors

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/aristath/smartmoney/internal/cache"
	"github.com/aristath/smartmoney/internal/domain"
)

// SuperinvestorsInput is the raw quarterly input: pre-structured activity and
// holdings rows, plus optional raw HTML pages that the collector parses
// itself. Both paths feed the same artifact.
type SuperinvestorsInput struct {
	Activity []domain.SuperinvestorActivity
	Holdings []domain.SuperinvestorHolding
	// AggregateHTML is the curated site's consensus page (one row per ticker
	// with manager buy/sell counts). Optional.
	AggregateHTML []byte
	// ManagerPages maps manager name to that manager's portfolio page HTML.
	// Optional.
	ManagerPages map[string][]byte
	// Quarter labels rows parsed from HTML, e.g. "Q1_2026".
	Quarter string
}

// SuperinvestorsCollector ingests curated superinvestor portfolio activity.
// Aggregate and per-manager rows are both kept, distinguished by source.
type SuperinvestorsCollector struct {
	Store  *cache.Store
	Source func() (SuperinvestorsInput, error)
	Now    func() time.Time
	Log    zerolog.Logger
}

// NewSuperinvestorsCollector builds the collector.
func NewSuperinvestorsCollector(store *cache.Store, source func() (SuperinvestorsInput, error), log zerolog.Logger) *SuperinvestorsCollector {
	return &SuperinvestorsCollector{
		Store:  store,
		Source: source,
		Log:    log.With().Str("collector", domain.SourceSuperinvestor).Logger(),
	}
}

// Name returns the source identifier.
func (c *SuperinvestorsCollector) Name() string { return domain.SourceSuperinvestor }

// Run merges structured and HTML inputs and writes superinvestors.json.
func (c *SuperinvestorsCollector) Run() (int, error) {
	now := clock(c.Now)

	input, err := c.Source()
	if err != nil {
		c.Log.Error().Err(err).Msg("Failed to read superinvestors source")
		c.writeEmpty(now, err)
		return 0, fetchErr(err)
	}

	activity := make([]domain.SuperinvestorActivity, 0, len(input.Activity))
	holdings := make([]domain.SuperinvestorHolding, 0, len(input.Holdings))

	if len(input.AggregateHTML) > 0 {
		rows, err := ParseAggregateActivity(input.AggregateHTML, input.Quarter)
		if err != nil {
			c.Log.Warn().Err(err).Msg("Failed to parse aggregate activity page")
		} else {
			activity = append(activity, rows...)
		}
	}
	for manager, html := range input.ManagerPages {
		acts, holds, err := ParseManagerPage(manager, html, input.Quarter)
		if err != nil {
			c.Log.Warn().Str("manager", manager).Err(err).Msg("Failed to parse manager page")
			continue
		}
		activity = append(activity, acts...)
		holdings = append(holdings, holds...)
	}

	for _, a := range input.Activity {
		ticker, ok := domain.NormalizeTicker(a.Ticker)
		if !ok || !validActivityType(a.ActivityType) {
			continue
		}
		a.Ticker = ticker
		activity = append(activity, a)
	}
	for _, h := range input.Holdings {
		ticker, ok := domain.NormalizeTicker(h.Ticker)
		if !ok {
			continue
		}
		h.Ticker = ticker
		holdings = append(holdings, h)
	}

	sort.SliceStable(activity, func(i, j int) bool {
		if activity[i].Source != activity[j].Source {
			// Aggregate rows first.
			return activity[i].Source == domain.SuperinvestorSourceAggregate
		}
		if activity[i].Ticker != activity[j].Ticker {
			return activity[i].Ticker < activity[j].Ticker
		}
		return activity[i].Manager < activity[j].Manager
	})
	sort.SliceStable(holdings, func(i, j int) bool {
		if holdings[i].Manager != holdings[j].Manager {
			return holdings[i].Manager < holdings[j].Manager
		}
		return holdings[i].PortfolioPct > holdings[j].PortfolioPct
	})

	artifact := domain.SuperinvestorArtifact{
		Activity: activity,
		Holdings: holdings,
		Metadata: domain.NewMetadata(len(activity), now),
	}
	if err := c.Store.Write(domain.ArtifactSuperinvestor, artifact); err != nil {
		return 0, parseErr(fmt.Errorf("failed to write superinvestors artifact: %w", err))
	}
	c.Log.Info().Int("activity", len(activity)).Int("holdings", len(holdings)).Msg("Superinvestors artifact refreshed")
	return len(activity), nil
}

// ParseAggregateActivity parses the consensus page: an HTML table with one row
// per ticker carrying manager buy and sell counts for the quarter. Expected
// columns: symbol, company, buys, sells.
func ParseAggregateActivity(html []byte, quarter string) ([]domain.SuperinvestorActivity, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse aggregate page: %w", err)
	}

	var rows []domain.SuperinvestorActivity
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 4 {
			return
		}
		ticker, ok := domain.NormalizeTicker(cellText(cells, 0))
		if !ok {
			return
		}
		buys := parseCellInt(cellText(cells, 2))
		sells := parseCellInt(cellText(cells, 3))
		if buys == 0 && sells == 0 {
			return
		}
		activityType := "Buy"
		if sells > buys {
			activityType = "Sell"
		}
		rows = append(rows, domain.SuperinvestorActivity{
			Ticker:       ticker,
			Company:      cellText(cells, 1),
			ActivityType: activityType,
			Quarter:      quarter,
			Source:       domain.SuperinvestorSourceAggregate,
			BuyCount:     buys,
			SellCount:    sells,
		})
	})
	return rows, nil
}

// ParseManagerPage parses an individual manager's portfolio page: an activity
// table (symbol, company, action, % of portfolio, change) and a top-holdings
// table (symbol, company, % of portfolio). Tables are distinguished by the
// presence of an action column.
func ParseManagerPage(manager string, html []byte, quarter string) ([]domain.SuperinvestorActivity, []domain.SuperinvestorHolding, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse manager page: %w", err)
	}

	var activity []domain.SuperinvestorActivity
	var holdings []domain.SuperinvestorHolding

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		headers := headerTexts(table)
		actionCol := indexOfHeader(headers, "action", "activity")
		symbolCol := indexOfHeader(headers, "symbol", "ticker", "stock")
		pctCol := indexOfHeader(headers, "% of portfolio", "portfolio", "weight")
		companyCol := indexOfHeader(headers, "company", "name")
		changeCol := indexOfHeader(headers, "change", "% change")
		if symbolCol < 0 {
			return
		}

		table.Find("tbody tr, tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td")
			if cells.Length() <= symbolCol {
				return
			}
			ticker, ok := domain.NormalizeTicker(cellText(cells, symbolCol))
			if !ok {
				return
			}
			company := ""
			if companyCol >= 0 {
				company = cellText(cells, companyCol)
			}
			pct := 0.0
			if pctCol >= 0 {
				pct = parseCellPct(cellText(cells, pctCol))
			}

			if actionCol >= 0 && cells.Length() > actionCol {
				action := normalizeAction(cellText(cells, actionCol))
				if action == "" {
					return
				}
				change := 0.0
				if changeCol >= 0 && cells.Length() > changeCol {
					change = parseCellPct(cellText(cells, changeCol))
				}
				activity = append(activity, domain.SuperinvestorActivity{
					Ticker:       ticker,
					Company:      company,
					Manager:      manager,
					ActivityType: action,
					PortfolioPct: pct,
					ChangePct:    change,
					Quarter:      quarter,
					Source:       domain.SuperinvestorSourcePerManager,
				})
				return
			}
			if pct <= 0 {
				return
			}
			holdings = append(holdings, domain.SuperinvestorHolding{
				Manager:      manager,
				Ticker:       ticker,
				Company:      company,
				PortfolioPct: pct,
			})
		})
	})
	return activity, holdings, nil
}

func headerTexts(table *goquery.Selection) []string {
	var headers []string
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.ToLower(strings.TrimSpace(th.Text())))
	})
	return headers
}

func indexOfHeader(headers []string, names ...string) int {
	for i, h := range headers {
		for _, name := range names {
			if strings.Contains(h, name) {
				return i
			}
		}
	}
	return -1
}

func cellText(cells *goquery.Selection, i int) string {
	return strings.TrimSpace(cells.Eq(i).Text())
}

func parseCellInt(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseCellPct(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func normalizeAction(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, "add"):
		return "Add"
	case strings.Contains(s, "reduce"):
		return "Reduce"
	case strings.Contains(s, "buy"):
		return "Buy"
	case strings.Contains(s, "sell"), strings.Contains(s, "sold"):
		return "Sell"
	}
	return ""
}

func validActivityType(t string) bool {
	switch t {
	case "Buy", "Add", "Sell", "Reduce":
		return true
	}
	return false
}

func (c *SuperinvestorsCollector) writeEmpty(now time.Time, cause error) {
	artifact := domain.SuperinvestorArtifact{
		Activity: []domain.SuperinvestorActivity{},
		Holdings: []domain.SuperinvestorHolding{},
		Metadata: emptyMetadata(now, cause.Error()),
	}
	if err := c.Store.Write(domain.ArtifactSuperinvestor, artifact); err != nil {
		c.Log.Error().Err(err).Msg("Failed to write empty superinvestors artifact")
	}
}
