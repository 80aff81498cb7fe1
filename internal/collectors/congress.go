package collectors

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/smartmoney/internal/cache"
	"github.com/aristath/smartmoney/internal/domain"
	"github.com/aristath/smartmoney/internal/normalize"
)

// CongressRecord is the provider-shaped legislator trade row.
type CongressRecord struct {
	Ticker          string   `json:"Ticker"`
	Company         string   `json:"Company"`
	Representative  string   `json:"Representative"`
	Party           string   `json:"Party"`
	House           string   `json:"House"`
	Transaction     string   `json:"Transaction"`
	Range           string   `json:"Range"`
	Amount          float64  `json:"Amount"`
	TransactionDate string   `json:"TransactionDate"`
	ReportDate      string   `json:"ReportDate"`
	ExcessReturn    *float64 `json:"ExcessReturn"`
	PriceChange     *float64 `json:"PriceChange"`
	SPYChange       *float64 `json:"SPYChange"`
}

// CongressCollector normalizes legislator trade disclosures.
type CongressCollector struct {
	Store *cache.Store
	// Source reads the raw provider records. The default reads the JSONL drop
	// file under the raw directory; collaborator fetchers replace it.
	Source func() ([]CongressRecord, error)
	Now    func() time.Time
	Log    zerolog.Logger
}

// NewCongressCollector builds a collector over a raw record source.
func NewCongressCollector(store *cache.Store, source func() ([]CongressRecord, error), log zerolog.Logger) *CongressCollector {
	return &CongressCollector{
		Store:  store,
		Source: source,
		Log:    log.With().Str("collector", domain.SourceCongress).Logger(),
	}
}

// Name returns the source identifier.
func (c *CongressCollector) Name() string { return domain.SourceCongress }

// Run ingests the raw records and writes congress.json.
func (c *CongressCollector) Run() (int, error) {
	now := clock(c.Now)

	records, err := c.Source()
	if err != nil {
		c.Log.Error().Err(err).Msg("Failed to read congress source")
		c.writeEmpty(now, err)
		return 0, fetchErr(err)
	}

	trades := c.Normalize(records)
	artifact := domain.CongressArtifact{
		Trades:   trades,
		Metadata: congressMetadata(trades, now),
	}
	if err := c.Store.Write(domain.ArtifactCongress, artifact); err != nil {
		return 0, parseErr(fmt.Errorf("failed to write congress artifact: %w", err))
	}
	c.Log.Info().Int("trades", len(trades)).Msg("Congress artifact refreshed")
	return len(trades), nil
}

// Normalize maps provider records to canonical trades, dropping rows without
// a usable ticker and sorting by transaction date descending.
func (c *CongressCollector) Normalize(records []CongressRecord) []domain.LegislatorTrade {
	trades := make([]domain.LegislatorTrade, 0, len(records))
	for _, rec := range records {
		ticker, ok := domain.NormalizeTicker(rec.Ticker)
		if !ok {
			continue
		}
		lo, hi := normalize.ParseAmountRange(rec.Range)
		trades = append(trades, domain.LegislatorTrade{
			Ticker:          ticker,
			Politician:      strings.TrimSpace(rec.Representative),
			Party:           normalize.Party(rec.Party),
			Chamber:         normalize.Chamber(rec.House),
			TradeType:       normalize.TradeType(rec.Transaction),
			TransactionDate: rec.TransactionDate,
			FilingDate:      rec.ReportDate,
			AmountMin:       lo,
			AmountMax:       hi,
			AmountRange:     strings.TrimSpace(rec.Range),
			ExcessReturnPct: rec.ExcessReturn,
			PriceChangePct:  rec.PriceChange,
			SPYChangePct:    rec.SPYChange,
		})
	}
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].TransactionDate != trades[j].TransactionDate {
			return trades[i].TransactionDate > trades[j].TransactionDate
		}
		return trades[i].Ticker < trades[j].Ticker
	})
	return trades
}

func congressMetadata(trades []domain.LegislatorTrade, now time.Time) domain.Metadata {
	md := domain.NewMetadata(len(trades), now)
	var positionSum, excessSum float64
	var positionN, excessN int
	for _, t := range trades {
		switch t.TradeType {
		case "Buy":
			md.BuyCount++
		case "Sell":
			md.SellCount++
		}
		if t.AmountMin > 0 || t.AmountMax > 0 {
			positionSum += (t.AmountMin + t.AmountMax) / 2
			positionN++
		}
		if t.ExcessReturnPct != nil {
			excessSum += *t.ExcessReturnPct
			excessN++
		}
	}
	if positionN > 0 {
		md.AvgPosition = positionSum / float64(positionN)
	}
	if excessN > 0 {
		md.AvgExcessReturn = excessSum / float64(excessN)
	}
	return md
}

func (c *CongressCollector) writeEmpty(now time.Time, cause error) {
	artifact := domain.CongressArtifact{
		Trades:   []domain.LegislatorTrade{},
		Metadata: emptyMetadata(now, cause.Error()),
	}
	if err := c.Store.Write(domain.ArtifactCongress, artifact); err != nil {
		c.Log.Error().Err(err).Msg("Failed to write empty congress artifact")
	}
}

// readCongressFile reads a raw drop file: JSONL (one record per line) or a
// single JSON array.
func readCongressFile(path string) ([]CongressRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open congress raw file: %w", err)
	}
	defer f.Close()
	return ParseCongressRecords(f)
}

// ParseCongressRecords decodes provider records from JSONL or JSON array
// input.
func ParseCongressRecords(r io.Reader) ([]CongressRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read congress input: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var records []CongressRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to parse congress JSON array: %w", err)
		}
		return records, nil
	}

	// JSONL: skip individually malformed lines, counting them as record-level
	// failures rather than failing the batch.
	var records []CongressRecord
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec CongressRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan congress JSONL: %w", err)
	}
	return records, nil
}
