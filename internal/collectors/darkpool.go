package collectors

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/smartmoney/internal/cache"
	"github.com/aristath/smartmoney/internal/darkpool"
	"github.com/aristath/smartmoney/internal/domain"
	"github.com/aristath/smartmoney/internal/normalize"
)

// DarkPoolCollector parses the daily short-volume wire files into per-ticker
// DPI time series and runs the anomaly detector over them.
type DarkPoolCollector struct {
	Store *cache.Store
	// Source provides the raw per-day files for the trailing 30 trading days
	// (weekends and holidays simply have no file).
	Source   func() ([][]byte, error)
	Detector *darkpool.Detector
	Now      func() time.Time
	Log      zerolog.Logger
}

// NewDarkPoolCollector builds the collector.
func NewDarkPoolCollector(store *cache.Store, source func() ([][]byte, error), det *darkpool.Detector, log zerolog.Logger) *DarkPoolCollector {
	return &DarkPoolCollector{
		Store:    store,
		Source:   source,
		Detector: det,
		Log:      log.With().Str("collector", domain.SourceDarkPool).Logger(),
	}
}

// Name returns the source identifier.
func (c *DarkPoolCollector) Name() string { return domain.SourceDarkPool }

// Run builds the time series, detects anomalies and writes darkpool.json.
func (c *DarkPoolCollector) Run() (int, error) {
	now := clock(c.Now)

	files, err := c.Source()
	if err != nil {
		c.Log.Error().Err(err).Msg("Failed to read dark pool files")
		c.writeEmpty(now, err)
		return 0, fetchErr(err)
	}

	series := map[string][]domain.DarkPoolRecord{}
	skipped := 0
	for _, data := range files {
		records, bad := ParseDarkPoolDay(data)
		skipped += bad
		for _, r := range records {
			series[r.Ticker] = append(series[r.Ticker], r)
		}
	}
	// Z-score input is oldest-first per ticker.
	for ticker := range series {
		recs := series[ticker]
		sort.Slice(recs, func(i, j int) bool { return recs[i].Date < recs[j].Date })
		series[ticker] = recs
	}

	result := c.Detector.Detect(series)
	md := domain.NewMetadata(len(result.Entries), now)
	md.AnomalyCount = len(result.Anomalies)
	artifact := domain.DarkPoolArtifact{
		Tickers:   result.Entries,
		Anomalies: result.Anomalies,
		Metadata:  md,
	}
	if err := c.Store.Write(domain.ArtifactDarkPool, artifact); err != nil {
		return 0, parseErr(fmt.Errorf("failed to write dark pool artifact: %w", err))
	}

	c.Log.Info().
		Int("tickers", len(result.Entries)).
		Int("anomalies", len(result.Anomalies)).
		Int("skipped_rows", skipped).
		Msg("Dark pool artifact refreshed")
	return len(result.Entries), nil
}

// ParseDarkPoolDay parses one pipe-delimited daily file with header
// Date|Symbol|ShortVolume|ShortExemptVolume|TotalVolume|Market. Rows that
// fail to parse or carry zero total volume are skipped and counted.
func ParseDarkPoolDay(data []byte) ([]domain.DarkPoolRecord, int) {
	var records []domain.DarkPoolRecord
	skipped := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			if strings.HasPrefix(line, "Date|") {
				continue
			}
		}
		fields := strings.Split(line, "|")
		if len(fields) < 5 {
			skipped++
			continue
		}
		ticker, ok := domain.NormalizeTicker(fields[1])
		if !ok {
			skipped++
			continue
		}
		shortVol, err1 := strconv.ParseInt(fields[2], 10, 64)
		totalVol, err2 := strconv.ParseInt(fields[4], 10, 64)
		if err1 != nil || err2 != nil || totalVol <= 0 || shortVol < 0 || shortVol > totalVol {
			skipped++
			continue
		}
		records = append(records, domain.DarkPoolRecord{
			Ticker:      ticker,
			Date:        normalizeWireDate(fields[0]),
			ShortVolume: shortVol,
			TotalVolume: totalVol,
			DPI:         normalize.DPI(shortVol, totalVol),
		})
	}
	return records, skipped
}

// normalizeWireDate converts the wire's YYYYMMDD into ISO, passing ISO input
// through.
func normalizeWireDate(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) == 8 {
		if t, err := time.Parse("20060102", s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func (c *DarkPoolCollector) writeEmpty(now time.Time, cause error) {
	artifact := domain.DarkPoolArtifact{
		Tickers:   []domain.DarkPoolEntry{},
		Anomalies: []domain.DarkPoolEntry{},
		Metadata:  emptyMetadata(now, cause.Error()),
	}
	if err := c.Store.Write(domain.ArtifactDarkPool, artifact); err != nil {
		c.Log.Error().Err(err).Msg("Failed to write empty dark pool artifact")
	}
}
