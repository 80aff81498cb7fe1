// Package darkpool implements the rolling Z-score anomaly detector over the
// Dark Pool Index. The detector is stateless: given the same time series and
// reference date it always produces the same entries.
package darkpool

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/smartmoney/internal/domain"
)

// minStdev prevents division blow-up on flat series.
const minStdev = 0.001

// Detector computes DPI anomalies per ticker.
type Detector struct {
	// Now is the reference date. Tests inject a fixed date; production wiring
	// leaves it nil for wall clock.
	Now func() time.Time
}

// New creates a detector using the wall clock.
func New() *Detector {
	return &Detector{Now: time.Now}
}

// Result holds ranked detector output for one pass.
type Result struct {
	Entries   []domain.DarkPoolEntry
	Anomalies []domain.DarkPoolEntry
}

// Detect evaluates each ticker's time series. Series must be ordered
// oldest-first; tickers with fewer than MinHistoryDays observations are
// skipped.
func (d *Detector) Detect(series map[string][]domain.DarkPoolRecord) Result {
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}

	var res Result
	for ticker, records := range series {
		entry, ok := d.evaluate(ticker, records, now)
		if !ok {
			continue
		}
		res.Entries = append(res.Entries, entry)
		if entry.IsAnomaly {
			res.Anomalies = append(res.Anomalies, entry)
		}
	}

	byZ := func(entries []domain.DarkPoolEntry) {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].ZScore != entries[j].ZScore {
				return entries[i].ZScore > entries[j].ZScore
			}
			return entries[i].Ticker < entries[j].Ticker
		})
	}
	byZ(res.Entries)
	byZ(res.Anomalies)
	return res
}

// evaluate scores a single ticker's series against its trailing window.
func (d *Detector) evaluate(ticker string, records []domain.DarkPoolRecord, now time.Time) (domain.DarkPoolEntry, bool) {
	if len(records) < domain.MinHistoryDays {
		return domain.DarkPoolEntry{}, false
	}

	dpis := make([]float64, len(records))
	for i, r := range records {
		dpis[i] = r.DPI
	}

	// Current day is scored against the 30 prior trading days when available,
	// otherwise against all prior observations.
	var window []float64
	current := dpis[len(dpis)-1]
	if len(dpis) >= domain.ZScoreWindow+1 {
		window = dpis[len(dpis)-domain.ZScoreWindow-1 : len(dpis)-1]
	} else {
		window = dpis[:len(dpis)-1]
	}

	mean := stat.Mean(window, nil)
	stdev := stat.StdDev(window, nil)
	if stdev < minStdev {
		stdev = minStdev
	}
	z := (current - mean) / stdev

	latest := records[len(records)-1]
	entry := domain.DarkPoolEntry{
		Ticker:      ticker,
		Date:        latest.Date,
		DPI:         current,
		ZScore:      z,
		TotalVolume: latest.TotalVolume,
	}
	entry.IsAnomaly = z >= domain.AnomalyMinZ &&
		current >= domain.AnomalyMinDPI &&
		latest.TotalVolume >= domain.AnomalyMinVolume &&
		withinDays(latest.Date, now, domain.AnomalyRecencyDays)

	return entry, true
}

// withinDays reports whether dateStr falls within the last n days of now.
// Malformed dates are treated as stale.
func withinDays(dateStr string, now time.Time, n int) bool {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return false
	}
	return now.Sub(t) <= time.Duration(n)*24*time.Hour
}
