// Package engine implements the signal extraction and ranking engines: the V2
// per-source conviction scorer, the V7 directional confluence ranker and the
// original V1 weighted formula kept as a compatibility check.
package engine

import (
	"math"
	"time"
)

// malformedDateDays is returned by DaysAgo for unparseable dates, pushing the
// event far outside every recency window.
const malformedDateDays = 9999

// DaysAgo returns whole days between dateStr (ISO YYYY-MM-DD) and now,
// clamped at zero for future dates.
func DaysAgo(dateStr string, now time.Time) int {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return malformedDateDays
	}
	days := int(now.Sub(t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// RecencyDecay is exponential decay with the given half-life in days: an event
// half a life old contributes sqrt(1/2) of its weight, a full life old 1/2.
func RecencyDecay(days int, halfLifeDays float64) float64 {
	if halfLifeDays <= 0 {
		return 0
	}
	return math.Exp(-math.Ln2 * float64(days) / halfLifeDays)
}

// round1 rounds to one decimal, the precision of every published score.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 rounds to two decimals (V1 0-10 scale).
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// laterDate returns the later of two ISO dates, tolerating empty values.
func laterDate(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if b > a {
		return b
	}
	return a
}
