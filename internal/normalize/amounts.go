package normalize

import (
	"strconv"
	"strings"
)

// rangeMidpoints maps the named congressional disclosure ranges to the
// midpoint used when no explicit maximum is available.
var rangeMidpoints = map[string]float64{
	"$1,001 - $15,000":          8_000,
	"$15,001 - $50,000":         32_500,
	"$50,001 - $100,000":        75_000,
	"$100,001 - $250,000":       175_000,
	"$250,001 - $500,000":       375_000,
	"$500,001 - $1,000,000":     750_000,
	"$1,000,001 - $5,000,000":   3_000_000,
	"$5,000,001 - $25,000,000":  15_000_000,
	"$25,000,001 - $50,000,000": 37_500_000,
	"Over $50,000,000":          75_000_000,
}

// ParseAmountRange parses a disclosure range string ("$1,001 - $15,000") into
// its low and high bounds. "Over $X" collapses to (X, X). Empty or
// unparseable input yields (0, 0).
func ParseAmountRange(raw string) (float64, float64) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, 0
	}

	if lower := strings.ToLower(s); strings.HasPrefix(lower, "over") {
		v, ok := parseDollars(strings.TrimSpace(s[4:]))
		if !ok {
			return 0, 0
		}
		return v, v
	}

	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	lo, okLo := parseDollars(parts[0])
	hi, okHi := parseDollars(parts[1])
	if !okLo || !okHi {
		return 0, 0
	}
	return lo, hi
}

// AmountFromRange returns the dollar amount to score a trade at: the explicit
// amountMax when present, otherwise the named-range midpoint, otherwise the
// midpoint of the parsed bounds.
func AmountFromRange(rangeStr string, amountMax float64) float64 {
	if amountMax > 0 {
		return amountMax
	}
	if mid, ok := rangeMidpoints[strings.TrimSpace(rangeStr)]; ok {
		return mid
	}
	lo, hi := ParseAmountRange(rangeStr)
	if lo == 0 && hi == 0 {
		return 0
	}
	return (lo + hi) / 2
}

// parseDollars parses "$1,234,567" (and bare numbers) into a float.
func parseDollars(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// FormatDollars reprints an amount the way disclosure ranges write them, with
// comma grouping and no decimals.
func FormatDollars(v float64) string {
	n := int64(v)
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	out := "$" + b.String()
	if neg {
		out = "-" + out
	}
	return out
}
