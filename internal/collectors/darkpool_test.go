package collectors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDarkPoolDay(t *testing.T) {
	data := strings.Join([]string{
		"Date|Symbol|ShortVolume|ShortExemptVolume|TotalVolume|Market",
		"20260125|AMC|44500000|1000|50000000|Q",
		"2026-01-25|GME|900000|0|2000000|Q",
		// Too few fields.
		"20260125|BAD|123",
		// Zero total volume.
		"20260125|ZERO|0|0|0|Q",
		// Short volume exceeding total volume is corrupt.
		"20260125|CORRUPT|300|0|200|Q",
		// Warrants are not equities.
		"20260125|ABC+|100|0|1000|Q",
		"",
	}, "\n")

	records, skipped := ParseDarkPoolDay([]byte(data))
	require.Len(t, records, 2)
	assert.Equal(t, 4, skipped)

	amc := records[0]
	assert.Equal(t, "AMC", amc.Ticker)
	assert.Equal(t, "2026-01-25", amc.Date)
	assert.Equal(t, int64(44_500_000), amc.ShortVolume)
	assert.Equal(t, int64(50_000_000), amc.TotalVolume)
	assert.InDelta(t, 0.89, amc.DPI, 1e-9)

	// ISO dates pass through unchanged.
	assert.Equal(t, "2026-01-25", records[1].Date)
}

func TestParseDarkPoolDayNoHeader(t *testing.T) {
	records, skipped := ParseDarkPoolDay([]byte("20260125|AMC|100|0|1000|Q\n"))
	require.Len(t, records, 1)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, "AMC", records[0].Ticker)
}

func TestNormalizeWireDate(t *testing.T) {
	assert.Equal(t, "2026-01-25", normalizeWireDate("20260125"))
	assert.Equal(t, "2026-01-25", normalizeWireDate("2026-01-25"))
	assert.Equal(t, "garbage!", normalizeWireDate("garbage!"))
}
