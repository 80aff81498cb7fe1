package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmountRange(t *testing.T) {
	tests := []struct {
		raw    string
		wantLo float64
		wantHi float64
	}{
		{"$1,001 - $15,000", 1_001, 15_000},
		{"$100,001 - $250,000", 100_001, 250_000},
		{"Over $50,000,000", 50_000_000, 50_000_000},
		{"over $1,000,000", 1_000_000, 1_000_000},
		{"1001 - 15000", 1_001, 15_000},
		{"", 0, 0},
		{"unknown", 0, 0},
		{"$5,000", 0, 0},
	}
	for _, tt := range tests {
		lo, hi := ParseAmountRange(tt.raw)
		assert.Equal(t, tt.wantLo, lo, "low bound of %q", tt.raw)
		assert.Equal(t, tt.wantHi, hi, "high bound of %q", tt.raw)
	}
}

func TestAmountFromRange(t *testing.T) {
	// Explicit max wins over the range.
	assert.Equal(t, 200_000.0, AmountFromRange("$100,001 - $250,000", 200_000))

	// Named disclosure ranges use their published midpoints.
	assert.Equal(t, 175_000.0, AmountFromRange("$100,001 - $250,000", 0))
	assert.Equal(t, 8_000.0, AmountFromRange("$1,001 - $15,000", 0))
	assert.Equal(t, 75_000_000.0, AmountFromRange("Over $50,000,000", 0))

	// Unnamed ranges fall back to the arithmetic midpoint.
	assert.Equal(t, 3_000.0, AmountFromRange("$2,000 - $4,000", 0))

	assert.Equal(t, 0.0, AmountFromRange("", 0))
}

func TestFormatDollars(t *testing.T) {
	assert.Equal(t, "$175,000", FormatDollars(175_000))
	assert.Equal(t, "$1,000,000", FormatDollars(1_000_000))
	assert.Equal(t, "$500", FormatDollars(500))
	assert.Equal(t, "$0", FormatDollars(0))
	assert.Equal(t, "-$1,234", FormatDollars(-1_234))
}
