package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"lowercase", "nvda", "NVDA", true},
		{"surrounding whitespace", "  AAPL ", "AAPL", true},
		{"multi-class share", "brk.b", "BRK.B", true},
		{"single letter", "F", "F", true},
		{"six letters", "GOOGLE", "GOOGLE", true},
		{"placeholder dash", "--", "", false},
		{"empty", "", "", false},
		{"warrant marker", "ABC+", "", false},
		{"unit marker", "ABC=", "", false},
		{"index symbol", "^VIX", "", false},
		{"cash row", "$CASH", "", false},
		{"embedded space", "AB C", "", false},
		{"too long", "TOOLONG", "", false},
		{"digits", "A1B", "", false},
		{"double dot", "A.B.C", "", false},
		{"empty suffix", "BRK.", "", false},
		{"long suffix", "BRK.ABC", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeTicker(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceWeightsCoverAllSources(t *testing.T) {
	for _, source := range AllSources {
		assert.Contains(t, SourceWeights, source)
	}
	assert.Len(t, SourceWeights, len(AllSources))
}
