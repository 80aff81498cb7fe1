package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCUSIPToTicker(t *testing.T) {
	ticker, ok := CUSIPToTicker("037833100")
	assert.True(t, ok)
	assert.Equal(t, "AAPL", ticker)

	// Lookup tolerates case and whitespace.
	ticker, ok = CUSIPToTicker(" 02079k305 ")
	assert.True(t, ok)
	assert.Equal(t, "GOOGL", ticker)

	// Unknown CUSIPs report no mapping; holdings keep the issuer name instead.
	ticker, ok = CUSIPToTicker("999999999")
	assert.False(t, ok)
	assert.Equal(t, "", ticker)
}

func TestTickerNames(t *testing.T) {
	names := TickerNames()
	assert.Equal(t, "Apple Inc", names["AAPL"])
	assert.Equal(t, "NVIDIA Corp", names["NVDA"])
	assert.NotContains(t, names, "ZZZZ")
}
