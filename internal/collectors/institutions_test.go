package collectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInfoTableXML = `<?xml version="1.0" encoding="UTF-8"?>
<informationTable>
  <infoTable>
    <nameOfIssuer>Apple Inc</nameOfIssuer>
    <titleOfClass>COM</titleOfClass>
    <cusip>037833100</cusip>
    <value>500000000000</value>
    <shrsOrPrnAmt>
      <sshPrnamt>2500000</sshPrnamt>
      <sshPrnamtType>SH</sshPrnamtType>
    </shrsOrPrnAmt>
  </infoTable>
  <infoTable>
    <nameOfIssuer>Obscure Holdings Corp</nameOfIssuer>
    <titleOfClass>COM</titleOfClass>
    <cusip>999999999</cusip>
    <value>100000000000</value>
    <shrsOrPrnAmt>
      <sshPrnamt>800000</sshPrnamt>
      <sshPrnamtType>SH</sshPrnamtType>
    </shrsOrPrnAmt>
  </infoTable>
  <infoTable>
    <nameOfIssuer>Apple Inc</nameOfIssuer>
    <titleOfClass>CALL</titleOfClass>
    <cusip>037833100</cusip>
    <value>50000000000</value>
    <shrsOrPrnAmt>
      <sshPrnamt>100000</sshPrnamt>
    </shrsOrPrnAmt>
    <putCall>Call</putCall>
  </infoTable>
</informationTable>`

func TestParseFiling(t *testing.T) {
	filing, err := ParseFiling(FilingInput{
		CIK:         "0001067983",
		FundName:    "Berkshire Hathaway Inc",
		FilingDate:  "2026-02-14",
		XML:         []byte(testInfoTableXML),
		LegacyScale: true,
		PriorHoldings: map[string]float64{
			"037833100": 400_000_000,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "0001067983", filing.CIK)
	assert.Equal(t, "Q4_2025", filing.Quarter)

	// The options position is excluded; two equity holdings remain, sorted by
	// value descending.
	require.Len(t, filing.Holdings, 2)
	assert.InDelta(t, 600_000_000, filing.TotalValue, 1)

	aapl := filing.Holdings[0]
	assert.Equal(t, "AAPL", aapl.Ticker)
	assert.Equal(t, "037833100", aapl.CUSIP)
	// Legacy double-scaled values come back to whole USD.
	assert.InDelta(t, 500_000_000, aapl.Value, 1)
	assert.InDelta(t, 83.33, aapl.PctPortfolio, 0.01)
	assert.False(t, aapl.IsNew)
	require.NotNil(t, aapl.ChangePct)
	assert.InDelta(t, 25.0, *aapl.ChangePct, 0.01)

	// Unmapped CUSIPs keep an empty ticker; the issuer name is the display
	// fallback and the row is never dropped.
	obscure := filing.Holdings[1]
	assert.Equal(t, "", obscure.Ticker)
	assert.Equal(t, "Obscure Holdings Corp", obscure.Issuer)
	assert.InDelta(t, 100_000_000, obscure.Value, 1)
	assert.True(t, obscure.IsNew)
}

func TestParseFilingWithoutLegacyScale(t *testing.T) {
	filing, err := ParseFiling(FilingInput{
		CIK:        "0000001",
		FundName:   "Clean Pipeline Fund",
		FilingDate: "2026-05-15",
		XML:        []byte(testInfoTableXML),
	})
	require.NoError(t, err)
	assert.Equal(t, "Q1_2026", filing.Quarter)
	assert.InDelta(t, 500_000_000_000, filing.Holdings[0].Value, 1)
	// Without prior holdings, no new-position or change derivation happens.
	assert.False(t, filing.Holdings[0].IsNew)
	assert.Nil(t, filing.Holdings[0].ChangePct)
}

func TestParseFilingBadXML(t *testing.T) {
	_, err := ParseFiling(FilingInput{XML: []byte("<informationTable><infoTable>")})
	assert.Error(t, err)
}
