package collectors

import (
	"encoding/xml"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/smartmoney/internal/cache"
	"github.com/aristath/smartmoney/internal/domain"
	"github.com/aristath/smartmoney/internal/normalize"
)

// legacyValueScale compensates a historical double-multiply-by-1000 in the
// legacy EDGAR path: raw values arrive in thousands that were already scaled
// once upstream, so dividing by 1000 yields whole USD. Verified against raw
// SEC data before trusting new inputs; disable per-filing when the raw
// pipeline is clean.
const legacyValueScale = 1000.0

// FilingInput is one raw 13F filing handed to the collector.
type FilingInput struct {
	CIK        string
	FundName   string
	FilingDate string
	// XML is the EDGAR information table document.
	XML []byte
	// LegacyScale applies the historical value compensation (default true for
	// the current upstream).
	LegacyScale bool
	// PriorHoldings, when available, enables new-position and change-percent
	// derivation against the previous quarter. Keyed by CUSIP, value in USD.
	PriorHoldings map[string]float64
}

// infoTable mirrors the EDGAR 13F information table entry, namespace
// http://www.sec.gov/edgar/document/thirteenf/informationtable.
type infoTable struct {
	NameOfIssuer string `xml:"nameOfIssuer"`
	TitleOfClass string `xml:"titleOfClass"`
	CUSIP        string `xml:"cusip"`
	Value        float64 `xml:"value"`
	Shares       struct {
		Amount float64 `xml:"sshPrnamt"`
	} `xml:"shrsOrPrnAmt"`
	PutCall string `xml:"putCall"`
}

type informationTable struct {
	XMLName xml.Name    `xml:"informationTable"`
	Entries []infoTable `xml:"infoTable"`
}

// InstitutionsCollector parses 13F filings into the canonical model.
type InstitutionsCollector struct {
	Store  *cache.Store
	Source func() ([]FilingInput, error)
	Now    func() time.Time
	Log    zerolog.Logger
}

// NewInstitutionsCollector builds the collector.
func NewInstitutionsCollector(store *cache.Store, source func() ([]FilingInput, error), log zerolog.Logger) *InstitutionsCollector {
	return &InstitutionsCollector{
		Store:  store,
		Source: source,
		Log:    log.With().Str("collector", domain.SourceInstitution).Logger(),
	}
}

// Name returns the source identifier.
func (c *InstitutionsCollector) Name() string { return domain.SourceInstitution }

// Run parses every filing and writes institutions.json. Individual filings
// that fail to parse are skipped and counted, not fatal.
func (c *InstitutionsCollector) Run() (int, error) {
	now := clock(c.Now)

	inputs, err := c.Source()
	if err != nil {
		c.Log.Error().Err(err).Msg("Failed to read 13F source")
		c.writeEmpty(now, err)
		return 0, fetchErr(err)
	}

	var filings []domain.InstitutionFiling
	failed := 0
	for _, input := range inputs {
		filing, err := ParseFiling(input)
		if err != nil {
			failed++
			c.Log.Warn().Str("cik", input.CIK).Err(err).Msg("Skipping unparseable 13F filing")
			continue
		}
		filings = append(filings, filing)
	}

	sort.Slice(filings, func(i, j int) bool {
		if filings[i].FilingDate != filings[j].FilingDate {
			return filings[i].FilingDate > filings[j].FilingDate
		}
		return filings[i].CIK < filings[j].CIK
	})

	md := domain.NewMetadata(len(filings), now)
	md.FilingCount = len(filings)
	artifact := domain.InstitutionsArtifact{
		Filings:  filings,
		Metadata: md,
	}
	if err := c.Store.Write(domain.ArtifactInstitutions, artifact); err != nil {
		return 0, parseErr(fmt.Errorf("failed to write institutions artifact: %w", err))
	}
	c.Log.Info().Int("filings", len(filings)).Int("failed", failed).Msg("Institutions artifact refreshed")
	return len(filings), nil
}

// ParseFiling turns one raw filing into the canonical entity: values
// normalized to whole USD, tickers mapped from CUSIP, portfolio percentages
// computed, holdings sorted by value descending.
func ParseFiling(input FilingInput) (domain.InstitutionFiling, error) {
	var table informationTable
	if err := xml.Unmarshal(input.XML, &table); err != nil {
		return domain.InstitutionFiling{}, fmt.Errorf("failed to parse information table: %w", err)
	}

	filing := domain.InstitutionFiling{
		CIK:        input.CIK,
		FundName:   input.FundName,
		FilingDate: input.FilingDate,
		Quarter:    normalize.FilingDateToQuarter(input.FilingDate),
	}

	for _, entry := range table.Entries {
		if entry.PutCall != "" {
			// Options positions are not direct equity conviction.
			continue
		}
		if entry.NameOfIssuer == "" {
			continue
		}
		value := entry.Value
		if input.LegacyScale {
			value /= legacyValueScale
		}
		if value < 0 {
			continue
		}
		ticker, _ := normalize.CUSIPToTicker(entry.CUSIP)

		holding := domain.InstitutionHolding{
			CUSIP:  entry.CUSIP,
			Ticker: ticker,
			Issuer: entry.NameOfIssuer,
			Value:  value,
			Shares: entry.Shares.Amount,
		}
		if input.PriorHoldings != nil {
			prior, existed := input.PriorHoldings[entry.CUSIP]
			if !existed {
				holding.IsNew = true
			} else if prior > 0 {
				change := (value - prior) / prior * 100
				holding.ChangePct = &change
			}
		}
		filing.TotalValue += value
		filing.Holdings = append(filing.Holdings, holding)
	}

	if filing.TotalValue > 0 {
		for i := range filing.Holdings {
			filing.Holdings[i].PctPortfolio = filing.Holdings[i].Value / filing.TotalValue * 100
		}
	}
	sort.Slice(filing.Holdings, func(i, j int) bool {
		if filing.Holdings[i].Value != filing.Holdings[j].Value {
			return filing.Holdings[i].Value > filing.Holdings[j].Value
		}
		return filing.Holdings[i].CUSIP < filing.Holdings[j].CUSIP
	})
	return filing, nil
}

func (c *InstitutionsCollector) writeEmpty(now time.Time, cause error) {
	artifact := domain.InstitutionsArtifact{
		Filings:  []domain.InstitutionFiling{},
		Metadata: emptyMetadata(now, cause.Error()),
	}
	if err := c.Store.Write(domain.ArtifactInstitutions, artifact); err != nil {
		c.Log.Error().Err(err).Msg("Failed to write empty institutions artifact")
	}
}
