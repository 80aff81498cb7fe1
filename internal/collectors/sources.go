package collectors

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aristath/smartmoney/internal/domain"
)

// FileSources provides the default collector sources: raw drop files under a
// directory, one conventional filename per source. Collaborator fetchers
// write these files; the collectors are agnostic to how they got there.
//
// Layout under Dir:
//
//	congress.jsonl           legislator trade records (JSONL or JSON array)
//	ark_snapshots.json       today's per-ETF holdings snapshots
//	darkpool/*.txt           pipe-delimited daily short volume files
//	institutions.json        13F filing manifest, XML paths relative to Dir
//	insiders.json            insider trades plus optional clusters
//	short_interest.json      settlement rows
//	superinvestors.json      activity and holdings rows
type FileSources struct {
	Dir string
}

var _ SourceSet = FileSources{}
var _ SourceSet = (*RemoteSources)(nil)

// Congress reads the legislator trade drop file.
func (f FileSources) Congress() ([]CongressRecord, error) {
	return readCongressFile(filepath.Join(f.Dir, "congress.jsonl"))
}

// Ark reads today's ETF snapshots.
func (f FileSources) Ark() ([]ArkSnapshot, error) {
	var snapshots []ArkSnapshot
	if err := readJSONFile(filepath.Join(f.Dir, "ark_snapshots.json"), &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// DarkPool reads every daily wire file under darkpool/, oldest name first.
func (f FileSources) DarkPool() ([][]byte, error) {
	dir := filepath.Join(f.Dir, "darkpool")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list dark pool files: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".txt" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	files := make([][]byte, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read dark pool file %s: %w", name, err)
		}
		files = append(files, data)
	}
	return files, nil
}

// filingManifest is one row of institutions.json.
type filingManifest struct {
	CIK           string             `json:"cik"`
	FundName      string             `json:"fund_name"`
	FilingDate    string             `json:"filing_date"`
	XMLPath       string             `json:"xml_path"`
	LegacyScale   *bool              `json:"legacy_scale,omitempty"`
	PriorHoldings map[string]float64 `json:"prior_holdings,omitempty"`
}

// Institutions reads the 13F manifest and loads each filing's XML.
func (f FileSources) Institutions() ([]FilingInput, error) {
	var manifest []filingManifest
	if err := readJSONFile(filepath.Join(f.Dir, "institutions.json"), &manifest); err != nil {
		return nil, err
	}
	inputs := make([]FilingInput, 0, len(manifest))
	for _, m := range manifest {
		xml, err := os.ReadFile(filepath.Join(f.Dir, m.XMLPath))
		if err != nil {
			return nil, fmt.Errorf("failed to read filing XML for %s: %w", m.CIK, err)
		}
		legacy := true
		if m.LegacyScale != nil {
			legacy = *m.LegacyScale
		}
		inputs = append(inputs, FilingInput{
			CIK:           m.CIK,
			FundName:      m.FundName,
			FilingDate:    m.FilingDate,
			XML:           xml,
			LegacyScale:   legacy,
			PriorHoldings: m.PriorHoldings,
		})
	}
	return inputs, nil
}

// Insiders reads the insider trades drop file.
func (f FileSources) Insiders() (InsidersInput, error) {
	var input struct {
		Trades   []domain.InsiderTrade   `json:"trades"`
		Clusters []domain.InsiderCluster `json:"clusters,omitempty"`
	}
	if err := readJSONFile(filepath.Join(f.Dir, "insiders.json"), &input); err != nil {
		return InsidersInput{}, err
	}
	return InsidersInput{Trades: input.Trades, Clusters: input.Clusters}, nil
}

// ShortInterest reads the settlement rows drop file.
func (f FileSources) ShortInterest() ([]domain.ShortInterestRow, error) {
	var rows []domain.ShortInterestRow
	if err := readJSONFile(filepath.Join(f.Dir, "short_interest.json"), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Superinvestors reads the structured activity drop file.
func (f FileSources) Superinvestors() (SuperinvestorsInput, error) {
	var input struct {
		Activity []domain.SuperinvestorActivity `json:"activity"`
		Holdings []domain.SuperinvestorHolding  `json:"holdings,omitempty"`
		Quarter  string                         `json:"quarter,omitempty"`
	}
	if err := readJSONFile(filepath.Join(f.Dir, "superinvestors.json"), &input); err != nil {
		return SuperinvestorsInput{}, err
	}
	return SuperinvestorsInput{
		Activity: input.Activity,
		Holdings: input.Holdings,
		Quarter:  input.Quarter,
	}, nil
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
