package collectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aristath/smartmoney/internal/domain"
	"github.com/aristath/smartmoney/internal/fetch"
)

// SourceSet provides the raw inputs for every collector. FileSources reads a
// local drop directory; RemoteSources fetches the same layout over HTTP.
type SourceSet interface {
	Congress() ([]CongressRecord, error)
	Ark() ([]ArkSnapshot, error)
	DarkPool() ([][]byte, error)
	Institutions() ([]FilingInput, error)
	Insiders() (InsidersInput, error)
	ShortInterest() ([]domain.ShortInterestRow, error)
	Superinvestors() (SuperinvestorsInput, error)
}

// RemoteSources fetches raw inputs from an HTTP endpoint serving the same
// conventional layout as a FileSources drop directory. Directory listings
// become index manifests: darkpool/index.json lists the daily wire files.
type RemoteSources struct {
	Base   string
	Client *fetch.Client
	Ctx    context.Context
}

// NewRemoteSources builds remote sources rooted at base.
func NewRemoteSources(ctx context.Context, base string, client *fetch.Client) *RemoteSources {
	return &RemoteSources{
		Base:   strings.TrimRight(base, "/"),
		Client: client,
		Ctx:    ctx,
	}
}

func (r *RemoteSources) get(path string) ([]byte, error) {
	return r.Client.Get(r.Ctx, r.Base+"/"+path)
}

func (r *RemoteSources) getJSON(path string, v interface{}) error {
	body, err := r.get(path)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Congress fetches the legislator trade feed.
func (r *RemoteSources) Congress() ([]CongressRecord, error) {
	body, err := r.get("congress.jsonl")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch congress feed: %w", err)
	}
	return ParseCongressRecords(bytes.NewReader(body))
}

// Ark fetches today's ETF snapshots.
func (r *RemoteSources) Ark() ([]ArkSnapshot, error) {
	var snapshots []ArkSnapshot
	if err := r.getJSON("ark_snapshots.json", &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// DarkPool fetches the daily wire file index, then each file in index order.
func (r *RemoteSources) DarkPool() ([][]byte, error) {
	var names []string
	if err := r.getJSON("darkpool/index.json", &names); err != nil {
		return nil, err
	}
	files := make([][]byte, 0, len(names))
	for _, name := range names {
		data, err := r.get("darkpool/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch dark pool file %s: %w", name, err)
		}
		files = append(files, data)
	}
	return files, nil
}

// Institutions fetches the 13F manifest, then each filing's XML.
func (r *RemoteSources) Institutions() ([]FilingInput, error) {
	var manifest []filingManifest
	if err := r.getJSON("institutions.json", &manifest); err != nil {
		return nil, err
	}
	inputs := make([]FilingInput, 0, len(manifest))
	for _, m := range manifest {
		xml, err := r.get(m.XMLPath)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch filing XML for %s: %w", m.CIK, err)
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

// Insiders fetches the insider trades feed.
func (r *RemoteSources) Insiders() (InsidersInput, error) {
	var input struct {
		Trades   []domain.InsiderTrade   `json:"trades"`
		Clusters []domain.InsiderCluster `json:"clusters,omitempty"`
	}
	if err := r.getJSON("insiders.json", &input); err != nil {
		return InsidersInput{}, err
	}
	return InsidersInput{Trades: input.Trades, Clusters: input.Clusters}, nil
}

// ShortInterest fetches the settlement rows feed.
func (r *RemoteSources) ShortInterest() ([]domain.ShortInterestRow, error) {
	var rows []domain.ShortInterestRow
	if err := r.getJSON("short_interest.json", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Superinvestors fetches the structured activity feed.
func (r *RemoteSources) Superinvestors() (SuperinvestorsInput, error) {
	var input struct {
		Activity []domain.SuperinvestorActivity `json:"activity"`
		Holdings []domain.SuperinvestorHolding  `json:"holdings,omitempty"`
		Quarter  string                         `json:"quarter,omitempty"`
	}
	if err := r.getJSON("superinvestors.json", &input); err != nil {
		return SuperinvestorsInput{}, err
	}
	return SuperinvestorsInput{
		Activity: input.Activity,
		Holdings: input.Holdings,
		Quarter:  input.Quarter,
	}, nil
}
