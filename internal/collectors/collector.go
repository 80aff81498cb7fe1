// Package collectors implements the per-source ingest pipeline: accept raw
// provider output (JSON, JSONL, CSV, pipe-delimited, HTML or already-shaped
// records), normalize into the canonical model, derive lightweight metadata
// and write the cache artifact. Collectors are idempotent and never panic past
// their boundary: on failure they log, write an empty artifact and return the
// error for the refresh log.
package collectors

import (
	"errors"
	"fmt"
	"time"

	"github.com/aristath/smartmoney/internal/domain"
)

// Refresh failures fall in two classes, which the CLI maps to distinct exit
// codes: the source could not be read at all, or it was read but could not be
// turned into an artifact.
var (
	ErrFetch = errors.New("source fetch failed")
	ErrParse = errors.New("source parse failed")
)

func fetchErr(err error) error {
	return fmt.Errorf("%w: %v", ErrFetch, err)
}

func parseErr(err error) error {
	return fmt.Errorf("%w: %v", ErrParse, err)
}

// Collector is the uniform contract the refresh pipeline drives. Run ingests
// the source's raw input and writes its artifact, returning the number of
// canonical records produced.
type Collector interface {
	Name() string
	Run() (int, error)
}

// clock returns a time source, defaulting to the wall clock. Collectors carry
// a Now field so tests can pin the reference date.
func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}

// emptyMetadata stamps the metadata block of a never-successful artifact.
func emptyMetadata(now time.Time, reason string) domain.Metadata {
	md := domain.NewMetadata(0, now)
	md.Error = reason
	return md
}
