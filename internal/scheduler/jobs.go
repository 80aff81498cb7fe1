package scheduler

import (
	"context"

	"github.com/aristath/smartmoney/internal/domain"
	"github.com/aristath/smartmoney/internal/pipeline"
)

// Source refresh cadence. Disclosure feeds publish after the close, so most
// jobs run in the evening; short interest settles twice a month and 13F /
// superinvestor pages move weekly at most.
var sourceSchedules = map[string]string{
	domain.SourceCongress:      "CRON_TZ=America/New_York 0 0 22 * * MON-FRI",
	domain.SourceArk:           "CRON_TZ=America/New_York 0 30 18 * * MON-FRI",
	domain.SourceDarkPool:      "CRON_TZ=America/New_York 0 0 19 * * MON-FRI",
	domain.SourceInsider:       "CRON_TZ=America/New_York 0 0 21 * * *",
	domain.SourceShortInterest: "CRON_TZ=America/New_York 0 0 7 10,25 * *",
	domain.SourceInstitution:   "CRON_TZ=America/New_York 0 0 7 * * SAT",
	domain.SourceSuperinvestor: "CRON_TZ=America/New_York 0 0 8 * * SUN",
}

// fullRefreshSchedule runs the whole pipeline after the nightly source batch.
const fullRefreshSchedule = "CRON_TZ=America/New_York 0 30 23 * * *"

// sourceJob refreshes one source through the pipeline, so the refresh log and
// failure semantics match a manual refresh.
type sourceJob struct {
	source string
	pipe   *pipeline.Pipeline
}

func (j *sourceJob) Name() string { return "refresh_" + j.source }

func (j *sourceJob) Run() error {
	_, err := j.pipe.RefreshSource(j.source)
	return err
}

// fullRefreshJob runs the complete pipeline pass.
type fullRefreshJob struct {
	pipe *pipeline.Pipeline
	ctx  context.Context
}

func (j *fullRefreshJob) Name() string { return "refresh_all" }

func (j *fullRefreshJob) Run() error {
	return j.pipe.RefreshAll(j.ctx)
}

// Register attaches every source job plus the nightly full pass. Sources
// without a wired collector are skipped.
func Register(s *Scheduler, ctx context.Context, pipe *pipeline.Pipeline) error {
	for _, source := range domain.AllSources {
		schedule, ok := sourceSchedules[source]
		if !ok {
			continue
		}
		if _, wired := pipe.Collectors[source]; !wired {
			continue
		}
		if err := s.AddJob(schedule, &sourceJob{source: source, pipe: pipe}); err != nil {
			return err
		}
	}
	return s.AddJob(fullRefreshSchedule, &fullRefreshJob{pipe: pipe, ctx: ctx})
}
