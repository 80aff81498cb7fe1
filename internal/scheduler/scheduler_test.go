package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/smartmoney/internal/domain"
	"github.com/aristath/smartmoney/internal/pipeline"
)

func TestSchedulesParse(t *testing.T) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	for source, spec := range sourceSchedules {
		_, err := parser.Parse(spec)
		assert.NoError(t, err, "schedule for %s: %q", source, spec)
	}
	_, err := parser.Parse(fullRefreshSchedule)
	assert.NoError(t, err)
}

func TestEveryScoredSourceHasASchedule(t *testing.T) {
	for _, source := range domain.AllSources {
		_, ok := sourceSchedules[source]
		assert.True(t, ok, "source %s", source)
	}
}

type recordingJob struct {
	name string
	runs int
	err  error
}

func (j *recordingJob) Name() string { return j.name }

func (j *recordingJob) Run() error {
	j.runs++
	return j.err
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a cron spec", &recordingJob{name: "bad"})
	assert.Error(t, err)
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())

	ok := &recordingJob{name: "ok"}
	require.NoError(t, s.RunNow(ok))
	assert.Equal(t, 1, ok.runs)

	failing := &recordingJob{name: "failing", err: errors.New("boom")}
	assert.Error(t, s.RunNow(failing))
}

func TestRegisterSkipsUnwiredSources(t *testing.T) {
	s := New(zerolog.Nop())

	// A pipeline with no collectors registers only the nightly full pass, and
	// registration still succeeds.
	pipe := pipeline.New(nil, nil, nil, nil, nil, nil, zerolog.Nop())
	require.NoError(t, Register(s, context.Background(), pipe))
	assert.Len(t, s.cron.Entries(), 1)
}
