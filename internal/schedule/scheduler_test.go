package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type blockingJob struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	if j.started != nil {
		close(j.started)
	}
	if j.release != nil {
		<-j.release
	}
	return j.err
}

func TestGuardedJobSkipsOverlappingRuns(t *testing.T) {
	job := &blockingJob{started: make(chan struct{}), release: make(chan struct{})}
	guard := newGuardedJob(job, "* * * * *")

	done := make(chan bool)
	go func() {
		done <- guard.run(context.Background())
	}()
	<-job.started
	require.False(t, guard.run(context.Background()))
	close(job.release)
	require.True(t, <-done)
}

func TestGuardedJobRunsAgainAfterError(t *testing.T) {
	guard := newGuardedJob(&blockingJob{err: errors.New("boom")}, "@daily")
	require.True(t, guard.run(context.Background()))
	require.True(t, guard.run(context.Background()))
}

func TestAddJob(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&blockingJob{}, "not a spec"))
	require.NoError(t, s.AddJob(&blockingJob{}, "0 3 * * *"))
	require.Error(t, s.AddJob(&blockingJob{}, "0 4 * * *"))
	s.Start(context.Background())
	s.Stop()
}
