package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

// CronScheduler runs jobs on standard five-field cron specs. A job whose
// previous run has not finished is skipped.
type CronScheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	ctx     context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
		ctx:     context.Background(),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	if _, ok := c.entries[name]; ok {
		return fmt.Errorf("job %s already scheduled", name)
	}
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", name), zap.String("spec", spec))
	task := newGuardedJob(job, spec)
	entryID, err := c.cron.AddFunc(spec, func() {
		task.run(c.ctx)
	})
	if err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	c.entries[name] = entryID
	logger.Info("job scheduled")
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx != nil {
		c.ctx = ctx
	}
	c.cron.Start()
}

// Stop waits for running jobs to return.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

type guardedJob struct {
	job     Job
	spec    string
	running atomic.Bool
}

func newGuardedJob(job Job, spec string) *guardedJob {
	return &guardedJob{job: job, spec: spec}
}

// run reports whether the job actually ran.
func (g *guardedJob) run(ctx context.Context) bool {
	logger := logutil.GetLogger(ctx).With(
		zap.String("job", g.job.Name()),
		zap.String("spec", g.spec),
	)
	if !g.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: still running")
		return false
	}
	defer g.running.Store(false)

	start := time.Now()
	logger.Info("job started")
	err := g.job.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("job finished", zap.Error(err), zap.Duration("duration", elapsed))
		return true
	}
	logger.Info("job finished", zap.Duration("duration", elapsed))
	return true
}
