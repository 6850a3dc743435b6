// Package scheduler runs the periodic sweeps (auto-credit, pending deposit
// and payout reconciliation) on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultTimeout = 5 * time.Minute

// Job is one periodic task. An empty Schedule disables it.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{cron: c, logger: logger, ctx: ctx, cancel: cancel}
}

// Add registers job. Disabled jobs are logged and skipped.
func (s *Scheduler) Add(job Job) error {
	if job.Schedule == "" {
		s.logger.Info("scheduled job disabled", "job", job.Name)
		return nil
	}
	if _, err := s.cron.AddFunc(job.Schedule, s.wrap(job)); err != nil {
		return fmt.Errorf("schedule %s job %q: %w", job.Name, job.Schedule, err)
	}
	s.logger.Info("scheduled job", "job", job.Name, "schedule", job.Schedule)
	return nil
}

func (s *Scheduler) wrap(job Job) func() {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, timeout)
		defer cancel()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", job.Name, "duration", time.Since(start), "error", err)
			return
		}
		s.logger.Debug("scheduled job finished", "job", job.Name, "duration", time.Since(start))
	}
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}
