package scheduler

import (
	"context"
	"fmt"
	"time"

	"flightwatch-bot/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic check cycles
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	logger logger.Logger
}

// NewScheduler creates a scheduler whose jobs recover from panics and never
// overlap with their own previous run. Jobs receive ctx.
func NewScheduler(ctx context.Context, logger logger.Logger) *Scheduler {
	cronLog := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		ctx:    ctx,
		logger: logger,
	}
}

// AddJob registers fn under a standard cron spec or a descriptor like "@every 15m"
func (s *Scheduler) AddJob(name, spec string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := fn(s.ctx); err != nil {
			s.logger.Error("Scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Debug("Scheduled job finished", "job", name, "duration", time.Since(start).String())
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	s.logger.Info("Scheduled job", "job", name, "spec", spec)
	return nil
}

// Start starts the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits up to timeout for running jobs
func (s *Scheduler) Stop(timeout time.Duration) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		s.logger.Warn("Timed out waiting for running jobs", "timeout", timeout.String())
	}
}

// cronLogger adapts logger.Logger to cron.Logger
type cronLogger struct {
	logger logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
