// internal/workers/scheduler/run-cycle/scheduler.go
package runcycle

import (
	"context"
	"time"

	"easyapply/internal/common/logger"
)

// Scheduler runs a cycle at startup and then every interval. Cycles never
// overlap: a tick that arrives during a cycle is dropped by the ticker.
type Scheduler struct {
	runner   *Runner
	interval time.Duration
	logger   logger.Logger
}

func NewScheduler(runner *Runner, interval time.Duration, log logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = 60 * time.Minute
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   log.WithFields(map[string]interface{}{"component": "scheduler"}),
	}
}

// Run blocks until ctx is done. A failed cycle is logged and the next one
// still runs on schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", map[string]interface{}{"interval": s.interval.String()})

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.runOnce(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", nil)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	summary, err := s.runner.RunCycle(ctx)
	if err != nil {
		s.logger.WithError(err).Error("job search cycle ended with error", map[string]interface{}{
			"runId":  summary.RunID,
			"status": summary.Status,
		})
	}
}
