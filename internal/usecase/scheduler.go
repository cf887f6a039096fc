package usecase

import (
	"context"
	"log/slog"
	"time"

	"PublicationsMonitor/internal/ports"
)

// Scheduler wires the cron driver with the check routine.
type Scheduler struct {
	driver  ports.Scheduler
	monitor *Monitor
	logger  *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring checks.
func NewScheduler(driver ports.Scheduler, monitor *Monitor, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{driver: driver, monitor: monitor, logger: log}
}

// Start registers the check with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.monitor == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled check", "trigger", trigger.Format(time.RFC3339))
		// Failures are already logged by the monitor; the next tick retries.
		_, _ = s.monitor.Check(ctx)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
