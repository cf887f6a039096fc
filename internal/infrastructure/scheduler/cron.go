package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"PublicationsMonitor/internal/ports"
	"PublicationsMonitor/pkg/logger"
)

// ErrAlreadyStarted is returned by Start on a running scheduler.
var ErrAlreadyStarted = errors.New("scheduler already started")

// CronScheduler triggers a job on a standard five-field cron expression
// evaluated in a fixed location.
type CronScheduler struct {
	spec     string
	location *time.Location
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, loc *time.Location, log *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &CronScheduler{spec: spec, location: loc, logger: log}
}

// Start registers job and starts the cron goroutine. The job receives the
// trigger time in the scheduler location. A cancelled ctx stops the scheduler.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil {
		return ErrAlreadyStarted
	}

	runner := cron.New(
		cron.WithLocation(c.location),
		cron.WithLogger(logger.Cron(c.logger)),
		cron.WithChain(cron.Recover(logger.Cron(c.logger))),
	)
	if _, err := runner.AddFunc(c.spec, func() {
		job(time.Now().In(c.location))
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", c.spec, err)
	}

	runner.Start()
	c.cron = runner

	if entries := runner.Entries(); len(entries) > 0 {
		c.logger.Info("scheduler started",
			"cron", c.spec,
			"timezone", c.location.String(),
			"next_run", entries[0].Next.Format(time.RFC3339))
	}

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop stops scheduling and waits for a running job to finish, or for ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner := c.cron
	c.cron = nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}

	select {
	case <-runner.Stop().Done():
		c.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
