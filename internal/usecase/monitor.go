package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"PublicationsMonitor/internal/domain"
	"PublicationsMonitor/internal/notifier"
	"PublicationsMonitor/internal/ports"
)

// MonitorDeps wires the driven adapters into the check routine.
type MonitorDeps struct {
	Source   ports.PublicationSource
	Store    ports.KnownStore
	Notifier ports.Notifier
	Mode     domain.DedupeMode
	Logger   *slog.Logger
	Now      func() time.Time
}

// CheckResult summarises one check cycle.
type CheckResult struct {
	// Found is the number of records extracted from the page.
	Found int
	// Pending is the number of records selected for notification.
	Pending int
	// Notified is Pending when the notification went out, zero otherwise.
	Notified int
}

// Monitor implements the check routine: fetch, filter, notify, record.
type Monitor struct {
	mu sync.Mutex

	source   ports.PublicationSource
	store    ports.KnownStore
	notifier ports.Notifier
	mode     domain.DedupeMode
	logger   *slog.Logger
	now      func() time.Time
}

// NewMonitor constructs the orchestration component.
func NewMonitor(deps MonitorDeps) *Monitor {
	m := &Monitor{
		source:   deps.Source,
		store:    deps.Store,
		notifier: deps.Notifier,
		mode:     deps.Mode,
		logger:   deps.Logger,
		now:      deps.Now,
	}
	if m.mode == "" {
		m.mode = domain.DedupeFilterSeen
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Check runs one cycle. Only one cycle runs at a time; concurrent callers
// wait for the running one to finish. The returned error is the notification
// failure, if any. Storage problems are logged and do not fail the cycle.
func (m *Monitor) Check(ctx context.Context) (CheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result CheckResult
	started := m.now()
	m.logger.Info("check started")

	known := m.load(ctx)

	var found []domain.Publication
	if m.source != nil {
		found = m.source.Fetch(ctx)
	}
	result.Found = len(found)

	pending := m.selectPending(found, known)
	result.Pending = len(pending)

	var sendErr error
	if len(pending) > 0 {
		if m.notifier == nil {
			sendErr = fmt.Errorf("no notifier configured")
		} else {
			sendErr = m.notifier.Notify(ctx, pending)
		}
		if sendErr != nil {
			m.logger.Error("notification failed", "pending", len(pending), "error", sendErr)
			sendErr = fmt.Errorf("notify %d publication(s): %w", len(pending), sendErr)
		} else {
			seenAt := m.now()
			for _, p := range pending {
				known.Record(p, seenAt)
			}
			result.Notified = len(pending)
		}
	}

	m.save(ctx, known)

	m.logger.Info("check finished",
		"found", result.Found,
		"pending", result.Pending,
		"notified", result.Notified,
		"known", len(known),
		"duration", m.now().Sub(started).String())

	return result, sendErr
}

// SendTest delivers the synthetic test publication. Known state is untouched.
func (m *Monitor) SendTest(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.notifier == nil {
		return fmt.Errorf("no notifier configured")
	}
	if err := m.notifier.Notify(ctx, []domain.Publication{notifier.TestPublication(m.now())}); err != nil {
		m.logger.Error("test notification failed", "error", err)
		return fmt.Errorf("send test notification: %w", err)
	}
	m.logger.Info("test notification sent")
	return nil
}

func (m *Monitor) selectPending(found []domain.Publication, known domain.KnownPublications) []domain.Publication {
	if m.mode == domain.DedupeNeverFilter {
		return found
	}
	pending := make([]domain.Publication, 0, len(found))
	for _, p := range found {
		if !known.Has(p) {
			pending = append(pending, p)
		}
	}
	return pending
}

func (m *Monitor) load(ctx context.Context) domain.KnownPublications {
	if m.store == nil {
		return domain.KnownPublications{}
	}
	known, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("known publications unreadable, starting fresh", "error", err)
	}
	if known == nil {
		known = domain.KnownPublications{}
	}
	return known
}

func (m *Monitor) save(ctx context.Context, known domain.KnownPublications) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, known); err != nil {
		m.logger.Error("save known publications", "error", err)
	}
}
