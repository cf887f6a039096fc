package ports

import (
	"context"
	"time"

	"PublicationsMonitor/internal/domain"
)

// PublicationSource pulls the current publications from the monitored page.
// Implementations swallow fetch and parse failures and return no records.
type PublicationSource interface {
	Fetch(ctx context.Context) []domain.Publication
}

// KnownStore persists publications already notified across runs.
type KnownStore interface {
	// Load always returns a usable, possibly empty, mapping.
	Load(ctx context.Context) (domain.KnownPublications, error)
	// Save replaces the persisted state as a whole.
	Save(ctx context.Context, state domain.KnownPublications) error
}

// Notifier renders publications into a message and delivers it.
type Notifier interface {
	Notify(ctx context.Context, pubs []domain.Publication) error
}

// Sender delivers a rendered message over one channel (mail, Telegram, etc.).
type Sender interface {
	Name() string
	Send(ctx context.Context, msg domain.Message) error
}

// Scheduler controls when checks execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
