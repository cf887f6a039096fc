package notifier

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"PublicationsMonitor/internal/domain"
	"PublicationsMonitor/internal/patterns"
	"PublicationsMonitor/internal/ports"
)

const timestampLayout = "2006-01-02 15:04:05"

//go:embed digest.html.tmpl
var digestSource string

var digestTemplate = template.Must(template.New("digest").Parse(digestSource))

// ErrNoSenders is returned by Notify when no delivery channel is configured.
var ErrNoSenders = errors.New("no notification senders configured")

// Options describes the monitored source and the clock used for the footer.
type Options struct {
	SourceName string
	SourceURL  string
	Location   *time.Location
	Now        func() time.Time
}

// Notifier formats publications and hands the message to every sender.
type Notifier struct {
	registry *patterns.Registry
	senders  []ports.Sender
	opts     Options
	logger   *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// New builds a notifier; a nil location means UTC and a nil clock means time.Now.
func New(registry *patterns.Registry, senders []ports.Sender, opts Options, log *slog.Logger) *Notifier {
	if registry == nil {
		registry = patterns.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{registry: registry, senders: senders, opts: opts, logger: log}
}

// TestPublication is the synthetic record sent by the test notification.
func TestPublication(now time.Time) domain.Publication {
	return domain.Publication{
		PubID:       "test",
		Title:       "Test notification - publications monitor",
		DateText:    now.Format("January 2, 2006"),
		Pattern:     "test",
		Priority:    domain.PriorityTest,
		ExtractedAt: now,
		SourceTag:   domain.SourceManualTest,
	}
}

// Notify sends one message for pubs. An empty slice is a no-op.
// Every sender is attempted; failures are joined and not retried.
func (n *Notifier) Notify(ctx context.Context, pubs []domain.Publication) error {
	if len(pubs) == 0 {
		return nil
	}
	if len(n.senders) == 0 {
		return ErrNoSenders
	}

	msg, err := n.Render(pubs)
	if err != nil {
		return err
	}

	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, msg); err != nil {
			n.logger.Error("send notification", "sender", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.Info("notification sent", "sender", s.Name(), "publications", len(pubs))
	}
	return errors.Join(errs...)
}

type digestItem struct {
	Index         int
	Title         string
	Date          string
	Category      string
	Priority      domain.Priority
	PriorityClass string
	DetectedAt    string
	Method        string
}

type digestView struct {
	SourceName   string
	SourceURL    string
	Count        int
	Items        []digestItem
	SentAt       string
	Zone         string
	PatternCount int
}

// Render builds the subject, HTML body and plain-text alternative.
func (n *Notifier) Render(pubs []domain.Publication) (domain.Message, error) {
	view := n.view(pubs)

	var html bytes.Buffer
	if err := digestTemplate.Execute(&html, view); err != nil {
		return domain.Message{}, fmt.Errorf("render digest: %w", err)
	}

	return domain.Message{
		Subject: fmt.Sprintf("%s publications: %d matching publication(s)", view.SourceName, view.Count),
		HTML:    html.String(),
		Text:    renderText(view),
	}, nil
}

func (n *Notifier) view(pubs []domain.Publication) digestView {
	items := make([]digestItem, 0, len(pubs))
	for i, p := range pubs {
		date := p.DateText
		if date == "" {
			date = "Date unknown"
		}
		category := p.Title
		if entry, ok := n.registry.Lookup(p.PubID); ok {
			category = entry.Title
		}
		items = append(items, digestItem{
			Index:         i + 1,
			Title:         p.Title,
			Date:          date,
			Category:      category,
			Priority:      p.Priority,
			PriorityClass: "priority-" + strings.ToLower(string(p.Priority)),
			DetectedAt:    p.ExtractedAt.In(n.opts.Location).Format(timestampLayout),
			Method:        p.SourceTag,
		})
	}

	return digestView{
		SourceName:   n.opts.SourceName,
		SourceURL:    n.opts.SourceURL,
		Count:        len(pubs),
		Items:        items,
		SentAt:       n.opts.Now().In(n.opts.Location).Format(timestampLayout),
		Zone:         n.opts.Location.String(),
		PatternCount: n.registry.Len(),
	}
}

func renderText(v digestView) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s: recurring publications released\n", v.SourceName)
	fmt.Fprintf(&sb, "%d matching publication(s) found\n\n", v.Count)

	for _, it := range v.Items {
		fmt.Fprintf(&sb, "%d. %s\n", it.Index, it.Title)
		fmt.Fprintf(&sb, "   Date: %s\n", it.Date)
		fmt.Fprintf(&sb, "   Category: %s\n", it.Category)
		fmt.Fprintf(&sb, "   Priority: %s\n", it.Priority)
		fmt.Fprintf(&sb, "   Detected at: %s\n", it.DetectedAt)
		fmt.Fprintf(&sb, "   Extraction method: %s\n", it.Method)
		fmt.Fprintf(&sb, "   Source: %s\n\n", v.SourceURL)
	}

	fmt.Fprintf(&sb, "Sent at: %s (%s)\n", v.SentAt, v.Zone)
	fmt.Fprintf(&sb, "Monitored series: %d\n", v.PatternCount)
	return sb.String()
}
