package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"PublicationsMonitor/internal/domain"
	"PublicationsMonitor/internal/extract"
	"PublicationsMonitor/internal/ports"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// PageSource fetches the publications page and extracts its records.
type PageSource struct {
	url       string
	client    *resty.Client
	extractor *extract.Extractor
	logger    *slog.Logger
}

var _ ports.PublicationSource = (*PageSource)(nil)

// Options tunes the HTTP side of a PageSource.
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// NewPageSource wires a resty client; zero options fall back to a 30s timeout
// and a browser-like User-Agent.
func NewPageSource(pageURL string, extractor *extract.Extractor, opts Options, log *slog.Logger) *PageSource {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if log == nil {
		log = slog.Default()
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")

	return &PageSource{
		url:       pageURL,
		client:    client,
		extractor: extractor,
		logger:    log,
	}
}

// URL is the monitored page.
func (p *PageSource) URL() string {
	return p.url
}

// Fetch never fails: fetch and parse errors are logged and yield no publications.
func (p *PageSource) Fetch(ctx context.Context) []domain.Publication {
	body, err := p.fetchBody(ctx)
	if err != nil {
		p.logger.Error("fetch publications page", "url", p.url, "error", err)
		return nil
	}

	pubs, err := p.extractor.ExtractReader(bytes.NewReader(body))
	if err != nil {
		p.logger.Error("extract publications", "url", p.url, "error", err)
		return nil
	}

	p.logger.Info("extracted publications", "url", p.url, "count", len(pubs))
	return pubs
}

func (p *PageSource) fetchBody(ctx context.Context) ([]byte, error) {
	resp, err := p.client.R().SetContext(ctx).Get(p.url)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("page returned %s", resp.Status())
	}
	return resp.Body(), nil
}
