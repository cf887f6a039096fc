package parser

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PublicationsMonitor/internal/extract"
	"PublicationsMonitor/internal/patterns"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPageSourceFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "monitor-test" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`<html><body>
<div class="card">
<h2>Financial Stability Report – 12th of June 2025</h2>
</div>
</body></html>`))
	}))
	defer server.Close()

	src := NewPageSource(server.URL, extract.New(patterns.Default(), nil), Options{UserAgent: "monitor-test"}, discardLogger())
	pubs := src.Fetch(context.Background())

	if len(pubs) != 1 {
		t.Fatalf("expected 1 publication, got %d", len(pubs))
	}
	if pubs[0].PubID != "financial_stability_report" {
		t.Fatalf("unexpected pub id: %s", pubs[0].PubID)
	}
	if pubs[0].DateText != "12th of June 2025" {
		t.Fatalf("unexpected date: %q", pubs[0].DateText)
	}
}

func TestPageSourceServerErrorYieldsNothing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<h2>Financial Stability Report – 12th of June 2025</h2>`))
	}))
	defer server.Close()

	src := NewPageSource(server.URL, extract.New(patterns.Default(), nil), Options{}, discardLogger())
	if pubs := src.Fetch(context.Background()); len(pubs) != 0 {
		t.Fatalf("expected no publications on HTTP 500, got %d", len(pubs))
	}
}

func TestPageSourceTimeoutYieldsNothing(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	src := NewPageSource(server.URL, extract.New(patterns.Default(), nil), Options{Timeout: 50 * time.Millisecond}, discardLogger())
	if pubs := src.Fetch(context.Background()); len(pubs) != 0 {
		t.Fatalf("expected no publications on timeout, got %d", len(pubs))
	}
}

func TestPageSourceUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	src := NewPageSource(addr, extract.New(patterns.Default(), nil), Options{Timeout: time.Second}, discardLogger())
	if pubs := src.Fetch(context.Background()); len(pubs) != 0 {
		t.Fatalf("expected no publications when the host is down, got %d", len(pubs))
	}
	if src.URL() != addr {
		t.Fatalf("unexpected url: %s", src.URL())
	}
}
