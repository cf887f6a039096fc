package domain

import (
	"strings"
	"time"
)

// Priority ranks how urgently a publication series should be surfaced.
type Priority string

const (
	PriorityHighest Priority = "Highest"
	PriorityHigh    Priority = "High"
	PriorityMedium  Priority = "Medium"
	PriorityLow     Priority = "Low"
	PriorityTest    Priority = "Test"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHighest, PriorityHigh, PriorityMedium, PriorityLow, PriorityTest:
		return true
	}
	return false
}

// Source tags for records not produced by a structural element.
const (
	SourceTextSearch = "text_search"
	SourceManualTest = "manual_test"
)

// Publication is one appearance of a recurring report on the monitored page.
type Publication struct {
	PubID       string    `json:"pub_id"`
	Title       string    `json:"title"`
	DateText    string    `json:"date_text"`
	Pattern     string    `json:"pattern_matched"`
	Priority    Priority  `json:"priority"`
	ExtractedAt time.Time `json:"extracted_at"`
	SourceTag   string    `json:"source_tag"`
}

// Key identifies a publication across runs, independent of extraction time and method.
func (p Publication) Key() string {
	return p.PubID + "|" + NormalizeTitle(p.Title)
}

// NormalizeTitle lower-cases a title and collapses its whitespace.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// KnownPublication is the persisted snapshot of a publication already notified.
type KnownPublication struct {
	Publication
	FirstSeen time.Time `json:"first_seen"`
}

// KnownPublications maps Publication.Key to its persisted snapshot.
type KnownPublications map[string]KnownPublication

// Has reports whether the publication was already recorded.
func (k KnownPublications) Has(p Publication) bool {
	_, ok := k[p.Key()]
	return ok
}

// Record stores p, keeping the first-seen time of an existing entry.
func (k KnownPublications) Record(p Publication, seenAt time.Time) {
	key := p.Key()
	if existing, ok := k[key]; ok {
		seenAt = existing.FirstSeen
	}
	k[key] = KnownPublication{Publication: p, FirstSeen: seenAt}
}

// DedupeMode controls whether known publications are filtered before notifying.
type DedupeMode string

const (
	DedupeFilterSeen  DedupeMode = "filter_seen"
	DedupeNeverFilter DedupeMode = "never_filter"
)

// Valid reports whether m is a supported mode.
func (m DedupeMode) Valid() bool {
	return m == DedupeFilterSeen || m == DedupeNeverFilter
}

// Message is a rendered notification ready for a sender.
type Message struct {
	Subject string
	HTML    string
	Text    string
}
