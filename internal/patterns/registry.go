package patterns

import (
	"fmt"
	"regexp"

	"PublicationsMonitor/internal/domain"
)

// Entry associates a publication series with the pattern that detects it.
type Entry struct {
	ID       string
	Title    string
	Pattern  *regexp.Regexp
	Priority domain.Priority
}

// Registry is an ordered, read-only table of pattern entries.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// New builds a registry preserving the order of entries.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.ID == "" || e.Pattern == nil {
			return nil, fmt.Errorf("pattern entry %q is incomplete", e.ID)
		}
		if !e.Priority.Valid() {
			return nil, fmt.Errorf("pattern entry %s: unknown priority %q", e.ID, e.Priority)
		}
		if _, dup := r.index[e.ID]; dup {
			return nil, fmt.Errorf("pattern entry %s is registered twice", e.ID)
		}
		r.index[e.ID] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Compile builds a case-insensitive entry from a raw expression.
func Compile(id, title, expr string, priority domain.Priority) (Entry, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Entry{}, fmt.Errorf("compile pattern %s: %w", id, err)
	}
	return Entry{ID: id, Title: title, Pattern: re, Priority: priority}, nil
}

func mustCompile(id, title, expr string, priority domain.Priority) Entry {
	e, err := Compile(id, title, expr, priority)
	if err != nil {
		panic(err)
	}
	return e
}

// Default returns the recurring Banque de France publications.
func Default() *Registry {
	r, err := New(
		mustCompile("monthly_business_survey", "Monthly Business Survey", `monthly business survey`, domain.PriorityHigh),
		mustCompile("macroeconomic_projections", "Macroeconomic Projections", `macroeconomic projections`, domain.PriorityHigh),
		mustCompile("financial_stability_report", "Financial Stability Report", `financial stability report`, domain.PriorityHighest),
		mustCompile("letter_to_president", "Letter to the President of the Republic", `letter to the president`, domain.PriorityMedium),
		mustCompile("balance_of_payments", "Balance of Payments Report", `balance of payments.*international investment`, domain.PriorityMedium),
		mustCompile("observatory_payment_security", "Observatory Security Payment Report", `observatory.*security.*payment`, domain.PriorityMedium),
		mustCompile("annual_report", "Banque de France Annual Report", `banque de france annual report`, domain.PriorityMedium),
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Entries returns a copy of the table in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Lookup returns the entry registered under id.
func (r *Registry) Lookup(id string) (Entry, bool) {
	i, ok := r.index[id]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Match returns the first entry, in table order, whose pattern matches text.
func (r *Registry) Match(text string) (Entry, bool) {
	for _, e := range r.entries {
		if e.Pattern.MatchString(text) {
			return e, true
		}
	}
	return Entry{}, false
}
