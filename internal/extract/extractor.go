package extract

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"PublicationsMonitor/internal/domain"
	"PublicationsMonitor/internal/patterns"
)

const (
	// MinTitleLength is the length a candidate title must exceed to be kept.
	MinTitleLength = 15
	// ContextRadius is how many characters around a text match are inspected.
	ContextRadius = 200

	structuralSelector = "h1, h2, h3, h4, a"
	invisibleSelector  = "script, style, noscript, template"
)

// Extractor turns a publications page into deduplicated publication records.
type Extractor struct {
	registry *patterns.Registry
	now      func() time.Time
}

// New wires the registry and the clock stamping ExtractedAt; now defaults to time.Now.
func New(registry *patterns.Registry, now func() time.Time) *Extractor {
	if registry == nil {
		registry = patterns.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Extractor{registry: registry, now: now}
}

// ExtractReader parses an HTML document and extracts its publications.
func (x *Extractor) ExtractReader(r io.Reader) ([]domain.Publication, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return x.Extract(doc), nil
}

// Extract runs the structural pass then the full-text pass over doc.
// The document itself is not modified.
func (x *Extractor) Extract(doc *goquery.Document) []domain.Publication {
	root := doc.Selection.Clone()
	root.Find(invisibleSelector).Remove()

	c := collector{seen: map[string]struct{}{}}
	x.structuralPass(root, &c)
	x.textPass(root.Text(), &c)
	return c.records
}

func (x *Extractor) structuralPass(root *goquery.Selection, c *collector) {
	root.Find(structuralSelector).Each(func(_ int, node *goquery.Selection) {
		text := visibleText(node)
		if utf8.RuneCountInString(text) <= MinTitleLength {
			return
		}

		entry, ok := x.registry.Match(text)
		if !ok {
			return
		}

		c.add(domain.Publication{
			PubID:       entry.ID,
			Title:       text,
			DateText:    Date(node.Parent().Text()),
			Pattern:     entry.Pattern.String(),
			Priority:    entry.Priority,
			ExtractedAt: x.now(),
			SourceTag:   goquery.NodeName(node),
		})
	})
}

func (x *Extractor) textPass(text string, c *collector) {
	for _, entry := range x.registry.Entries() {
		for _, span := range entry.Pattern.FindAllStringIndex(text, -1) {
			window := contextWindow(text, span[0], span[1], ContextRadius)

			title := Title(window)
			if utf8.RuneCountInString(title) <= MinTitleLength {
				continue
			}

			c.add(domain.Publication{
				PubID:       entry.ID,
				Title:       title,
				DateText:    Date(window),
				Pattern:     entry.Pattern.String(),
				Priority:    entry.Priority,
				ExtractedAt: x.now(),
				SourceTag:   domain.SourceTextSearch,
			})
		}
	}
}

// collector keeps records unique by normalized title, the form Publication.Key uses.
type collector struct {
	records []domain.Publication
	seen    map[string]struct{}
}

func (c *collector) add(p domain.Publication) {
	key := domain.NormalizeTitle(p.Title)
	if _, dup := c.seen[key]; dup {
		return
	}
	c.seen[key] = struct{}{}
	c.records = append(c.records, p)
}

func visibleText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// contextWindow returns text[start:end] widened by radius characters on each
// side, clamped to the text. start and end are byte offsets.
func contextWindow(text string, start, end, radius int) string {
	for i := 0; i < radius && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	for i := 0; i < radius && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}
