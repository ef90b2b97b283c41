// Package query implements the read-side operations exposed to callers:
// recall (search), extract (single entry), list, and stats (spec.md §4.7).
package query

import (
	"fmt"
	"strings"

	"github.com/marknutter/rlm/internal/store"
)

// MaxOutputChars bounds how much text Recall/Extract return in one call —
// callers are LLM contexts, not terminals, so unbounded output is a
// correctness bug, not just an inconvenience.
const MaxOutputChars = 4_000

const truncationSentinel = "\n\n...[truncated, %d more characters not shown]...\n"

// Surface bundles the read operations over a store.
type Surface struct {
	db store.Storer
}

func NewSurface(db store.Storer) *Surface {
	return &Surface{db: db}
}

// Recall runs a full-text/tag search and renders a bounded, human-readable
// result listing.
func (s *Surface) Recall(query string, tags []string, max int) (string, error) {
	if max <= 0 {
		max = 10
	}
	results, err := s.db.SearchFTS(query, tags, max)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No matching memories found.", nil
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, r.ID, r.Summary)
		if len(r.Tags) > 0 {
			fmt.Fprintf(&b, " (tags: %s)", strings.Join(r.Tags, ", "))
		}
		b.WriteByte('\n')
	}
	return boundOutput(b.String()), nil
}

// Extract returns the full content of one entry, bounded to MaxOutputChars.
func (s *Surface) Extract(id string) (string, error) {
	entry, err := s.db.GetEntry(id)
	if err != nil {
		return "", err
	}
	return boundOutput(entry.Content), nil
}

// List returns a bounded, human-readable listing of entry metadata,
// optionally filtered by tags.
func (s *Surface) List(tags []string, offset, limit int) (string, int, error) {
	if limit <= 0 {
		limit = 20
	}
	metas, total, err := s.db.ListEntries(tags, offset, limit)
	if err != nil {
		return "", 0, err
	}
	if len(metas) == 0 {
		return "No memories found.", total, nil
	}

	var b strings.Builder
	for _, m := range metas {
		fmt.Fprintf(&b, "%s  %s", m.ID, m.Summary)
		if len(m.Tags) > 0 {
			fmt.Fprintf(&b, " (tags: %s)", strings.Join(m.Tags, ", "))
		}
		b.WriteByte('\n')
	}
	return boundOutput(b.String()), total, nil
}

// Stats renders the aggregate report as plain text.
func (s *Surface) Stats() (string, error) {
	stats, err := s.db.GetStats()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total entries: %d\n", stats.TotalEntries)
	fmt.Fprintf(&b, "Total characters: %d\n", stats.TotalChars)
	fmt.Fprintf(&b, "Database size: %d bytes\n", stats.DBFileBytes)
	b.WriteString("\nBy source:\n")
	for source, count := range stats.BySource {
		fmt.Fprintf(&b, "  %s: %d\n", source, count)
	}
	b.WriteString("\nSize distribution:\n")
	for _, bucket := range stats.SizeBuckets {
		fmt.Fprintf(&b, "  %s: %d\n", bucket.Label, bucket.Count)
	}
	if len(stats.TopTags) > 0 {
		b.WriteString("\nTop tags:\n")
		for _, t := range stats.TopTags {
			fmt.Fprintf(&b, "  %s: %d\n", t.Tag, t.Count)
		}
	}
	return b.String(), nil
}

func boundOutput(text string) string {
	if len(text) <= MaxOutputChars {
		return text
	}
	omitted := len(text) - MaxOutputChars
	return text[:MaxOutputChars] + fmt.Sprintf(truncationSentinel, omitted)
}
