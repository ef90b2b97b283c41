// Package oracle wraps the three LLM-backed extraction calls used by the
// ingestion pipeline: semantic tagging, summarization, and fact
// extraction. Every call is best-effort — a failed oracle call degrades to
// a fallback, it never fails the write it was asked to enrich.
package oracle

import "context"

// ExtractedFact is a single durable fact mined from a transcript, before
// it's been assigned an ID or written to storage.
type ExtractedFact struct {
	Entity     string
	FactText   string
	FactType   string
	Confidence float64
}

// Tagger produces semantic tags for a block of text.
type Tagger interface {
	Tags(ctx context.Context, content string) ([]string, error)
}

// Summarizer produces a one-paragraph summary of a block of text.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// FactExtractor mines durable facts out of a normalized transcript.
type FactExtractor interface {
	ExtractFacts(ctx context.Context, transcript string) ([]ExtractedFact, error)
}
