// Package pipeline implements the smart_remember ingestion path (spec.md
// §4.5): dedup, tagging, the two-tier summary/content write, chunk
// manifest generation, and fact extraction, wired around the store and
// oracle packages.
package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/marknutter/rlm/internal/facts"
	"github.com/marknutter/rlm/internal/metrics"
	"github.com/marknutter/rlm/internal/oracle"
	"github.com/marknutter/rlm/internal/store"
)

// SummaryThreshold is the content length past which a two-tier
// summary/full-content episode pair is written instead of a single entry.
const SummaryThreshold = 4_000

// Request is the input to SmartRemember.
type Request struct {
	Content    string
	Source     string // "text", "file", "url", ...
	SourceName string // path/URL this content came from, if any
	Tags       []string
	Summary    string // explicit summary; skips the summary oracle when set
	Label      string // overrides the display label (summary-tier label in two-tier writes, the sole label in single-tier writes)
	Timestamp  float64
	Dedup      bool
}

// Result reports what SmartRemember actually wrote.
type Result struct {
	EntryID     string
	SummaryID   string // non-empty only when a two-tier write happened
	Tags        []string
	Chunked     bool
	FactsStored int
}

// Pipeline wires the store, tagger, summarizer, and fact extractor used
// by SmartRemember.
type Pipeline struct {
	db         store.Storer
	tagger     oracle.Tagger
	summarizer oracle.Summarizer
	extractor  oracle.FactExtractor
	facts      *facts.Processor
	logger     zerolog.Logger
}

func New(db store.Storer, tagger oracle.Tagger, summarizer oracle.Summarizer, extractor oracle.FactExtractor, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		db:         db,
		tagger:     tagger,
		summarizer: summarizer,
		extractor:  extractor,
		facts:      facts.NewProcessor(db, logger),
		logger:     logger,
	}
}

// SmartRemember runs the full ingestion state machine for one piece of
// content: dedup check, tagging, two-tier write, chunk manifest, fact
// extraction.
func (p *Pipeline) SmartRemember(ctx context.Context, req Request) (*Result, error) {
	if req.Dedup && req.SourceName != "" {
		existing, err := p.db.FindEntriesBySourceName(req.SourceName)
		if err != nil {
			return nil, err
		}
		for _, e := range existing {
			if _, err := p.db.DeleteEntry(e.ID); err != nil {
				return nil, err
			}
		}
	}

	tags := p.resolveTags(ctx, req)
	entryID := NewEpisodeID()
	result := &Result{EntryID: entryID, Tags: tags}

	labelBase := req.SourceName
	if labelBase == "" {
		labelBase = req.Source
	}

	// Facts are extracted from the content and linked to the entry just
	// written; in a two-tier write that is the summary text and episode.
	factsInput := req.Content
	primaryID := entryID

	if len(req.Content) > SummaryThreshold {
		summaryText := req.Summary
		if summaryText == "" {
			summaryText = p.resolveSummary(ctx, req.Content)
		}
		summaryID := NewEpisodeID()
		result.SummaryID = summaryID

		summaryLabel := req.Label
		if summaryLabel == "" {
			summaryLabel = "Summary: " + labelBase
		}
		if err := p.db.UpsertEntry(&store.Episode{
			ID: summaryID, Summary: summaryLabel, Tags: withBaseTag("summary", tags), Timestamp: req.Timestamp,
			Source: req.Source + "-summary", SourceName: req.SourceName, Content: summaryText, CharCount: len(summaryText),
		}); err != nil {
			return nil, err
		}
		factsInput, primaryID = summaryText, summaryID

		full := &store.Episode{
			ID: entryID, Summary: "Full content: " + labelBase, Tags: withBaseTag("full-content", tags), Timestamp: req.Timestamp,
			Source: req.Source, SourceName: req.SourceName, Content: req.Content, CharCount: len(req.Content),
		}
		if len(req.Content) > ChunkThreshold {
			full.Chunks = BuildChunkManifest(req.Content)
			result.Chunked = true
		}
		if err := p.db.UpsertEntry(full); err != nil {
			return nil, err
		}
		metrics.EpisodesWritten.WithLabelValues(req.Source).Add(2)
	} else {
		label := req.Label
		if label == "" {
			label = req.Summary
			if label == "" {
				label = p.resolveSummary(ctx, req.Content)
			}
		}
		if err := p.db.UpsertEntry(&store.Episode{
			ID: entryID, Summary: label, Tags: tags, Timestamp: req.Timestamp,
			Source: req.Source, SourceName: req.SourceName, Content: req.Content, CharCount: len(req.Content),
		}); err != nil {
			return nil, err
		}
		metrics.EpisodesWritten.WithLabelValues(req.Source).Inc()
	}

	var extracted []oracle.ExtractedFact
	if p.extractor != nil {
		var extractErr error
		extracted, extractErr = p.extractor.ExtractFacts(ctx, factsInput)
		if extractErr != nil {
			p.logger.Debug().Err(extractErr).Msg("pipeline: fact extraction failed, continuing without facts")
			extracted = nil
		}
	}
	if len(extracted) > 0 {
		written, err := p.facts.Store(extracted, primaryID, req.Timestamp, NewFactID)
		if err != nil {
			p.logger.Warn().Err(err).Msg("pipeline: failed to persist extracted facts")
		} else {
			result.FactsStored = len(written)
			metrics.FactsStored.Add(float64(len(written)))
		}
	}

	return result, nil
}

// withBaseTag prepends base to tags, the reserved-tag union spec.md §4.5
// step 3 and §6.5 require on two-tier episodes ("summary" / "full-content").
func withBaseTag(base string, tags []string) []string {
	for _, t := range tags {
		if t == base {
			return tags
		}
	}
	return append([]string{base}, tags...)
}

func (p *Pipeline) resolveTags(ctx context.Context, req Request) []string {
	if len(req.Tags) > 0 {
		return req.Tags
	}
	if p.tagger != nil {
		tags, err := p.tagger.Tags(ctx, req.Content)
		if err == nil && len(tags) > 0 {
			return tags
		}
		if err != nil {
			p.logger.Debug().Err(err).Msg("pipeline: tag oracle failed, falling back to auto-tags")
		}
	}
	return AutoTags(req.Content)
}

func (p *Pipeline) resolveSummary(ctx context.Context, content string) string {
	if p.summarizer != nil {
		summary, err := p.summarizer.Summarize(ctx, content)
		if err == nil && strings.TrimSpace(summary) != "" {
			return summary
		}
		if err != nil {
			p.logger.Debug().Err(err).Msg("pipeline: summary oracle failed, falling back to auto-summary")
		}
	}
	return AutoSummary(content)
}
