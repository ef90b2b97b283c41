package oracle

import (
	"context"

	"github.com/rs/zerolog"
)

// Composite tries a primary oracle first and falls through to the
// documented fallback on error, so callers (the ingestion pipeline) see
// a single Tagger/Summarizer/FactExtractor and never have to know a
// primary oracle exists at all. This is the "with fallbacks" half of the
// oracle adapter contract (spec.md §4.3); the pipeline's own
// AutoTags/AutoSummary are a second, content-only fallback used when
// even Composite is absent (no API key configured).
type Composite struct {
	Primary  *AnthropicOracle
	Fallback struct {
		Tagger        Tagger
		Summarizer    Summarizer
		FactExtractor FactExtractor
	}
	logger zerolog.Logger
}

// NewComposite wires primary against the fixed fallback trio.
func NewComposite(primary *AnthropicOracle, logger zerolog.Logger) *Composite {
	c := &Composite{Primary: primary, logger: logger}
	c.Fallback.Tagger = FallbackTagger{}
	c.Fallback.Summarizer = FallbackSummarizer{}
	c.Fallback.FactExtractor = FallbackFactExtractor{}
	return c
}

func (c *Composite) Tags(ctx context.Context, content string) ([]string, error) {
	tags, err := c.Primary.Tags(ctx, content)
	if err == nil && len(tags) > 0 {
		return tags, nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("component", "oracle").Msg("primary tagger failed, using fallback")
	}
	return c.Fallback.Tagger.Tags(ctx, content)
}

func (c *Composite) Summarize(ctx context.Context, content string) (string, error) {
	summary, err := c.Primary.Summarize(ctx, content)
	if err == nil && summary != "" {
		return summary, nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("component", "oracle").Msg("primary summarizer failed, using fallback")
	}
	return c.Fallback.Summarizer.Summarize(ctx, content)
}

func (c *Composite) ExtractFacts(ctx context.Context, transcript string) ([]ExtractedFact, error) {
	facts, err := c.Primary.ExtractFacts(ctx, transcript)
	if err == nil {
		return facts, nil
	}
	c.logger.Warn().Err(err).Str("component", "oracle").Msg("primary fact extractor failed, using fallback")
	return c.Fallback.FactExtractor.ExtractFacts(ctx, transcript)
}

var (
	_ Tagger        = (*Composite)(nil)
	_ Summarizer    = (*Composite)(nil)
	_ FactExtractor = (*Composite)(nil)
)
