package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/marknutter/rlm/internal/oracle"
	"github.com/marknutter/rlm/internal/store"
)

type fakeTagger struct {
	tags []string
	err  error
}

func (f fakeTagger) Tags(context.Context, string) ([]string, error) { return f.tags, f.err }

type fakeSummarizer struct {
	summary string
	err     error
}

func (f fakeSummarizer) Summarize(context.Context, string) (string, error) { return f.summary, f.err }

type fakeExtractor struct {
	facts []oracle.ExtractedFact
	err   error
}

func (f fakeExtractor) ExtractFacts(context.Context, string) ([]oracle.ExtractedFact, error) {
	return f.facts, f.err
}

func newTestPipeline(t *testing.T, tagger oracle.Tagger, summarizer oracle.Summarizer, extractor oracle.FactExtractor) (*Pipeline, store.Storer) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, tagger, summarizer, extractor, zerolog.Nop()), db
}

func TestSmartRememberSmallContentSingleEntry(t *testing.T) {
	p, db := newTestPipeline(t, fakeTagger{tags: []string{"go", "testing"}}, fakeSummarizer{summary: "A short note."}, fakeExtractor{})

	result, err := p.SmartRemember(context.Background(), Request{
		Content: "We decided to use pytest.", Source: "text", Timestamp: 1,
	})
	require.NoError(t, err)
	require.Empty(t, result.SummaryID)
	require.False(t, result.Chunked)
	require.Equal(t, []string{"go", "testing"}, result.Tags)

	entry, err := db.GetEntry(result.EntryID)
	require.NoError(t, err)
	require.Equal(t, "We decided to use pytest.", entry.Content)
}

func TestSmartRememberLargeContentWritesTwoTier(t *testing.T) {
	p, db := newTestPipeline(t, fakeTagger{tags: []string{"go"}}, fakeSummarizer{summary: "Long session summary."}, fakeExtractor{})

	content := strings.Repeat("paragraph text here. ", 300) // > 4000 chars
	result, err := p.SmartRemember(context.Background(), Request{
		Content: content, Source: "text", SourceName: "notes.md", Timestamp: 1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.SummaryID)

	summaryEntry, err := db.GetEntry(result.SummaryID)
	require.NoError(t, err)
	require.Equal(t, "Long session summary.", summaryEntry.Content)
	require.Equal(t, "Summary: notes.md", summaryEntry.Summary)
	require.Equal(t, "text-summary", summaryEntry.Source)
	require.Equal(t, []string{"summary", "go"}, summaryEntry.Tags)

	fullEntry, err := db.GetEntry(result.EntryID)
	require.NoError(t, err)
	require.Equal(t, content, fullEntry.Content)
	require.Equal(t, "Full content: notes.md", fullEntry.Summary)
	require.Equal(t, "text", fullEntry.Source)
	require.Equal(t, []string{"full-content", "go"}, fullEntry.Tags)
}

func TestSmartRememberChunksVeryLargeContent(t *testing.T) {
	p, db := newTestPipeline(t, fakeTagger{}, fakeSummarizer{summary: "s"}, fakeExtractor{})

	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString(strings.Repeat("x", 400))
		b.WriteString("\n\n")
	}
	content := b.String()
	require.Greater(t, len(content), ChunkThreshold)

	result, err := p.SmartRemember(context.Background(), Request{Content: content, Source: "text", Timestamp: 1})
	require.NoError(t, err)
	require.True(t, result.Chunked)

	fullEntry, err := db.GetEntry(result.EntryID)
	require.NoError(t, err)
	require.NotEmpty(t, fullEntry.Chunks)
}

func TestSmartRememberFallsBackToAutoTagsOnOracleFailure(t *testing.T) {
	p, _ := newTestPipeline(t, fakeTagger{err: context.DeadlineExceeded}, fakeSummarizer{summary: "s"}, fakeExtractor{})

	result, err := p.SmartRemember(context.Background(), Request{
		Content: "testing testing pytest pytest framework framework setup setup",
		Source:  "text", Timestamp: 1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Tags)
}

func TestSmartRememberStoresExtractedFacts(t *testing.T) {
	p, _ := newTestPipeline(t, fakeTagger{tags: []string{"go"}}, fakeSummarizer{summary: "s"}, fakeExtractor{
		facts: []oracle.ExtractedFact{
			{Entity: "testing", FactText: "User prefers pytest.", FactType: "preference", Confidence: 0.9},
		},
	})

	result, err := p.SmartRemember(context.Background(), Request{Content: "some content", Source: "text", Timestamp: 1})
	require.NoError(t, err)
	require.Equal(t, 1, result.FactsStored)
}

func TestSmartRememberDedupReplacesPriorEntryForSameSourceName(t *testing.T) {
	p, db := newTestPipeline(t, fakeTagger{tags: []string{"go"}}, fakeSummarizer{summary: "s"}, fakeExtractor{})

	first, err := p.SmartRemember(context.Background(), Request{
		Content: "v1", Source: "file", SourceName: "/tmp/a.go", Timestamp: 1, Dedup: true,
	})
	require.NoError(t, err)

	second, err := p.SmartRemember(context.Background(), Request{
		Content: "v2", Source: "file", SourceName: "/tmp/a.go", Timestamp: 2, Dedup: true,
	})
	require.NoError(t, err)
	require.NotEqual(t, first.EntryID, second.EntryID)

	entries, err := db.FindEntriesBySourceName("/tmp/a.go")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry, err := db.GetEntry(second.EntryID)
	require.NoError(t, err)
	require.Equal(t, "v2", entry.Content)
}
