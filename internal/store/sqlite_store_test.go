package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAndGetEntry(t *testing.T) {
	s := newTestStore(t)

	e := &Episode{
		ID:        "m_000000000001",
		Summary:   "We chose pytest over unittest.",
		Tags:      []string{"pytest", "testing"},
		Timestamp: 1000,
		Source:    "text",
		Content:   "We chose pytest over unittest.",
		CharCount: len("We chose pytest over unittest."),
	}
	require.NoError(t, s.UpsertEntry(e))

	got, err := s.GetEntry(e.ID)
	require.NoError(t, err)
	require.Equal(t, e.Content, got.Content)
	require.Equal(t, e.Tags, got.Tags)

	_, err = s.GetEntry("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListEntriesTagFilterIsExact(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertEntry(&Episode{ID: "m_1", Summary: "a", Tags: []string{"python"}, Timestamp: 1, Source: "text", Content: "a", CharCount: 1}))
	require.NoError(t, s.UpsertEntry(&Episode{ID: "m_2", Summary: "b", Tags: []string{"python3"}, Timestamp: 2, Source: "text", Content: "b", CharCount: 1}))

	metas, total, err := s.ListEntries([]string{"python"}, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, metas, 1)
	require.Equal(t, "m_1", metas[0].ID)
}

func TestSearchFTSRanksByBM25(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertEntry(&Episode{
		ID: "m_1", Summary: "pytest pytest pytest", Tags: nil, Timestamp: 1, Source: "text",
		Content: "pytest is a testing framework", CharCount: 30,
	}))
	require.NoError(t, s.UpsertEntry(&Episode{
		ID: "m_2", Summary: "unrelated note", Tags: nil, Timestamp: 2, Source: "text",
		Content: "something about pytest in passing", CharCount: 34,
	}))

	results, err := s.SearchFTS("pytest", nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "m_1", results[0].ID)
	for i := 1; i < len(results); i++ {
		require.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestDeleteEntryCascadesFacts(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertEntry(&Episode{ID: "m_1", Summary: "s", Tags: nil, Timestamp: 1, Source: "text", Content: "c", CharCount: 1}))
	require.NoError(t, s.InsertFact(&Fact{ID: "f_1", FactText: "A declarative fact.", SourceEntryID: "m_1", FactType: FactObservation, Confidence: 0.9, CreatedAt: 1}))

	ok, err := s.DeleteEntry("m_1")
	require.NoError(t, err)
	require.True(t, ok)

	facts, err := s.ListFacts(FactFilter{IncludeSuperseded: true}, 10, 0)
	require.NoError(t, err)
	require.Empty(t, facts)
}

func TestSupersedeFact(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertEntry(&Episode{ID: "m_1", Summary: "s", Timestamp: 1, Source: "text", Content: "c", CharCount: 1}))
	require.NoError(t, s.InsertFact(&Fact{ID: "f_old", FactText: "User prefers unittest.", SourceEntryID: "m_1", Entity: "testing", FactType: FactPreference, Confidence: 0.8, CreatedAt: 1}))

	existing, err := s.FindFactsByEntity("testing", FactPreference)
	require.NoError(t, err)
	require.Len(t, existing, 1)
	require.NoError(t, s.SupersedeFact(existing[0].ID, "f_new"))
	require.NoError(t, s.InsertFact(&Fact{ID: "f_new", FactText: "User prefers pytest.", SourceEntryID: "m_1", Entity: "testing", FactType: FactPreference, Confidence: 0.9, CreatedAt: 2}))

	active, err := s.ListFacts(FactFilter{Entity: "testing", FactType: FactPreference}, 10, 0)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "f_new", active[0].ID)

	all, err := s.ListFacts(FactFilter{Entity: "testing", FactType: FactPreference, IncludeSuperseded: true}, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertEntry(&Episode{ID: "m_1", Summary: "s", Tags: []string{"go"}, Timestamp: 1, Source: "file", Content: "c", CharCount: 1}))

	stats, err := s.GetStats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalEntries)
	require.Equal(t, 1, stats.BySource["file"])
	require.Len(t, stats.TopTags, 1)
	require.Equal(t, "go", stats.TopTags[0].Tag)
}
