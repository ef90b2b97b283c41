package query

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marknutter/rlm/internal/store"
)

func newTestSurface(t *testing.T) (*Surface, store.Storer) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSurface(db), db
}

func TestRecallFindsMatchingEntry(t *testing.T) {
	s, db := newTestSurface(t)
	require.NoError(t, db.UpsertEntry(&store.Episode{
		ID: "m_1", Summary: "decided to use pytest", Tags: []string{"testing"},
		Timestamp: 1, Source: "text", Content: "We decided to use pytest for this project.", CharCount: 10,
	}))

	out, err := s.Recall("pytest", nil, 5)
	require.NoError(t, err)
	require.Contains(t, out, "m_1")
	require.Contains(t, out, "testing")
}

func TestExtractReturnsFullContent(t *testing.T) {
	s, db := newTestSurface(t)
	require.NoError(t, db.UpsertEntry(&store.Episode{ID: "m_1", Summary: "s", Timestamp: 1, Source: "text", Content: "full body text", CharCount: 10}))

	out, err := s.Extract("m_1")
	require.NoError(t, err)
	require.Equal(t, "full body text", out)
}

func TestListReturnsTotalCount(t *testing.T) {
	s, db := newTestSurface(t)
	require.NoError(t, db.UpsertEntry(&store.Episode{ID: "m_1", Summary: "one", Timestamp: 1, Source: "text", Content: "a", CharCount: 1}))
	require.NoError(t, db.UpsertEntry(&store.Episode{ID: "m_2", Summary: "two", Timestamp: 2, Source: "text", Content: "b", CharCount: 1}))

	out, total, err := s.List(nil, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Contains(t, out, "m_1")
	require.Contains(t, out, "m_2")
}

func TestStatsRendersTotals(t *testing.T) {
	s, db := newTestSurface(t)
	require.NoError(t, db.UpsertEntry(&store.Episode{ID: "m_1", Summary: "s", Timestamp: 1, Source: "file", Content: "a", CharCount: 1}))

	out, err := s.Stats()
	require.NoError(t, err)
	require.Contains(t, out, "Total entries: 1")
}
