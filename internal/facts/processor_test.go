package facts

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/marknutter/rlm/internal/oracle"
	"github.com/marknutter/rlm/internal/store"
)

func newTestProcessor(t *testing.T) (*Processor, *store.SQLiteStore) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewProcessor(db, zerolog.Nop()), db
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + string(rune('0'+n))
	}
}

func TestStoreDropsLowConfidence(t *testing.T) {
	p, db := newTestProcessor(t)
	require.NoError(t, db.UpsertEntry(&store.Episode{ID: "m_1", Summary: "s", Timestamp: 1, Source: "text", Content: "c", CharCount: 1}))

	written, err := p.Store([]oracle.ExtractedFact{
		{Entity: "pytest", FactText: "low confidence", FactType: "preference", Confidence: 0.5},
		{Entity: "pytest", FactText: "high confidence", FactType: "preference", Confidence: 0.9},
	}, "m_1", 100, sequentialIDs("f_"))

	require.NoError(t, err)
	require.Len(t, written, 1)
	require.Equal(t, "high confidence", written[0].FactText)
}

func TestStoreNormalizesStopwordEntityToNoneButKeepsFact(t *testing.T) {
	p, db := newTestProcessor(t)
	require.NoError(t, db.UpsertEntry(&store.Episode{ID: "m_1", Summary: "s", Timestamp: 1, Source: "text", Content: "c", CharCount: 1}))

	written, err := p.Store([]oracle.ExtractedFact{
		{Entity: "the", FactText: "a vague observation noted", FactType: "preference", Confidence: 0.9},
	}, "m_1", 100, sequentialIDs("f_"))

	require.NoError(t, err)
	require.Len(t, written, 1)
	require.Equal(t, "", written[0].Entity)
}

func TestStoreNormalizesShortEntityToNone(t *testing.T) {
	p, db := newTestProcessor(t)
	require.NoError(t, db.UpsertEntry(&store.Episode{ID: "m_1", Summary: "s", Timestamp: 1, Source: "text", Content: "c", CharCount: 1}))

	written, err := p.Store([]oracle.ExtractedFact{
		{Entity: "x", FactText: "something short on entity", FactType: "preference", Confidence: 0.9},
	}, "m_1", 100, sequentialIDs("f_"))

	require.NoError(t, err)
	require.Len(t, written, 1)
	require.Equal(t, "", written[0].Entity)
}

func TestStoreDropsShortFactText(t *testing.T) {
	p, db := newTestProcessor(t)
	require.NoError(t, db.UpsertEntry(&store.Episode{ID: "m_1", Summary: "s", Timestamp: 1, Source: "text", Content: "c", CharCount: 1}))

	written, err := p.Store([]oracle.ExtractedFact{
		{Entity: "pytest", FactText: "too short", FactType: "preference", Confidence: 0.9},
	}, "m_1", 100, sequentialIDs("f_"))

	require.NoError(t, err)
	require.Len(t, written, 0)
}

func TestStoreCoercesInvalidFactType(t *testing.T) {
	p, db := newTestProcessor(t)
	require.NoError(t, db.UpsertEntry(&store.Episode{ID: "m_1", Summary: "s", Timestamp: 1, Source: "text", Content: "c", CharCount: 1}))

	written, err := p.Store([]oracle.ExtractedFact{
		{Entity: "x", FactText: "something noted", FactType: "bogus-type", Confidence: 0.9},
	}, "m_1", 100, sequentialIDs("f_"))

	require.NoError(t, err)
	require.Len(t, written, 1)
	require.Equal(t, store.FactObservation, written[0].FactType)
}

func TestStoreSupersedesExistingFactForSameEntity(t *testing.T) {
	p, db := newTestProcessor(t)
	require.NoError(t, db.UpsertEntry(&store.Episode{ID: "m_1", Summary: "s", Timestamp: 1, Source: "text", Content: "c", CharCount: 1}))

	_, err := p.Store([]oracle.ExtractedFact{
		{Entity: "testing", FactText: "User prefers unittest.", FactType: "preference", Confidence: 0.8},
	}, "m_1", 100, sequentialIDs("f_old_"))
	require.NoError(t, err)

	_, err = p.Store([]oracle.ExtractedFact{
		{Entity: "Testing", FactText: "User prefers pytest.", FactType: "preference", Confidence: 0.9},
	}, "m_1", 200, sequentialIDs("f_new_"))
	require.NoError(t, err)

	active, err := db.ListFacts(store.FactFilter{Entity: "testing", FactType: store.FactPreference}, 10, 0)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "User prefers pytest.", active[0].FactText)

	all, err := db.ListFacts(store.FactFilter{Entity: "testing", FactType: store.FactPreference, IncludeSuperseded: true}, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
