package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/marknutter/rlm/internal/pipeline"
	"github.com/marknutter/rlm/internal/store"
)

func writeSession(t *testing.T, dir string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, "session.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestCoordinator(t *testing.T) (*Coordinator, store.Storer) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	pl := pipeline.New(db, nil, nil, nil, zerolog.Nop())
	return NewCoordinator(db, pl, zerolog.Nop()), db
}

func TestArchiveWritesEntryAndWatermark(t *testing.T) {
	c, db := newTestCoordinator(t)
	dir := t.TempDir()
	path := writeSession(t, dir, []string{
		`{"type":"user","message":{"role":"user","content":"hello"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":"hi there"}}`,
	})

	result, err := c.Archive(context.Background(), Event{SessionPath: path})
	require.NoError(t, err)
	require.False(t, result.Skipped)
	require.NotEmpty(t, result.EntryID)

	_, err = db.GetEntry(result.EntryID)
	require.NoError(t, err)

	_, err = os.Stat(watermarkPath(path))
	require.NoError(t, err)
}

func TestArchiveSkipsUnchangedSize(t *testing.T) {
	c, _ := newTestCoordinator(t)
	dir := t.TempDir()
	path := writeSession(t, dir, []string{`{"type":"user","message":{"role":"user","content":"hello"}}`})

	_, err := c.Archive(context.Background(), Event{SessionPath: path})
	require.NoError(t, err)

	result, err := c.Archive(context.Background(), Event{SessionPath: path})
	require.NoError(t, err)
	require.True(t, result.Skipped)
	require.Equal(t, "watermark unchanged", result.Reason)
}

func TestArchiveTagsEntryWithBaseTagsAndLabel(t *testing.T) {
	c, db := newTestCoordinator(t)
	dir := t.TempDir()
	path := writeSession(t, dir, []string{
		`{"type":"user","message":{"role":"user","content":"hello"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":"hi there"}}`,
	})

	result, err := c.Archive(context.Background(), Event{SessionPath: path, ProjectDir: dir})
	require.NoError(t, err)
	require.False(t, result.Skipped)

	entry, err := db.GetEntry(result.EntryID)
	require.NoError(t, err)
	require.Contains(t, entry.Tags, "conversation")
	require.Contains(t, entry.Tags, "session")
	require.Contains(t, entry.Tags, filepath.Base(dir))
	require.Contains(t, entry.Summary, "Session:")
}

func TestArchiveReplacesPriorEntryWhenSessionGrows(t *testing.T) {
	c, db := newTestCoordinator(t)
	dir := t.TempDir()
	path := writeSession(t, dir, []string{`{"type":"user","message":{"role":"user","content":"hello"}}`})

	first, err := c.Archive(context.Background(), Event{SessionPath: path})
	require.NoError(t, err)

	extra := writeSession(t, dir, []string{
		`{"type":"user","message":{"role":"user","content":"hello"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":"a whole lot more content now"}}`,
	})
	require.Equal(t, path, extra)

	second, err := c.Archive(context.Background(), Event{SessionPath: path})
	require.NoError(t, err)
	require.False(t, second.Skipped)

	_, err = db.GetEntry(first.EntryID)
	require.Error(t, err)
}
