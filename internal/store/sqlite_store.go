// Package store provides the SQLite-backed durable substrate for episodes
// and facts: schema, dual FTS5 indexes, triggers, and the CRUD/search
// contracts every other component depends on.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
)

// ErrNotFound is returned by Get-style lookups that find no row.
var ErrNotFound = errors.New("store: not found")

// SQLiteStore is the SQLite-backed data store. Safe for concurrent use from
// multiple goroutines; the underlying driver connection pool gives each
// goroutine its own connection, matching the "connections are thread-local"
// contract in spec.md §5.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    summary TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '[]',
    timestamp REAL NOT NULL,
    source TEXT NOT NULL DEFAULT 'text',
    source_name TEXT,
    char_count INTEGER NOT NULL DEFAULT 0,
    content TEXT NOT NULL DEFAULT '',
    chunks TEXT
);

CREATE INDEX IF NOT EXISTS idx_entries_source_name ON entries(source_name);
CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries(timestamp DESC);

CREATE TABLE IF NOT EXISTS facts (
    id TEXT PRIMARY KEY,
    fact_text TEXT NOT NULL,
    source_entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
    entity TEXT,
    fact_type TEXT NOT NULL DEFAULT 'observation',
    confidence REAL NOT NULL DEFAULT 0.8,
    created_at REAL NOT NULL,
    superseded_by TEXT
);

CREATE INDEX IF NOT EXISTS idx_facts_entity_type ON facts(entity, fact_type);
CREATE INDEX IF NOT EXISTS idx_facts_source_entry ON facts(source_entry_id);
`

// initFTS creates the two external-content FTS5 tables and their sync
// triggers if they don't already exist. FTS5 virtual tables don't reliably
// support "CREATE VIRTUAL TABLE IF NOT EXISTS" across driver versions, so
// existence is checked against sqlite_master first, matching the pattern
// the store's Python ancestor uses.
func initFTS(db *sql.DB) error {
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='entries_fts'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := db.Exec(`
			CREATE VIRTUAL TABLE entries_fts USING fts5(
				summary, tags, content,
				content='entries', content_rowid='rowid',
				tokenize='porter unicode61'
			)`); err != nil {
			return fmt.Errorf("create entries_fts: %w", err)
		}
	} else if err != nil {
		return err
	}

	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='facts_fts'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := db.Exec(`
			CREATE VIRTUAL TABLE facts_fts USING fts5(
				fact_text, entity, fact_type,
				content='facts', content_rowid='rowid',
				tokenize='porter unicode61'
			)`); err != nil {
			return fmt.Errorf("create facts_fts: %w", err)
		}
	} else if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
			INSERT INTO entries_fts(rowid, summary, tags, content)
			VALUES (new.rowid, new.summary, new.tags, new.content);
		END;

		CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
			INSERT INTO entries_fts(entries_fts, rowid, summary, tags, content)
			VALUES ('delete', old.rowid, old.summary, old.tags, old.content);
		END;

		CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE ON entries BEGIN
			INSERT INTO entries_fts(entries_fts, rowid, summary, tags, content)
			VALUES ('delete', old.rowid, old.summary, old.tags, old.content);
			INSERT INTO entries_fts(rowid, summary, tags, content)
			VALUES (new.rowid, new.summary, new.tags, new.content);
		END;

		CREATE TRIGGER IF NOT EXISTS facts_ai AFTER INSERT ON facts BEGIN
			INSERT INTO facts_fts(rowid, fact_text, entity, fact_type)
			VALUES (new.rowid, new.fact_text, new.entity, new.fact_type);
		END;

		CREATE TRIGGER IF NOT EXISTS facts_ad AFTER DELETE ON facts BEGIN
			INSERT INTO facts_fts(facts_fts, rowid, fact_text, entity, fact_type)
			VALUES ('delete', old.rowid, old.fact_text, old.entity, old.fact_type);
		END;

		CREATE TRIGGER IF NOT EXISTS facts_au AFTER UPDATE ON facts BEGIN
			INSERT INTO facts_fts(facts_fts, rowid, fact_text, entity, fact_type)
			VALUES ('delete', old.rowid, old.fact_text, old.entity, old.fact_type);
			INSERT INTO facts_fts(rowid, fact_text, entity, fact_type)
			VALUES (new.rowid, new.fact_text, new.entity, new.fact_type);
		END;
	`)
	if err != nil {
		return fmt.Errorf("create fts triggers: %w", err)
	}
	return nil
}

// Open creates (or opens) a SQLite store at path, enabling WAL journaling
// and foreign-key enforcement as required by spec.md §5. Use ":memory:" for
// an ephemeral store in tests.
func Open(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + url.PathEscape(path) +
			"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	} else {
		dsn = "file::memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	if err := initFTS(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection(s).
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// FileBytes returns the on-disk size of the database file at path.
// Returns 0 for in-memory stores.
func FileBytes(path string) int64 {
	if path == "" || path == ":memory:" {
		return 0
	}
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// =============================================================================
// Episode CRUD
// =============================================================================

// UpsertEntry inserts or replaces an episode row in a single transaction.
// The FTS index reflects the new state once the transaction commits
// (enforced by the triggers above).
func (s *SQLiteStore) UpsertEntry(e *Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tagsJSON, err := json.Marshal(e.Tags)
	if err != nil {
		return fmt.Errorf("store: marshal tags: %w", err)
	}

	var chunksJSON sql.NullString
	if len(e.Chunks) > 0 {
		b, err := json.Marshal(e.Chunks)
		if err != nil {
			return fmt.Errorf("store: marshal chunks: %w", err)
		}
		chunksJSON = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO entries (id, summary, tags, timestamp, source, source_name, char_count, content, chunks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			summary = excluded.summary,
			tags = excluded.tags,
			timestamp = excluded.timestamp,
			source = excluded.source,
			source_name = excluded.source_name,
			char_count = excluded.char_count,
			content = excluded.content,
			chunks = excluded.chunks
	`, e.ID, e.Summary, string(tagsJSON), e.Timestamp, e.Source, nullableString(e.SourceName), e.CharCount, e.Content, chunksJSON)
	if err != nil {
		return fmt.Errorf("store: upsert entry: %w", err)
	}

	return tx.Commit()
}

// GetEntry returns the full episode including content, or ErrNotFound.
func (s *SQLiteStore) GetEntry(id string) (*Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, summary, tags, timestamp, source, source_name, char_count, content, chunks
		FROM entries WHERE id = ?`, id)

	var (
		tagsJSON   string
		sourceName sql.NullString
		chunksJSON sql.NullString
		e          Episode
	)
	if err := row.Scan(&e.ID, &e.Summary, &tagsJSON, &e.Timestamp, &e.Source, &sourceName, &e.CharCount, &e.Content, &chunksJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get entry: %w", err)
	}
	e.SourceName = sourceName.String
	if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
		e.Tags = nil
	}
	if chunksJSON.Valid && chunksJSON.String != "" {
		if err := json.Unmarshal([]byte(chunksJSON.String), &e.Chunks); err != nil {
			e.Chunks = nil
		}
	}
	return &e, nil
}

// ListEntries returns a metadata-only, paginated projection, newest first.
// If tags is non-empty, only episodes whose tag set intersects tags
// (exact, case-normalized match) are returned.
func (s *SQLiteStore) ListEntries(tags []string, offset, limit int) ([]EpisodeMeta, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(tags) == 0 {
		var total int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err := s.db.Query(`
			SELECT id, summary, tags, timestamp, source, source_name, char_count
			FROM entries ORDER BY timestamp DESC LIMIT ? OFFSET ?`, limit, offset)
		if err != nil {
			return nil, 0, err
		}
		defer rows.Close()
		metas, err := scanMetaRows(rows)
		return metas, total, err
	}

	placeholders, params := inPlaceholders(normalizeTags(tags))

	var total int
	countSQL := fmt.Sprintf(`SELECT COUNT(DISTINCT e.id) FROM entries e, json_each(e.tags) j WHERE j.value IN (%s)`, placeholders)
	if err := s.db.QueryRow(countSQL, params...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL := fmt.Sprintf(`
		SELECT DISTINCT e.id, e.summary, e.tags, e.timestamp, e.source, e.source_name, e.char_count
		FROM entries e, json_each(e.tags) j
		WHERE j.value IN (%s)
		ORDER BY e.timestamp DESC LIMIT ? OFFSET ?`, placeholders)
	rows, err := s.db.Query(listSQL, append(append([]interface{}{}, params...), limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	metas, err := scanMetaRows(rows)
	return metas, total, err
}

// FindEntriesBySourceName returns the metadata-only rows sharing source_name.
func (s *SQLiteStore) FindEntriesBySourceName(name string) ([]EpisodeMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, summary, tags, timestamp, source, source_name, char_count
		FROM entries WHERE source_name = ?`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMetaRows(rows)
}

// DeleteEntry removes an episode (cascading to its facts via the foreign
// key) and reports whether a row was found.
func (s *SQLiteStore) DeleteEntry(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("store: delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var tokenRe = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
var strictTokenRe = regexp.MustCompile(`[a-zA-Z]+`)

// buildMatchExpr turns free text into an FTS5 MATCH expression: alphanumeric
// tokens of at least 2 chars, OR-joined, each quoted to survive special
// characters in the query.
func buildMatchExpr(query string) string {
	return buildMatchExprWith(tokenRe, query, 2)
}

// buildStrictMatchExpr is the fallback used after a MATCH syntax error:
// alpha-only tokens of at least 3 chars.
func buildStrictMatchExpr(query string) string {
	return buildMatchExprWith(strictTokenRe, query, 3)
}

func buildMatchExprWith(re *regexp.Regexp, query string, minLen int) string {
	words := re.FindAllString(strings.ToLower(query), -1)
	var terms []string
	for _, w := range words {
		if len(w) >= minLen {
			terms = append(terms, `"`+w+`"`)
		}
	}
	if len(terms) == 0 {
		return ""
	}
	out := terms[0]
	for _, t := range terms[1:] {
		out += " OR " + t
	}
	return out
}

// SearchFTS performs BM25-ranked full text search over episodes with column
// weights (summary 3.0, tags 2.0, content 1.0). On a MATCH syntax error it
// retries with the stricter token filter; a second failure returns empty.
func (s *SQLiteStore) SearchFTS(query string, tags []string, max int) ([]EpisodeSearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matchExpr := buildMatchExpr(query)
	if matchExpr == "" {
		return nil, nil
	}

	results, err := s.runSearchFTS(matchExpr, tags, max)
	if err == nil {
		return results, nil
	}

	strict := buildStrictMatchExpr(query)
	if strict == "" {
		return nil, nil
	}
	results, err = s.runSearchFTS(strict, tags, max)
	if err != nil {
		return nil, nil
	}
	return results, nil
}

func (s *SQLiteStore) runSearchFTS(matchExpr string, tags []string, max int) ([]EpisodeSearchResult, error) {
	var (
		rows *sql.Rows
		err  error
	)
	const baseSelect = `
		SELECT e.id, e.summary, e.tags, e.timestamp, e.source, e.source_name, e.char_count,
		       bm25(entries_fts, 3.0, 2.0, 1.0) AS rank
		FROM entries_fts fts
		JOIN entries e ON e.rowid = fts.rowid
		WHERE entries_fts MATCH ?`

	if len(tags) == 0 {
		rows, err = s.db.Query(baseSelect+` ORDER BY rank LIMIT ?`, matchExpr, max)
	} else {
		placeholders, tagParams := inPlaceholders(normalizeTags(tags))
		q := baseSelect + fmt.Sprintf(` AND e.id IN (
			SELECT DISTINCT e2.id FROM entries e2, json_each(e2.tags) j WHERE j.value IN (%s)
		) ORDER BY rank LIMIT ?`, placeholders)
		args := append([]interface{}{matchExpr}, tagParams...)
		args = append(args, max)
		rows, err = s.db.Query(q, args...)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EpisodeSearchResult
	for rows.Next() {
		var (
			r          EpisodeSearchResult
			tagsJSON   string
			sourceName sql.NullString
			rank       float64
		)
		if err := rows.Scan(&r.ID, &r.Summary, &tagsJSON, &r.Timestamp, &r.Source, &sourceName, &r.CharCount, &rank); err != nil {
			return nil, err
		}
		r.SourceName = sourceName.String
		_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
		r.Score = -rank // sign-flipped: exposed score is the positive-is-better value.
		out = append(out, r)
	}
	return out, rows.Err()
}

// Snippet returns an opaque highlighted excerpt for a query against a
// specific entry, or "" if there's no match.
func (s *SQLiteStore) Snippet(query, entryID string, maxTokens int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matchExpr := buildMatchExpr(query)
	if matchExpr == "" {
		return "", nil
	}
	var snippet string
	err := s.db.QueryRow(`
		SELECT snippet(entries_fts, 2, '>>>', '<<<', '...', ?)
		FROM entries_fts fts
		JOIN entries e ON e.rowid = fts.rowid
		WHERE entries_fts MATCH ? AND e.id = ?`, maxTokens, matchExpr, entryID).Scan(&snippet)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", nil
	}
	return snippet, nil
}

// RebuildFTS rebuilds both FTS indexes from their primary tables. Use after
// bulk import.
func (s *SQLiteStore) RebuildFTS() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`INSERT INTO entries_fts(entries_fts) VALUES('rebuild')`); err != nil {
		return fmt.Errorf("store: rebuild entries_fts: %w", err)
	}
	if _, err := s.db.Exec(`INSERT INTO facts_fts(facts_fts) VALUES('rebuild')`); err != nil {
		return fmt.Errorf("store: rebuild facts_fts: %w", err)
	}
	return nil
}

// =============================================================================
// helpers
// =============================================================================

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func scanMetaRows(rows *sql.Rows) ([]EpisodeMeta, error) {
	var out []EpisodeMeta
	for rows.Next() {
		var (
			m          EpisodeMeta
			tagsJSON   string
			sourceName sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Summary, &tagsJSON, &m.Timestamp, &m.Source, &sourceName, &m.CharCount); err != nil {
			return nil, err
		}
		m.SourceName = sourceName.String
		_ = json.Unmarshal([]byte(tagsJSON), &m.Tags)
		out = append(out, m)
	}
	return out, rows.Err()
}

func inPlaceholders(vals []string) (string, []interface{}) {
	params := make([]interface{}, len(vals))
	ph := ""
	for i, v := range vals {
		if i > 0 {
			ph += ","
		}
		ph += "?"
		params[i] = v
	}
	return ph, params
}

func normalizeTags(tags []string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = strings.ToLower(strings.TrimSpace(t))
	}
	return out
}
