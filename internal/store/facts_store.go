package store

import (
	"database/sql"
	"fmt"
)

// InsertFact stores a new fact row.
func (s *SQLiteStore) InsertFact(f *Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO facts (id, fact_text, source_entry_id, entity, fact_type, confidence, created_at, superseded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fact_text = excluded.fact_text,
			source_entry_id = excluded.source_entry_id,
			entity = excluded.entity,
			fact_type = excluded.fact_type,
			confidence = excluded.confidence,
			created_at = excluded.created_at,
			superseded_by = excluded.superseded_by
	`, f.ID, f.FactText, f.SourceEntryID, nullableString(f.Entity), f.FactType, f.Confidence, f.CreatedAt, nullableString(f.SupersededBy))
	if err != nil {
		return fmt.Errorf("store: insert fact: %w", err)
	}
	return nil
}

// SupersedeFact marks oldID as superseded by newID. A no-op error (nil) is
// returned even if oldID doesn't exist, matching the contradiction-detection
// call site which supersedes every matching row it found.
func (s *SQLiteStore) SupersedeFact(oldID, newID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE facts SET superseded_by = ? WHERE id = ?`, newID, oldID)
	if err != nil {
		return fmt.Errorf("store: supersede fact: %w", err)
	}
	return nil
}

// ListFacts returns facts matching filter, newest first.
func (s *SQLiteStore) ListFacts(filter FactFilter, limit, offset int) ([]Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := `SELECT id, fact_text, source_entry_id, entity, fact_type, confidence, created_at, superseded_by FROM facts WHERE 1=1`
	var args []interface{}
	if filter.Entity != "" {
		q += ` AND entity = ?`
		args = append(args, filter.Entity)
	}
	if filter.FactType != "" {
		q += ` AND fact_type = ?`
		args = append(args, filter.FactType)
	}
	if !filter.IncludeSuperseded {
		q += ` AND superseded_by IS NULL`
	}
	q += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFactRows(rows)
}

// SearchFactsFTS performs BM25-ranked full text search over facts.
func (s *SQLiteStore) SearchFactsFTS(query string, filter FactFilter, max int) ([]Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matchExpr := buildMatchExpr(query)
	if matchExpr == "" {
		return nil, nil
	}

	q := `
		SELECT f.id, f.fact_text, f.source_entry_id, f.entity, f.fact_type, f.confidence, f.created_at, f.superseded_by
		FROM facts_fts fts
		JOIN facts f ON f.rowid = fts.rowid
		WHERE facts_fts MATCH ?`
	args := []interface{}{matchExpr}
	if filter.Entity != "" {
		q += ` AND f.entity = ?`
		args = append(args, filter.Entity)
	}
	if filter.FactType != "" {
		q += ` AND f.fact_type = ?`
		args = append(args, filter.FactType)
	}
	if !filter.IncludeSuperseded {
		q += ` AND f.superseded_by IS NULL`
	}
	q += ` ORDER BY bm25(facts_fts) LIMIT ?`
	args = append(args, max)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		strict := buildStrictMatchExpr(query)
		if strict == "" {
			return nil, nil
		}
		args[0] = strict
		rows, err = s.db.Query(q, args...)
		if err != nil {
			return nil, nil
		}
	}
	defer rows.Close()
	return scanFactRows(rows)
}

// FindFactsByEntity returns non-superseded facts matching
// (lower(entity), fact_type) — the contradiction-detection lookup used by
// the fact processor before inserting a new fact.
func (s *SQLiteStore) FindFactsByEntity(entity, factType string) ([]Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, fact_text, source_entry_id, entity, fact_type, confidence, created_at, superseded_by
		FROM facts WHERE lower(entity) = lower(?) AND fact_type = ? AND superseded_by IS NULL`, entity, factType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFactRows(rows)
}

func scanFactRows(rows *sql.Rows) ([]Fact, error) {
	var out []Fact
	for rows.Next() {
		var (
			f            Fact
			entity       sql.NullString
			supersededBy sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.FactText, &f.SourceEntryID, &entity, &f.FactType, &f.Confidence, &f.CreatedAt, &supersededBy); err != nil {
			return nil, err
		}
		f.Entity = entity.String
		f.SupersededBy = supersededBy.String
		out = append(out, f)
	}
	return out, rows.Err()
}
