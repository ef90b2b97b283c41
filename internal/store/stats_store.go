package store

import (
	"encoding/json"
	"fmt"
	"sort"
)

// GetStats computes the aggregate report in spec.md §4.1: totals, size
// distribution, per-source counts, oldest/newest timestamp, top tags
// (rebuilt by scanning tag arrays, which is acceptable since counts are
// bounded by the number of episodes), and the database file size
// (page count times page size).
func (s *SQLiteStore) GetStats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		BySource: make(map[string]int),
		SizeBuckets: []StatsBucket{
			{Label: "small (<=2KB)"},
			{Label: "medium (2-10KB)"},
			{Label: "large (10-50KB)"},
			{Label: "huge (>50KB)"},
		},
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&stats.TotalEntries); err != nil {
		return nil, fmt.Errorf("store: stats count: %w", err)
	}

	rows, err := s.db.Query(`SELECT source, char_count, timestamp, tags FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("store: stats scan: %w", err)
	}
	defer rows.Close()

	tagCounts := make(map[string]int)
	first := true
	for rows.Next() {
		var (
			source    string
			charCount int64
			ts        float64
			tagsJSON  string
		)
		if err := rows.Scan(&source, &charCount, &ts, &tagsJSON); err != nil {
			return nil, err
		}
		stats.TotalChars += charCount
		stats.BySource[source]++
		bucketIndex(stats.SizeBuckets, charCount)

		if first || ts < stats.OldestTimestamp {
			stats.OldestTimestamp = ts
		}
		if first || ts > stats.NewestTimestamp {
			stats.NewestTimestamp = ts
		}
		first = false

		var tags []string
		_ = json.Unmarshal([]byte(tagsJSON), &tags)
		for _, t := range tags {
			tagCounts[t]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.TopTags = sortedTagCounts(tagCounts)

	var pageCount, pageSize int64
	if err := s.db.QueryRow(`PRAGMA page_count`).Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("store: stats page count: %w", err)
	}
	if err := s.db.QueryRow(`PRAGMA page_size`).Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("store: stats page size: %w", err)
	}
	stats.DBFileBytes = pageCount * pageSize
	return stats, nil
}

func bucketIndex(buckets []StatsBucket, charCount int64) {
	switch {
	case charCount <= 2048:
		buckets[0].Count++
	case charCount <= 10*1024:
		buckets[1].Count++
	case charCount <= 50*1024:
		buckets[2].Count++
	default:
		buckets[3].Count++
	}
}

func sortedTagCounts(m map[string]int) []TagCount {
	out := make([]TagCount, 0, len(m))
	for tag, count := range m {
		out = append(out, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
