package store

// Episode is a stored memory entry with full content (§3.1).
type Episode struct {
	ID         string
	Summary    string
	Tags       []string
	Timestamp  float64
	Source     string
	SourceName string
	CharCount  int
	Content    string
	Chunks     []Chunk
}

// Chunk is one entry in an episode's chunk manifest (§3.4).
type Chunk struct {
	ChunkID   string `json:"chunk_id"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
	Preview   string `json:"preview"`
}

// EpisodeMeta is the metadata-only projection of an episode (no content,
// no chunks) returned by listing/search operations.
type EpisodeMeta struct {
	ID         string
	Summary    string
	Tags       []string
	Timestamp  float64
	Source     string
	SourceName string
	CharCount  int
}

// EpisodeSearchResult is an EpisodeMeta annotated with a BM25-derived score.
type EpisodeSearchResult struct {
	EpisodeMeta
	Score float64
}

// Fact types allowed by the store (§3.2). Values outside this set are
// coerced to FactObservation by the fact processor before storage.
const (
	FactDecision     = "decision"
	FactPreference   = "preference"
	FactRelationship = "relationship"
	FactTechnical    = "technical"
	FactObservation  = "observation"
)

// ValidFactTypes is the allowed fact_type set.
var ValidFactTypes = map[string]bool{
	FactDecision:     true,
	FactPreference:   true,
	FactRelationship: true,
	FactTechnical:    true,
	FactObservation:  true,
}

// Fact is an atomic, independently queryable claim extracted from an
// episode (§3.2).
type Fact struct {
	ID             string
	FactText       string
	SourceEntryID  string
	Entity         string // "" means none
	FactType       string
	Confidence     float64
	CreatedAt      float64
	SupersededBy   string // "" means not superseded
}

// StatsBucket is one entry in the size-distribution histogram.
type StatsBucket struct {
	Label string
	Count int
}

// Stats is the aggregate report returned by get_stats (§4.1).
type Stats struct {
	TotalEntries    int
	TotalChars      int64
	SizeBuckets     []StatsBucket
	BySource        map[string]int
	OldestTimestamp float64
	NewestTimestamp float64
	TopTags         []TagCount
	DBFileBytes     int64
}

// TagCount is one entry in a tag-frequency listing.
type TagCount struct {
	Tag   string
	Count int
}

// FactFilter narrows list_facts/search_facts_fts queries.
type FactFilter struct {
	Entity            string
	FactType          string
	IncludeSuperseded bool
}

// Storer is the full contract the ingestion pipeline, fact processor,
// archival coordinator, and query surface depend on. Defined as an
// interface (rather than a concrete *SQLiteStore everywhere) so tests can
// substitute a fake, and so a future alternate backend only needs to
// satisfy this contract.
type Storer interface {
	Close() error

	UpsertEntry(e *Episode) error
	GetEntry(id string) (*Episode, error)
	ListEntries(tags []string, offset, limit int) ([]EpisodeMeta, int, error)
	FindEntriesBySourceName(name string) ([]EpisodeMeta, error)
	DeleteEntry(id string) (bool, error)
	SearchFTS(query string, tags []string, max int) ([]EpisodeSearchResult, error)
	Snippet(query, entryID string, maxTokens int) (string, error)

	InsertFact(f *Fact) error
	SupersedeFact(oldID, newID string) error
	ListFacts(filter FactFilter, limit, offset int) ([]Fact, error)
	SearchFactsFTS(query string, filter FactFilter, max int) ([]Fact, error)
	FindFactsByEntity(entity, factType string) ([]Fact, error)

	GetStats() (*Stats, error)
	RebuildFTS() error
}

var _ Storer = (*SQLiteStore)(nil)
