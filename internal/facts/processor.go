// Package facts implements the validation, normalization, and supersession
// rules applied to facts before they reach durable storage (spec.md §4.4).
package facts

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/marknutter/rlm/internal/oracle"
	"github.com/marknutter/rlm/internal/store"
)

// MinConfidence is the floor below which an extracted fact is discarded
// outright rather than stored with low trust.
const MinConfidence = 0.75

// minFactTextLen rejects facts too short to be a specific, atomic claim.
const minFactTextLen = 10

// minEntityLen is the shortest entity string treated as meaningful; shorter
// strings are normalized to "" (none) rather than dropping the fact.
const minEntityLen = 2

// defaultConfidence is applied when the oracle omits confidence entirely.
const defaultConfidence = 0.8

// Processor turns oracle-extracted facts into store.Fact rows: validating
// type and confidence, normalizing entity casing, and superseding any
// prior fact for the same (entity, fact_type) pair.
type Processor struct {
	db     store.Storer
	logger zerolog.Logger
}

func NewProcessor(db store.Storer, logger zerolog.Logger) *Processor {
	return &Processor{db: db, logger: logger}
}

// Store validates and persists extracted facts against sourceEntryID,
// assigning each a fresh ID via idFn and a created_at of createdAt. It
// returns the facts actually written (after dropping ones below the
// confidence floor).
func (p *Processor) Store(candidates []oracle.ExtractedFact, sourceEntryID string, createdAt float64, idFn func() string) ([]store.Fact, error) {
	var written []store.Fact

	for _, c := range candidates {
		if len(strings.TrimSpace(c.FactText)) < minFactTextLen {
			p.logger.Debug().Str("fact", c.FactText).Msg("facts: dropping fact_text below length floor")
			continue
		}

		f := normalize(c)
		if f.Confidence < MinConfidence {
			p.logger.Debug().Float64("confidence", f.Confidence).Str("fact", f.FactText).Msg("facts: dropping low-confidence candidate")
			continue
		}

		id := idFn()
		row := store.Fact{
			ID:            id,
			FactText:      f.FactText,
			SourceEntryID: sourceEntryID,
			Entity:        f.Entity,
			FactType:      f.FactType,
			Confidence:    f.Confidence,
			CreatedAt:     createdAt,
		}

		if f.Entity != "" {
			existing, err := p.db.FindFactsByEntity(f.Entity, f.FactType)
			if err != nil {
				return written, err
			}
			for _, old := range existing {
				if err := p.db.SupersedeFact(old.ID, id); err != nil {
					return written, err
				}
			}
		}

		if err := p.db.InsertFact(&row); err != nil {
			return written, err
		}
		written = append(written, row)
	}

	return written, nil
}

// normalize coerces an unrecognized fact_type to "observation", clamps
// confidence into [0,1], and normalizes entity to "" (none) when it's
// empty, too short, or a stopword — rather than rejecting the fact
// outright.
func normalize(c oracle.ExtractedFact) oracle.ExtractedFact {
	c.FactText = strings.TrimSpace(c.FactText)

	factType := strings.ToLower(strings.TrimSpace(c.FactType))
	if !store.ValidFactTypes[factType] {
		factType = store.FactObservation
	}
	c.FactType = factType

	c.Confidence = clampConfidence(c.Confidence)

	entity := strings.ToLower(strings.TrimSpace(c.Entity))
	if len(entity) < minEntityLen || oracle.IsStopword(entity) {
		entity = ""
	}
	c.Entity = entity

	return c
}

// clampConfidence applies the oracle's missing-confidence default before
// clamping into [0,1].
func clampConfidence(c float64) float64 {
	if c == 0 {
		c = defaultConfidence
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
