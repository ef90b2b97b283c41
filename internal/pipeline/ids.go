package pipeline

import (
	"strings"

	"github.com/google/uuid"
)

// newID folds a uuid down to prefix + 12 hex chars — short, grep-friendly
// IDs without the dashes of a canonical UUID string.
func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

func NewEpisodeID() string { return newID("m_") }
func NewFactID() string    { return newID("f_") }
