// Package textutil holds small text-processing helpers shared across the
// transcript normalizer and the oracle prompt builders.
package textutil

import (
	"strings"
	"sync"
)

// builderPool pools *strings.Builder instances for the transcript
// compressor, which appends one line at a time across potentially large
// session logs.
var builderPool = sync.Pool{
	New: func() interface{} {
		b := &strings.Builder{}
		b.Grow(4096)
		return b
	},
}

// GetBuilder returns a reset builder from the pool.
func GetBuilder() *strings.Builder {
	b := builderPool.Get().(*strings.Builder)
	b.Reset()
	return b
}

// PutBuilder returns a builder to the pool.
func PutBuilder(b *strings.Builder) {
	builderPool.Put(b)
}
