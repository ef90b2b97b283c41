package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/marknutter/rlm/internal/store"
)

// ChunkThreshold is the content length past which a chunk manifest is
// generated alongside the full-content episode (spec.md §3.2).
const ChunkThreshold = 10_000

// ChunkTargetSize is the approximate size each chunk is built toward when
// splitting on paragraph boundaries.
const ChunkTargetSize = 5_000

const chunkPreviewLen = 120

// BuildChunkManifest splits content into paragraph-bounded pieces
// targeting ChunkTargetSize characters each and returns their offsets and
// previews as a chunk manifest. Chunk content itself isn't duplicated in
// storage — GetEntry's caller slices [StartChar:EndChar] out of the
// episode's own Content when a specific chunk is requested.
func BuildChunkManifest(content string) []store.Chunk {
	paragraphs := splitKeepSep(content, "\n\n")

	var chunks []store.Chunk
	start := 0
	chunkStart := 0

	flush := func(end int) {
		if end <= chunkStart {
			return
		}
		text := content[chunkStart:end]
		chunks = append(chunks, store.Chunk{
			ChunkID:   deterministicChunkID(content, chunkStart, end),
			StartChar: chunkStart,
			EndChar:   end,
			Preview:   preview(text),
		})
		chunkStart = end
	}

	for _, p := range paragraphs {
		if start-chunkStart > ChunkTargetSize {
			flush(start)
		}
		start += len(p)
	}
	flush(len(content))

	return chunks
}

func splitKeepSep(s, sep string) []string {
	parts := strings.SplitAfter(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= chunkPreviewLen {
		return text
	}
	cut := text[:chunkPreviewLen]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}

// deterministicChunkID hashes the chunk's own slice boundaries and its
// text so re-chunking identical content always reproduces the same chunk
// IDs.
func deterministicChunkID(content string, start, end int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:%d:", start, end)
	h.Write([]byte(content[start:end]))
	sum := h.Sum(nil)
	return "s_" + hex.EncodeToString(sum[:16])
}
