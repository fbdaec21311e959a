// Package chunker splits document text into fixed-size overlapping
// windows ready for indexing. Window boundaries snap back to whitespace
// where possible so terms are not cut in half, which would poison both
// the keyword index and the embedding input.
package chunker

import (
	"strings"
	"unicode"

	"github.com/semidex/semidex/internal/store"
)

const (
	// DefaultChunkSize is the window width in bytes.
	DefaultChunkSize = 1200
	// DefaultOverlap is how much consecutive windows share.
	DefaultOverlap = 200
	// minChunkFraction bounds how far a boundary may snap back before we
	// give up and cut mid-word.
	minChunkFraction = 0.5
)

// Chunker produces store.Chunk values from raw document text.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Options configures window geometry. Zero values select defaults;
// overlap is clamped below the chunk size.
type Options struct {
	ChunkSize int
	Overlap   int
}

// New creates a chunker.
func New(opts Options) *Chunker {
	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	overlap := opts.Overlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &Chunker{chunkSize: size, overlap: overlap}
}

// Chunk splits text into windows for documentID. Each chunk carries the
// canonical "documentID:index" ID and its character offsets into the
// original text. Metadata, when non-nil, is attached to every chunk.
// Empty or whitespace-only text yields no chunks.
func (c *Chunker) Chunk(documentID, text string, metadata map[string]string) []store.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []store.Chunk
	start := 0
	for start < len(text) {
		end := start + c.chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = snapToWhitespace(text, start, end, c.chunkSize)
		}

		content := text[start:end]
		if strings.TrimSpace(content) != "" {
			chunks = append(chunks, store.Chunk{
				ID:         store.ChunkID(documentID, len(chunks)),
				DocumentID: documentID,
				Content:    content,
				ChunkIndex: len(chunks),
				StartChar:  start,
				EndChar:    end,
				Metadata:   metadata,
			})
		}

		if end == len(text) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// snapToWhitespace moves end back to the last whitespace boundary inside
// the window, but never shrinks the window below half its size.
func snapToWhitespace(text string, start, end, size int) int {
	floor := start + int(float64(size)*minChunkFraction)
	for i := end; i > floor; i-- {
		if unicode.IsSpace(rune(text[i-1])) {
			return i
		}
	}
	return end
}
