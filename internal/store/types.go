// Package store implements the in-memory multi-index document store:
// chunk content, a document-to-chunk mapping, an exact cosine-similarity
// vector index, and an inverted keyword index.
//
// Each structure is guarded by its own read/write lock. Mutations acquire
// the locks sequentially, never under one umbrella lock, so there is no
// cross-structure transaction: a snapshot taken while a mutation is in
// flight can observe a partially-updated state. Callers that need strict
// consistency must serialize mutations and snapshots externally.
package store

import (
	"fmt"
	"time"
)

// SnapshotVersion identifies the persisted snapshot format.
const SnapshotVersion = "1"

// Chunk is a contiguous slice of a document's text with offsets and
// metadata, the unit indexed for search. Immutable after creation except
// via replace-on-re-add of its whole document.
type Chunk struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Content    string            `json:"content"`
	ChunkIndex int               `json:"chunk_index"`
	StartChar  int               `json:"start_char"`
	EndChar    int               `json:"end_char"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ChunkID builds the canonical chunk identifier for a document position.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s:%d", documentID, index)
}

// EmbeddingRecord pairs a chunk with its embedding vector.
// Invariant: len(Vector) equals the store's configured dimension.
type EmbeddingRecord struct {
	ChunkID   string    `json:"chunk_id"`
	Vector    []float32 `json:"vector"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResult is a single ranked hit from any of the search variants.
type SearchResult struct {
	ChunkID     string            `json:"chunk_id"`
	DocumentID  string            `json:"document_id"`
	Content     string            `json:"content"`
	Score       float64           `json:"score"`
	Explanation string            `json:"explanation"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Stats summarizes store contents.
type Stats struct {
	TotalDocuments int   `json:"total_documents"`
	TotalChunks    int   `json:"total_chunks"`
	MemoryBytes    int64 `json:"memory_bytes"`
}

// Snapshot is the unit of persistence: a complete, self-describing
// serialization of the store. The keyword index is not persisted; it is
// rebuilt from chunk content on restore.
type Snapshot struct {
	Embeddings    map[string]EmbeddingRecord `json:"embeddings"`
	Chunks        map[string]Chunk           `json:"chunks"`
	DocumentIndex map[string][]string        `json:"document_index"`
	Dimension     int                        `json:"dimension"`
	CreatedAt     time.Time                  `json:"created_at"`
	Version       string                     `json:"version"`
}
