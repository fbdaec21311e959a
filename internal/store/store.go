package store

import (
	"fmt"
	"sort"
	"time"

	sxerrors "github.com/semidex/semidex/internal/errors"
)

// Store composes the chunk store, document index, vector index, and
// keyword index behind one facade. It is configured once with a fixed
// embedding dimension and rejects vectors of any other length.
//
// AddDocumentChunks is not atomic across the sub-indices. When it fails
// partway (for example a dimension mismatch on record 5 of 10), records
// before the offending one remain fully inserted and later records are
// absent everywhere. Callers must treat a failed call as "retry the whole
// batch": re-adding purges the documents' previous entries first, so the
// retry converges to a clean state.
type Store struct {
	dimension int

	vectors  *vectorIndex
	chunks   *chunkStore
	docIndex *documentIndex
	keywords *keywordIndex

	// onMutate is invoked after every completed mutation (including
	// partial failures, which still changed state). The persistence
	// manager uses it to mark the store dirty.
	onMutate func()
}

// New creates an empty store with the given embedding dimension.
func New(dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, sxerrors.Newf(sxerrors.ErrCodeInvalidInput,
			"store dimension must be positive, got %d", dimension)
	}
	return &Store{
		dimension: dimension,
		vectors:   newVectorIndex(dimension),
		chunks:    newChunkStore(),
		docIndex:  newDocumentIndex(),
		keywords:  newKeywordIndex(),
	}, nil
}

// Dimension returns the configured embedding dimension.
func (s *Store) Dimension() int {
	return s.dimension
}

// SetMutationHook registers a callback invoked after every mutation.
// Must be called before the store is shared between goroutines.
func (s *Store) SetMutationHook(fn func()) {
	s.onMutate = fn
}

func (s *Store) markMutated() {
	if s.onMutate != nil {
		s.onMutate()
	}
}

// AddDocumentChunks inserts a batch of chunks with their embeddings.
// len(chunks) must equal len(embeddings). Documents present in the batch
// have their previous chunks purged first, so re-adding a document
// replaces it wholesale.
func (s *Store) AddDocumentChunks(chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return sxerrors.Newf(sxerrors.ErrCodeBatchLengthMismatch,
			"got %d chunks but %d embeddings", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}

	// Purge existing entries for every document in the batch so old
	// postings and vectors never linger next to the replacements.
	seen := make(map[string]struct{})
	for _, c := range chunks {
		if _, ok := seen[c.DocumentID]; !ok {
			seen[c.DocumentID] = struct{}{}
			s.purgeDocument(c.DocumentID)
		}
	}

	for i, chunk := range chunks {
		if chunk.ID == "" {
			chunk.ID = ChunkID(chunk.DocumentID, chunk.ChunkIndex)
		}
		if err := s.vectors.add(chunk.ID, embeddings[i]); err != nil {
			s.markMutated()
			return fmt.Errorf("record %d (%s): %w", i, chunk.ID, err)
		}
		s.chunks.add(chunk)
		s.docIndex.appendChunk(chunk.DocumentID, chunk.ID)
		s.keywords.add(chunk.ID, chunk.Content)
	}

	s.markMutated()
	return nil
}

// RemoveDocument removes every chunk owned by the document from all four
// structures. Removing an unknown document is a no-op.
func (s *Store) RemoveDocument(documentID string) {
	if s.purgeDocument(documentID) {
		s.markMutated()
	}
}

// purgeDocument clears a document's entries without touching the dirty
// state. Returns true if anything was removed.
func (s *Store) purgeDocument(documentID string) bool {
	chunkIDs := s.docIndex.remove(documentID)
	if len(chunkIDs) == 0 {
		return false
	}
	s.vectors.remove(chunkIDs)
	s.chunks.remove(chunkIDs)
	s.keywords.remove(chunkIDs)
	return true
}

// Search runs an exact brute-force cosine-similarity scan over all stored
// vectors and returns up to k results in descending similarity order.
// Ties resolve by insertion order.
func (s *Store) Search(queryVector []float32, k int) ([]SearchResult, error) {
	if len(queryVector) != s.dimension {
		return nil, sxerrors.DimensionMismatchError(s.dimension, len(queryVector))
	}
	return s.enrichVectorHits(s.vectors.search(queryVector, k, nil)), nil
}

// SearchByDocument runs the same scan restricted to one document's
// chunks. An unknown document yields an empty result, not an error.
func (s *Store) SearchByDocument(documentID string, queryVector []float32, k int) ([]SearchResult, error) {
	if len(queryVector) != s.dimension {
		return nil, sxerrors.DimensionMismatchError(s.dimension, len(queryVector))
	}
	allowed := s.allowedSet(documentID)
	if allowed == nil {
		return []SearchResult{}, nil
	}
	return s.enrichVectorHits(s.vectors.search(queryVector, k, allowed)), nil
}

// KeywordSearch ranks chunks lexically against the query. Unknown terms
// contribute zero score.
func (s *Store) KeywordSearch(query string, k int) []SearchResult {
	return s.enrichKeywordHits(s.keywords.search(query, k, nil))
}

// KeywordSearchByDocument restricts the lexical ranking to one document.
func (s *Store) KeywordSearchByDocument(documentID, query string, k int) []SearchResult {
	allowed := s.allowedSet(documentID)
	if allowed == nil {
		return []SearchResult{}
	}
	return s.enrichKeywordHits(s.keywords.search(query, k, allowed))
}

// GetDocumentChunks returns the document's chunks in chunk order.
// Unknown documents yield an empty slice.
func (s *Store) GetDocumentChunks(documentID string) []Chunk {
	ids := s.docIndex.get(documentID)
	out := make([]Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.chunks.get(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// GetChunk returns a single chunk by ID.
func (s *Store) GetChunk(chunkID string) (Chunk, bool) {
	return s.chunks.get(chunkID)
}

// ContainsChunk reports whether any structure still references the ID.
// Used by consistency checks after removals.
func (s *Store) ContainsChunk(chunkID string) bool {
	return s.vectors.contains(chunkID) || s.keywords.contains(chunkID) || func() bool {
		_, ok := s.chunks.get(chunkID)
		return ok
	}()
}

// Stats returns document/chunk counts and a memory-usage estimate.
// Each count takes only its own structure's read lock briefly.
func (s *Store) Stats() Stats {
	vectorBytes := int64(s.vectors.count()) * int64(s.dimension) * 4
	return Stats{
		TotalDocuments: s.docIndex.count(),
		TotalChunks:    s.chunks.count(),
		MemoryBytes:    vectorBytes + s.chunks.memoryBytes() + s.keywords.memoryBytes(),
	}
}

// Snapshot captures the persistable state. The structures are read
// sequentially under their own locks; a concurrent mutation can produce a
// torn snapshot (see package doc).
func (s *Store) Snapshot() *Snapshot {
	return &Snapshot{
		Embeddings:    s.vectors.snapshot(),
		Chunks:        s.chunks.snapshot(),
		DocumentIndex: s.docIndex.snapshot(),
		Dimension:     s.dimension,
		CreatedAt:     time.Now().UTC(),
		Version:       SnapshotVersion,
	}
}

// Restore replaces the store contents from a snapshot. The caller must
// have verified the snapshot dimension beforehand; Restore double-checks
// and refuses rather than corrupt the store. The keyword index is rebuilt
// from chunk content since it is not persisted.
func (s *Store) Restore(snap *Snapshot) error {
	if snap.Dimension != s.dimension {
		return sxerrors.DimensionMismatchError(s.dimension, snap.Dimension)
	}

	s.chunks.restore(snap.Chunks)
	s.docIndex.restore(snap.DocumentIndex)

	orderedIDs := orderedChunkIDs(snap.DocumentIndex)
	s.vectors.restore(snap.Embeddings, orderedIDs)

	rebuilt := newKeywordIndex()
	for _, id := range orderedIDs {
		if c, ok := snap.Chunks[id]; ok {
			rebuilt.add(id, c.Content)
		}
	}
	s.keywords = rebuilt

	return nil
}

// orderedChunkIDs flattens the document index into a deterministic chunk
// ID ordering: documents sorted lexically, chunks in document order.
func orderedChunkIDs(docIndex map[string][]string) []string {
	docs := make([]string, 0, len(docIndex))
	for doc := range docIndex {
		docs = append(docs, doc)
	}
	sort.Strings(docs)

	var ids []string
	for _, doc := range docs {
		ids = append(ids, docIndex[doc]...)
	}
	return ids
}

// allowedSet builds the chunk ID filter for by-document searches.
// Returns nil when the document is unknown.
func (s *Store) allowedSet(documentID string) map[string]struct{} {
	ids := s.docIndex.get(documentID)
	if len(ids) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return allowed
}

func (s *Store) enrichVectorHits(hits []scoredVector) []SearchResult {
	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := s.chunks.get(hit.chunkID)
		if !ok {
			// Torn read during a concurrent removal; skip the orphan.
			continue
		}
		results = append(results, SearchResult{
			ChunkID:     hit.chunkID,
			DocumentID:  chunk.DocumentID,
			Content:     chunk.Content,
			Score:       hit.similarity,
			Explanation: fmt.Sprintf("cosine similarity %.4f to query vector", hit.similarity),
			Metadata:    chunk.Metadata,
		})
	}
	return results
}

func (s *Store) enrichKeywordHits(hits []scoredKeyword) []SearchResult {
	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := s.chunks.get(hit.chunkID)
		if !ok {
			continue
		}
		explanation := fmt.Sprintf("matched %d of %d query terms (tf-idf score %.4f)",
			hit.matchedTerms, hit.queryTerms, hit.score)
		if hit.phraseMatch {
			explanation += "; exact phrase match"
		}
		results = append(results, SearchResult{
			ChunkID:     hit.chunkID,
			DocumentID:  chunk.DocumentID,
			Content:     chunk.Content,
			Score:       hit.score,
			Explanation: explanation,
			Metadata:    chunk.Metadata,
		})
	}
	return results
}
