package store

import (
	"math"
	"sort"
	"sync"
	"time"

	sxerrors "github.com/semidex/semidex/internal/errors"
)

// vectorIndex maps chunk IDs to embedding vectors and answers exact
// brute-force cosine-similarity queries. Insertion order is retained so
// equal similarities rank deterministically (first inserted wins).
type vectorIndex struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]EmbeddingRecord
	order     []string
}

func newVectorIndex(dimension int) *vectorIndex {
	return &vectorIndex{
		dimension: dimension,
		records:   make(map[string]EmbeddingRecord),
	}
}

// add inserts one embedding, rejecting vectors of the wrong length.
func (v *vectorIndex) add(chunkID string, vector []float32) error {
	if len(vector) != v.dimension {
		return sxerrors.DimensionMismatchError(v.dimension, len(vector))
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.records[chunkID]; !exists {
		v.order = append(v.order, chunkID)
	}
	v.records[chunkID] = EmbeddingRecord{
		ChunkID:   chunkID,
		Vector:    vector,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// remove deletes the given chunk IDs.
func (v *vectorIndex) remove(chunkIDs []string) {
	if len(chunkIDs) == 0 {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	removed := make(map[string]struct{}, len(chunkIDs))
	for _, id := range chunkIDs {
		if _, ok := v.records[id]; ok {
			delete(v.records, id)
			removed[id] = struct{}{}
		}
	}
	if len(removed) == 0 {
		return
	}

	kept := v.order[:0]
	for _, id := range v.order {
		if _, gone := removed[id]; !gone {
			kept = append(kept, id)
		}
	}
	v.order = kept
}

// contains reports whether a chunk ID has a stored vector.
func (v *vectorIndex) contains(chunkID string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.records[chunkID]
	return ok
}

// scoredVector is an intermediate vector search hit.
type scoredVector struct {
	chunkID    string
	similarity float64
}

// search scans every stored vector and returns up to k hits sorted by
// descending cosine similarity. When allowed is non-nil, only chunk IDs in
// the set are considered. The scan walks insertion order and the sort is
// stable, so ties resolve to the earlier insertion.
func (v *vectorIndex) search(query []float32, k int, allowed map[string]struct{}) []scoredVector {
	if k <= 0 {
		return nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	hits := make([]scoredVector, 0, len(v.order))
	for _, id := range v.order {
		if allowed != nil {
			if _, ok := allowed[id]; !ok {
				continue
			}
		}
		rec := v.records[id]
		hits = append(hits, scoredVector{
			chunkID:    id,
			similarity: CosineSimilarity(query, rec.Vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].similarity > hits[j].similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// count returns the number of stored vectors.
func (v *vectorIndex) count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records)
}

// snapshot copies all records for persistence.
func (v *vectorIndex) snapshot() map[string]EmbeddingRecord {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make(map[string]EmbeddingRecord, len(v.records))
	for id, rec := range v.records {
		out[id] = rec
	}
	return out
}

// restore replaces the index contents. Insertion order follows the given
// ordered IDs so restored stores rank ties deterministically.
func (v *vectorIndex) restore(records map[string]EmbeddingRecord, orderedIDs []string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.records = make(map[string]EmbeddingRecord, len(records))
	v.order = make([]string, 0, len(records))
	for _, id := range orderedIDs {
		rec, ok := records[id]
		if !ok {
			continue
		}
		v.records[id] = rec
		v.order = append(v.order, id)
	}
}

// CosineSimilarity computes the cosine of the angle between two vectors:
// dot product divided by the product of magnitudes, in [-1, 1].
// A zero-magnitude vector yields 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(magA) * math.Sqrt(magB))

	// Clamp float drift so callers can rely on the [-1, 1] contract.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim
}
