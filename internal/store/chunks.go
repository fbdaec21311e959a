package store

import (
	"sync"
)

// chunkStore owns chunk content, keyed by chunk ID.
type chunkStore struct {
	mu     sync.RWMutex
	chunks map[string]Chunk
	bytes  int64
}

func newChunkStore() *chunkStore {
	return &chunkStore{chunks: make(map[string]Chunk)}
}

func (cs *chunkStore) add(chunk Chunk) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if old, ok := cs.chunks[chunk.ID]; ok {
		cs.bytes -= int64(len(old.Content))
	}
	cs.chunks[chunk.ID] = chunk
	cs.bytes += int64(len(chunk.Content))
}

func (cs *chunkStore) get(chunkID string) (Chunk, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	c, ok := cs.chunks[chunkID]
	return c, ok
}

func (cs *chunkStore) remove(chunkIDs []string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, id := range chunkIDs {
		if old, ok := cs.chunks[id]; ok {
			cs.bytes -= int64(len(old.Content))
			delete(cs.chunks, id)
		}
	}
}

func (cs *chunkStore) count() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

func (cs *chunkStore) memoryBytes() int64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.bytes
}

func (cs *chunkStore) snapshot() map[string]Chunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make(map[string]Chunk, len(cs.chunks))
	for id, c := range cs.chunks {
		out[id] = c
	}
	return out
}

func (cs *chunkStore) restore(chunks map[string]Chunk) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.chunks = make(map[string]Chunk, len(chunks))
	cs.bytes = 0
	for id, c := range chunks {
		cs.chunks[id] = c
		cs.bytes += int64(len(c.Content))
	}
}

// documentIndex maps document IDs to their ordered chunk IDs.
type documentIndex struct {
	mu   sync.RWMutex
	docs map[string][]string
}

func newDocumentIndex() *documentIndex {
	return &documentIndex{docs: make(map[string][]string)}
}

// appendChunk adds one chunk ID to a document's ordered list.
func (di *documentIndex) appendChunk(documentID, chunkID string) {
	di.mu.Lock()
	defer di.mu.Unlock()
	di.docs[documentID] = append(di.docs[documentID], chunkID)
}

// get returns a copy of the document's ordered chunk IDs.
func (di *documentIndex) get(documentID string) []string {
	di.mu.RLock()
	defer di.mu.RUnlock()

	ids, ok := di.docs[documentID]
	if !ok {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// remove deletes a document's entry, returning its chunk IDs.
func (di *documentIndex) remove(documentID string) []string {
	di.mu.Lock()
	defer di.mu.Unlock()

	ids := di.docs[documentID]
	delete(di.docs, documentID)
	return ids
}

func (di *documentIndex) count() int {
	di.mu.RLock()
	defer di.mu.RUnlock()
	return len(di.docs)
}

func (di *documentIndex) snapshot() map[string][]string {
	di.mu.RLock()
	defer di.mu.RUnlock()

	out := make(map[string][]string, len(di.docs))
	for doc, ids := range di.docs {
		cp := make([]string, len(ids))
		copy(cp, ids)
		out[doc] = cp
	}
	return out
}

func (di *documentIndex) restore(docs map[string][]string) {
	di.mu.Lock()
	defer di.mu.Unlock()

	di.docs = make(map[string][]string, len(docs))
	for doc, ids := range docs {
		cp := make([]string, len(ids))
		copy(cp, ids)
		di.docs[doc] = cp
	}
}
