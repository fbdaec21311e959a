package store

import (
	"math"
	"sort"
	"strings"
	"sync"
)

// phraseBonus is added to a chunk's lexical score when the whole
// normalized query occurs verbatim in the chunk's normalized content.
const phraseBonus = 0.5

// keywordIndex is an inverted index over chunk text: term -> chunk ID ->
// term frequency. It also keeps each chunk's token count and normalized
// content so scoring and phrase matching never reach into other
// structures (each structure holds only its own lock).
type keywordIndex struct {
	mu sync.RWMutex

	// postings maps term -> chunkID -> occurrences of term in chunk.
	postings map[string]map[string]int

	// tokenCounts maps chunkID -> total indexed tokens, for TF normalization.
	tokenCounts map[string]int

	// normalized maps chunkID -> space-joined token stream, for phrase checks.
	normalized map[string]string

	bytes int64
}

func newKeywordIndex() *keywordIndex {
	return &keywordIndex{
		postings:    make(map[string]map[string]int),
		tokenCounts: make(map[string]int),
		normalized:  make(map[string]string),
	}
}

// add tokenizes content and indexes it under the chunk ID.
func (kw *keywordIndex) add(chunkID, content string) {
	tokens := Tokenize(content)

	kw.mu.Lock()
	defer kw.mu.Unlock()

	for _, term := range tokens {
		chunks, ok := kw.postings[term]
		if !ok {
			chunks = make(map[string]int)
			kw.postings[term] = chunks
			kw.bytes += int64(len(term))
		}
		if chunks[chunkID] == 0 {
			kw.bytes += int64(len(chunkID)) + 8
		}
		chunks[chunkID]++
	}

	joined := strings.Join(tokens, " ")
	kw.tokenCounts[chunkID] = len(tokens)
	kw.normalized[chunkID] = joined
	kw.bytes += int64(len(joined))
}

// remove deletes every posting for the given chunk IDs, dropping terms
// whose posting lists become empty.
func (kw *keywordIndex) remove(chunkIDs []string) {
	if len(chunkIDs) == 0 {
		return
	}

	kw.mu.Lock()
	defer kw.mu.Unlock()

	doomed := make(map[string]struct{}, len(chunkIDs))
	for _, id := range chunkIDs {
		doomed[id] = struct{}{}
		if joined, ok := kw.normalized[id]; ok {
			kw.bytes -= int64(len(joined))
		}
		delete(kw.tokenCounts, id)
		delete(kw.normalized, id)
	}

	for term, chunks := range kw.postings {
		for id := range doomed {
			if _, ok := chunks[id]; ok {
				delete(chunks, id)
				kw.bytes -= int64(len(id)) + 8
			}
		}
		if len(chunks) == 0 {
			delete(kw.postings, term)
			kw.bytes -= int64(len(term))
		}
	}
}

// contains reports whether any posting references the chunk ID.
func (kw *keywordIndex) contains(chunkID string) bool {
	kw.mu.RLock()
	defer kw.mu.RUnlock()
	_, ok := kw.tokenCounts[chunkID]
	return ok
}

// scoredKeyword is an intermediate lexical search hit.
type scoredKeyword struct {
	chunkID      string
	score        float64
	matchedTerms int
	queryTerms   int
	phraseMatch  bool
}

// search scores chunks against the query with a TF-IDF weighting plus a
// phrase-match bonus. Terms absent from the index contribute zero; a
// query with no known terms returns an empty result, not an error.
func (kw *keywordIndex) search(query string, k int, allowed map[string]struct{}) []scoredKeyword {
	if k <= 0 {
		return nil
	}

	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	kw.mu.RLock()
	defer kw.mu.RUnlock()

	totalChunks := len(kw.tokenCounts)
	if totalChunks == 0 {
		return nil
	}

	scores := make(map[string]*scoredKeyword)
	for _, term := range terms {
		chunks, ok := kw.postings[term]
		if !ok {
			continue
		}
		idf := math.Log(1 + float64(totalChunks)/float64(len(chunks)))
		for id, tf := range chunks {
			if allowed != nil {
				if _, ok := allowed[id]; !ok {
					continue
				}
			}
			hit, ok := scores[id]
			if !ok {
				hit = &scoredKeyword{chunkID: id, queryTerms: len(terms)}
				scores[id] = hit
			}
			hit.score += (float64(tf) / float64(kw.tokenCounts[id])) * idf
			hit.matchedTerms++
		}
	}

	// Multi-term queries earn a flat bonus when the whole normalized query
	// appears contiguously in the chunk's normalized content.
	if len(terms) > 1 {
		phrase := " " + strings.Join(terms, " ") + " "
		for id, hit := range scores {
			padded := " " + kw.normalized[id] + " "
			if strings.Contains(padded, phrase) {
				hit.score += phraseBonus
				hit.phraseMatch = true
			}
		}
	}

	hits := make([]scoredKeyword, 0, len(scores))
	for _, hit := range scores {
		hits = append(hits, *hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].chunkID < hits[j].chunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// memoryBytes returns the approximate index footprint.
func (kw *keywordIndex) memoryBytes() int64 {
	kw.mu.RLock()
	defer kw.mu.RUnlock()
	return kw.bytes
}
