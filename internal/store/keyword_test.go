package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildKeywordIndex(contents map[string]string) *keywordIndex {
	kw := newKeywordIndex()
	for id, content := range contents {
		kw.add(id, content)
	}
	return kw
}

func TestKeywordSearch_TFIDFOrdering(t *testing.T) {
	kw := buildKeywordIndex(map[string]string{
		"a:0": "kafka kafka kafka",
		"a:1": "kafka consumer rebalancing notes",
		"a:2": "postgres tuning guide",
	})

	hits := kw.search("kafka", 10, nil)
	require.Len(t, hits, 2)
	assert.Equal(t, "a:0", hits[0].chunkID, "higher term frequency ranks first")
	assert.Equal(t, "a:1", hits[1].chunkID)
	assert.Greater(t, hits[0].score, hits[1].score)
}

func TestKeywordSearch_ScoreFormula(t *testing.T) {
	kw := buildKeywordIndex(map[string]string{
		"a:0": "alpha beta",
		"a:1": "gamma delta",
	})

	hits := kw.search("alpha", 10, nil)
	require.Len(t, hits, 1)

	// tf/len * ln(1 + N/df) with tf=1, len=2, N=2, df=1.
	want := 0.5 * math.Log(1+2.0/1.0)
	assert.InDelta(t, want, hits[0].score, 1e-9)
}

func TestKeywordSearch_PhraseBonusOnlyForContiguousMatch(t *testing.T) {
	kw := buildKeywordIndex(map[string]string{
		"a:0": "graceful shutdown sequence for workers",
		"a:1": "shutdown the pool after a graceful drain",
	})

	hits := kw.search("graceful shutdown", 10, nil)
	require.Len(t, hits, 2)

	assert.Equal(t, "a:0", hits[0].chunkID)
	assert.True(t, hits[0].phraseMatch)
	assert.False(t, hits[1].phraseMatch, "both terms present but not adjacent")
	assert.Greater(t, hits[0].score, hits[1].score)
}

func TestKeywordSearch_UnknownTermsContributeZero(t *testing.T) {
	kw := buildKeywordIndex(map[string]string{
		"a:0": "alpha beta",
	})

	assert.Empty(t, kw.search("zzz qqq", 10, nil))

	// A mixed query still matches on the known term.
	hits := kw.search("alpha zzz", 10, nil)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].matchedTerms)
	assert.Equal(t, 2, hits[0].queryTerms)
}

func TestKeywordSearch_AllowedSetFilters(t *testing.T) {
	kw := buildKeywordIndex(map[string]string{
		"a:0": "alpha",
		"b:0": "alpha",
	})

	hits := kw.search("alpha", 10, map[string]struct{}{"b:0": {}})
	require.Len(t, hits, 1)
	assert.Equal(t, "b:0", hits[0].chunkID)
}

func TestKeywordSearch_TieBreaksOnChunkID(t *testing.T) {
	kw := buildKeywordIndex(map[string]string{
		"b:0": "alpha beta",
		"a:0": "alpha gamma",
	})

	hits := kw.search("alpha", 10, nil)
	require.Len(t, hits, 2)
	assert.Equal(t, "a:0", hits[0].chunkID)
	assert.Equal(t, "b:0", hits[1].chunkID)
}

func TestKeywordRemove_DropsEmptyPostingLists(t *testing.T) {
	kw := buildKeywordIndex(map[string]string{
		"a:0": "alpha beta",
		"a:1": "alpha gamma",
	})

	kw.remove([]string{"a:0"})
	assert.False(t, kw.contains("a:0"))
	assert.True(t, kw.contains("a:1"))

	hits := kw.search("beta", 10, nil)
	assert.Empty(t, hits, "term unique to the removed chunk is gone")

	hits = kw.search("alpha", 10, nil)
	require.Len(t, hits, 1)
	assert.Equal(t, "a:1", hits[0].chunkID)
}

func TestKeywordSearch_EmptyIndexAndNonPositiveK(t *testing.T) {
	kw := newKeywordIndex()
	assert.Empty(t, kw.search("alpha", 10, nil))

	kw.add("a:0", "alpha")
	assert.Empty(t, kw.search("alpha", 0, nil))
	assert.Empty(t, kw.search("", 10, nil))
}
