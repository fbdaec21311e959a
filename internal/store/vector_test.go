package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"scaled parallel", []float32{1, 1, 0}, []float32{5, 5, 0}, 1},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCosineSimilarity_AlwaysWithinBounds(t *testing.T) {
	a := []float32{0.123, -0.456, 0.789}
	b := []float32{0.987, 0.654, -0.321}
	got := CosineSimilarity(a, b)
	assert.False(t, math.IsNaN(got))
	assert.GreaterOrEqual(t, got, -1.0)
	assert.LessOrEqual(t, got, 1.0)
}

func TestVectorIndex_ReplaceKeepsInsertionPosition(t *testing.T) {
	v := newVectorIndex(2)
	assert.NoError(t, v.add("a", []float32{1, 0}))
	assert.NoError(t, v.add("b", []float32{1, 0}))
	// Replacing "a" must not move it behind "b" in tie-break order.
	assert.NoError(t, v.add("a", []float32{1, 0}))

	hits := v.search([]float32{1, 0}, 2, nil)
	assert.Equal(t, "a", hits[0].chunkID)
	assert.Equal(t, "b", hits[1].chunkID)
}

func TestVectorIndex_RemoveUnknownIsNoOp(t *testing.T) {
	v := newVectorIndex(2)
	assert.NoError(t, v.add("a", []float32{1, 0}))
	v.remove([]string{"ghost"})
	assert.Equal(t, 1, v.count())
}
