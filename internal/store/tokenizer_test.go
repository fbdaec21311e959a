package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases", "Quick BROWN Fox", []string{"quick", "brown", "fox"}},
		{"strips punctuation", "hello, world! (again)", []string{"hello", "world", "again"}},
		{"drops stop words", "the cat and the hat", []string{"cat", "hat"}},
		{"drops short tokens", "a b c go run", []string{"go", "run"}},
		{"keeps digits", "error 404 page", []string{"error", "404", "page"}},
		{"empty input", "", nil},
		{"only stop words", "the of and", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTokenize_QueryAndContentAgree(t *testing.T) {
	content := "The Embedding-Pipeline caches results."
	query := "embedding pipeline CACHES"
	assert.Subset(t, Tokenize(content), Tokenize(query))
}
