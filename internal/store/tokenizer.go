package store

import (
	"regexp"
	"strings"
)

// tokenRegex matches alphanumeric word sequences.
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// minTokenLength filters out single-character noise tokens.
const minTokenLength = 2

// defaultStopWords are common English words excluded from the keyword index.
var defaultStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "or", "that",
	"the", "to", "was", "we", "were", "will", "with",
}

var stopWordSet = BuildStopWordMap(defaultStopWords)

// Tokenize splits text into lowercase terms, dropping stop words and
// tokens shorter than two characters. Used for both indexed content and
// queries so the two always agree.
func Tokenize(text string) []string {
	words := tokenRegex.FindAllString(text, -1)

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		lower := strings.ToLower(word)
		if len(lower) < minTokenLength {
			continue
		}
		if _, isStop := stopWordSet[lower]; isStop {
			continue
		}
		tokens = append(tokens, lower)
	}

	return tokens
}

// BuildStopWordMap converts a slice of stop words to a map for lookup.
func BuildStopWordMap(stopWords []string) map[string]struct{} {
	m := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		m[strings.ToLower(word)] = struct{}{}
	}
	return m
}
