// Package textproc turns free text into normalized word tokens.
//
// Segmentation follows the Unicode word boundary rules (UAX #29), so
// punctuation, contractions and numerals are handled by the segmenter rather
// than by ad-hoc splitting. Every word segment is passed through a Normalizer
// (lemmatizer by default). Case folding and stopword removal happen in
// Analyzer, which produces the terms that get weighted.
package textproc

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/words"
)

// Tokenizer splits documents into normalized tokens. It holds no mutable
// state and is safe for concurrent use when its Normalizer is.
type Tokenizer struct {
	normalizer Normalizer
}

// NewTokenizer returns a Tokenizer using n. A nil n keeps surface forms.
func NewTokenizer(n Normalizer) *Tokenizer {
	if n == nil {
		n = Identity{}
	}
	return &Tokenizer{normalizer: n}
}

// Tokenize returns the ordered normalized tokens of doc. Blank input yields an empty slice.
func (t *Tokenizer) Tokenize(doc string) []string {
	tokens := make([]string, 0)
	if strings.TrimSpace(doc) == "" {
		return tokens
	}

	segments := words.NewSegmenter([]byte(doc))
	for segments.Next() {
		word := strings.Trim(string(segments.Bytes()), "'’")
		if !isWord(word) {
			continue
		}

		tokens = append(tokens, t.normalizer.Normalize(word))
	}

	return tokens
}

// isWord reports whether the segment carries at least one letter or digit.
// Whitespace and punctuation segments are dropped.
func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
