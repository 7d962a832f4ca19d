package textproc

import "strings"

// Analyzer is the full text pipeline used for weighting: case folding,
// tokenization and stopword removal.
type Analyzer struct {
	tokenizer *Tokenizer
	stopwords Stopwords
}

func NewAnalyzer(tokenizer *Tokenizer, stopwords Stopwords) *Analyzer {
	if tokenizer == nil {
		tokenizer = NewTokenizer(nil)
	}
	return &Analyzer{tokenizer: tokenizer, stopwords: stopwords}
}

// Terms returns the lower-cased, stopword-free tokens of doc in order.
func (a *Analyzer) Terms(doc string) []string {
	tokens := a.tokenizer.Tokenize(strings.ToLower(doc))
	terms := tokens[:0]
	for _, token := range tokens {
		// dictionary lemmas of proper nouns keep their capitals
		token = strings.ToLower(token)
		if token == "" || a.stopwords.Contains(token) {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// NewEnglishAnalyzer wires the normalizer named by kind with the English
// stopword list extended by extra.
func NewEnglishAnalyzer(kind string, extra ...string) (*Analyzer, error) {
	normalizer, err := NewNormalizer(kind)
	if err != nil {
		return nil, err
	}
	return NewAnalyzer(NewTokenizer(normalizer), EnglishStopwords(extra...)), nil
}
