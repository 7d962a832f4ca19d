package recommender

import (
	"math"
)

// Analyzer produces the weighted terms of a document.
type Analyzer interface {
	Terms(doc string) []string
}

// Vectorizer is a weighting strategy. Fit learns corpus statistics and
// returns them as a new Model without touching any earlier one.
type Vectorizer interface {
	Fit(corpus []string) (Model, error)
}

// Model is a fitted term space. It is read-only and safe for concurrent use.
type Model interface {
	Transform(docs []string) ([]SparseVector, error)
	Vocabulary() *Vocabulary
}

// TFIDFOptions tunes the term frequency component.
type TFIDFOptions struct {
	// SublinearTF replaces tf with 1 + ln(tf).
	SublinearTF bool
}

// TFIDF weights terms by term frequency times smoothed inverse document
// frequency, idf(t) = ln((1+N)/(1+df(t))) + 1, and L2-normalizes every vector.
type TFIDF struct {
	analyzer Analyzer
	options  TFIDFOptions
}

// TFIDFModel is the vocabulary and idf table learned by TFIDF.
type TFIDFModel struct {
	analyzer   Analyzer
	options    TFIDFOptions
	vocabulary *Vocabulary
	idf        []float64
}

func NewTFIDF(analyzer Analyzer, options TFIDFOptions) *TFIDF {
	return &TFIDF{analyzer: analyzer, options: options}
}

func (t *TFIDF) Fit(corpus []string) (Model, error) {
	model, err := t.FitModel(corpus)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// FitModel learns the vocabulary and idf table of corpus.
func (t *TFIDF) FitModel(corpus []string) (*TFIDFModel, error) {
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}

	docFreq := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, term := range t.analyzer.Terms(doc) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			docFreq[term]++
		}
	}

	terms := make(map[string]struct{}, len(docFreq))
	for term := range docFreq {
		terms[term] = struct{}{}
	}
	vocabulary := newVocabulary(terms)

	n := float64(len(corpus))
	idf := make([]float64, vocabulary.Len())
	for i, term := range vocabulary.terms {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	return &TFIDFModel{
		analyzer:   t.analyzer,
		options:    t.options,
		vocabulary: vocabulary,
		idf:        idf,
	}, nil
}

// Transform projects docs into the fitted space. Unknown terms are ignored.
func (m *TFIDFModel) Transform(docs []string) ([]SparseVector, error) {
	vectors := make([]SparseVector, len(docs))
	for i, doc := range docs {
		vectors[i] = m.vectorize(m.analyzer.Terms(doc))
	}
	return vectors, nil
}

func (m *TFIDFModel) vectorize(terms []string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range terms {
		if idx, ok := m.vocabulary.Index(term); ok {
			counts[idx]++
		}
	}

	for idx, tf := range counts {
		if m.options.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		counts[idx] = tf * m.idf[idx]
	}

	return newNormalizedVector(counts)
}

func (m *TFIDFModel) Vocabulary() *Vocabulary {
	return m.vocabulary
}

// IDF returns a copy of the idf table indexed by vocabulary column.
func (m *TFIDFModel) IDF() []float64 {
	out := make([]float64, len(m.idf))
	copy(out, m.idf)
	return out
}
