package recommender

import "sort"

// Vocabulary maps terms to stable column indices. It is immutable once built.
type Vocabulary struct {
	index map[string]int
	terms []string
}

// newVocabulary assigns columns to terms in ascending lexical order.
func newVocabulary(terms map[string]struct{}) *Vocabulary {
	sorted := make([]string, 0, len(terms))
	for term := range terms {
		sorted = append(sorted, term)
	}
	sort.Strings(sorted)

	index := make(map[string]int, len(sorted))
	for i, term := range sorted {
		index[term] = i
	}

	return &Vocabulary{index: index, terms: sorted}
}

// Index returns the column of term and whether the term is known.
func (v *Vocabulary) Index(term string) (int, bool) {
	if v == nil {
		return 0, false
	}
	idx, ok := v.index[term]
	return idx, ok
}

// Term returns the term stored at column idx.
func (v *Vocabulary) Term(idx int) string {
	if v == nil || idx < 0 || idx >= len(v.terms) {
		return ""
	}
	return v.terms[idx]
}

func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.terms)
}

// Terms returns a copy of the terms ordered by column.
func (v *Vocabulary) Terms() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}
