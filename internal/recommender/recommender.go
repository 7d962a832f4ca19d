// Package recommender ranks job postings by lexical similarity to a résumé.
//
// Postings are fitted once into a weighted term space (TF-IDF by default);
// a résumé is projected into the same space and compared with every posting
// by cosine similarity. Since all vectors are L2-normalized, cosine similarity
// is the plain dot product.
package recommender

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Match is a ranked posting.
type Match struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// TermWeight is the contribution of one shared term to a match score.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Recommender holds the fitted corpus vectors. Fit is serialized against all
// other calls; Predict, Rank, Explain and Transform may run concurrently.
type Recommender struct {
	mu         sync.RWMutex
	vectorizer Vectorizer
	model      Model
	jobVectors []SparseVector
	jobCount   int
	logger     *zap.Logger
}

func New(vectorizer Vectorizer, logger *zap.Logger) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Recommender{
		vectorizer: vectorizer,
		logger:     logger,
	}
}

// Fit builds the vocabulary, weights and vectors of jobs, replacing any
// previous fit. On error the previous fit stays in place.
func (r *Recommender) Fit(jobs []string) error {
	if len(jobs) == 0 {
		return ErrEmptyCorpus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	model, err := r.vectorizer.Fit(jobs)
	if err != nil {
		return fmt.Errorf("fit vectorizer: %w", err)
	}

	vectors, err := model.Transform(jobs)
	if err != nil {
		return fmt.Errorf("transform jobs: %w", err)
	}

	r.model = model
	r.jobVectors = vectors
	r.jobCount = len(jobs)

	r.logger.Debug("recommender fitted",
		zap.Int("jobs", r.jobCount),
		zap.Int("vocabulary_size", model.Vocabulary().Len()),
	)

	return nil
}

// Transform projects docs into the fitted space without changing it.
func (r *Recommender) Transform(docs []string) ([]SparseVector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.model == nil {
		return nil, ErrNotFitted
	}

	return r.model.Transform(docs)
}

// Predict returns the indices of the n postings most similar to resume, best
// first. n <= 0 selects every posting; n above the corpus size is capped.
func (r *Recommender) Predict(resume string, n int) ([]int, error) {
	matches, err := r.Rank(resume, n)
	if err != nil {
		return nil, err
	}

	indices := make([]int, len(matches))
	for i, m := range matches {
		indices[i] = m.Index
	}
	return indices, nil
}

// Rank is Predict with scores. Equal scores keep corpus order.
func (r *Recommender) Rank(resume string, n int) ([]Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query, err := r.query(resume)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(r.jobVectors))
	for i, job := range r.jobVectors {
		matches[i] = Match{Index: i, Score: math.Min(job.Dot(query), 1)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches[:r.limit(n)], nil
}

// Explain lists the terms shared by resume and the posting at index with
// their share of the score, largest first. limit <= 0 returns all of them.
func (r *Recommender) Explain(resume string, index, limit int) ([]TermWeight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query, err := r.query(resume)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(r.jobVectors) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(r.jobVectors))
	}

	job := r.jobVectors[index]
	vocabulary := r.model.Vocabulary()

	weights := make([]TermWeight, 0)
	for i, col := range query.Indices {
		if w := job.Get(col); w > 0 {
			weights = append(weights, TermWeight{
				Term:   vocabulary.Term(col),
				Weight: w * query.Values[i],
			})
		}
	}

	sort.Slice(weights, func(i, j int) bool {
		if weights[i].Weight != weights[j].Weight {
			return weights[i].Weight > weights[j].Weight
		}
		return weights[i].Term < weights[j].Term
	})

	if limit > 0 && len(weights) > limit {
		weights = weights[:limit]
	}
	return weights, nil
}

// JobCount returns the size of the fitted corpus, zero before Fit.
func (r *Recommender) JobCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jobCount
}

// Vocabulary returns the fitted vocabulary, nil before Fit.
func (r *Recommender) Vocabulary() *Vocabulary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.model == nil {
		return nil
	}
	return r.model.Vocabulary()
}

// query must be called with r.mu held.
func (r *Recommender) query(resume string) (SparseVector, error) {
	if r.model == nil {
		return SparseVector{}, ErrNotFitted
	}

	vectors, err := r.model.Transform([]string{resume})
	if err != nil {
		return SparseVector{}, err
	}
	return vectors[0], nil
}

func (r *Recommender) limit(n int) int {
	if n <= 0 || n > r.jobCount {
		return r.jobCount
	}
	return n
}
