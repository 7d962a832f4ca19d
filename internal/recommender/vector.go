package recommender

import (
	"math"
	"sort"
)

// SparseVector stores non-zero weights as parallel arrays.
// Indices are vocabulary columns in strictly ascending order.
type SparseVector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// newNormalizedVector builds an L2-normalized vector from column weights.
// Zero weights are dropped; an all-zero input yields the empty vector.
func newNormalizedVector(weights map[int]float64) SparseVector {
	indices := make([]int, 0, len(weights))
	for idx, w := range weights {
		if w != 0 {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var sum float64
	for i, idx := range indices {
		values[i] = weights[idx]
		sum += values[i] * values[i]
	}

	if sum == 0 {
		return SparseVector{Indices: []int{}, Values: []float64{}}
	}

	norm := math.Sqrt(sum)
	for i := range values {
		values[i] /= norm
	}

	return SparseVector{Indices: indices, Values: values}
}

// Len returns the number of non-zero entries.
func (v SparseVector) Len() int { return len(v.Indices) }

// IsZero reports whether the vector has no weights.
func (v SparseVector) IsZero() bool { return len(v.Indices) == 0 }

// Norm returns the Euclidean norm.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, val := range v.Values {
		sum += val * val
	}
	return math.Sqrt(sum)
}

// Get returns the weight at column idx, zero when absent.
func (v SparseVector) Get(idx int) float64 {
	i := sort.SearchInts(v.Indices, idx)
	if i < len(v.Indices) && v.Indices[i] == idx {
		return v.Values[i]
	}
	return 0
}

// Dot returns the inner product with o by merging the sorted index lists.
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}
