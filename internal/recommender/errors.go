package recommender

import "errors"

var (
	// ErrNotFitted is returned by Transform, Predict, Rank and Explain before a successful Fit.
	ErrNotFitted = errors.New("recommender is not fitted")
	// ErrEmptyCorpus is returned by Fit when no documents are given.
	ErrEmptyCorpus = errors.New("corpus must contain at least one document")
	// ErrIndexOutOfRange is returned when a corpus index does not exist.
	ErrIndexOutOfRange = errors.New("corpus index out of range")
)
