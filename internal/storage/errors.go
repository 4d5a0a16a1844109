package storage

import "errors"

var (
	// ErrReviewNotFound is returned when a review run is not found
	ErrReviewNotFound = errors.New("review run not found")

	// ErrCustomModelNotFound is returned when a persisted custom model is not found
	ErrCustomModelNotFound = errors.New("custom model not found")

	// ErrNoDeadLetterQueue is returned by dead letter operations of a worker built without one
	ErrNoDeadLetterQueue = errors.New("dead letter queue not configured")
)
