package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelMismatch indicates the configured embedding model differs
	// from the one the index was built with. Similarity scores across
	// models are meaningless, so this is a fatal configuration error.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrServiceUnavailable indicates an external model service
	// (embedding or generation) could not be reached. The operation is
	// retryable.
	ErrServiceUnavailable = errors.New("model service unavailable")

	// ErrNotIndexed indicates the similarity index has not been built
	// yet, so queries cannot be answered.
	ErrNotIndexed = errors.New("index has not been built")
)
