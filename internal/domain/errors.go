package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals invalid caller-supplied input.
	ErrValidation = errors.New("validation failed")
	// ErrVectorDimMismatch signals an embedding dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrMissingConfig signals absent provider credentials or endpoints.
	ErrMissingConfig = errors.New("missing configuration")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrSearchBackend signals a search engine transport failure.
	ErrSearchBackend = errors.New("search backend error")
)
