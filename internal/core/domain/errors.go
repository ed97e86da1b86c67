package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFileType indicates no parser is registered for the
	// declared file type. Raised before any parsing work is done.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrDecode indicates a structured format could not be decoded.
	// Structured parsers propagate this rather than guessing.
	ErrDecode = errors.New("decode failed")

	// ErrEmptyContent indicates the parsed text is blank or whitespace.
	ErrEmptyContent = errors.New("document contains no text content")

	// ErrSizeLimitExceeded indicates an upload over the configured cap.
	// Raised before any parsing work is done.
	ErrSizeLimitExceeded = errors.New("file size limit exceeded")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or not reachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the vector index is not configured
	// or not reachable. Retrieval degrades to empty results.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates an embedding whose length differs
	// from the index's fixed dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
