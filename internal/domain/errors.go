package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration signals an invalid store or cache configuration.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInvalidSearchMode signals an unknown search mode.
	ErrInvalidSearchMode = errors.New("invalid search mode")
	// ErrEmptyInput signals a store constructed from zero texts or embeddings.
	ErrEmptyInput = errors.New("empty input")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrMissingScoreField signals a backend row without the expected score field.
	ErrMissingScoreField = errors.New("missing score field")
	// ErrMalformedCacheEntry signals a cached payload no codec could decode.
	ErrMalformedCacheEntry = errors.New("malformed cache entry")
	// ErrPartialUpload signals that one or more documents in a batch failed.
	ErrPartialUpload = errors.New("partial upload failure")
	// ErrUnsupportedGeneration signals a generation kind the cache cannot store.
	ErrUnsupportedGeneration = errors.New("unsupported generation kind")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// UploadFailure describes a single rejected document within an upload batch.
type UploadFailure struct {
	Key    string
	Status int
	Reason string
}

// UploadError wraps ErrPartialUpload with the per-document failure report.
type UploadError struct {
	Failures []UploadFailure
}

func (e *UploadError) Error() string {
	keys := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		keys[i] = f.Key
	}
	return fmt.Sprintf("%s: %d document(s) rejected: %s",
		ErrPartialUpload.Error(), len(e.Failures), strings.Join(keys, ", "))
}

func (e *UploadError) Unwrap() error { return ErrPartialUpload }

// NewUploadError creates an upload error from a failure report.
func NewUploadError(failures []UploadFailure) error {
	return &UploadError{Failures: failures}
}
