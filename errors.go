package semdex

import (
	"errors"

	"github.com/kailas-cloud/semdex/internal/domain"
)

// Sentinel errors returned by the stores and the cache. Match with
// errors.Is.
var (
	ErrConfiguration          = domain.ErrConfiguration
	ErrInvalidSearchMode      = domain.ErrInvalidSearchMode
	ErrEmptyInput             = domain.ErrEmptyInput
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrMissingScoreField      = domain.ErrMissingScoreField
	ErrMalformedCacheEntry    = domain.ErrMalformedCacheEntry
	ErrPartialUpload          = domain.ErrPartialUpload
	ErrUnsupportedGeneration  = domain.ErrUnsupportedGeneration
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)

// UploadFailure describes one rejected document of an upload batch.
type UploadFailure struct {
	Key    string
	Status int
	Reason string
}

// UploadFailures extracts the per-document failure report from an
// error returned by AddTexts or AddEmbeddings, nil when err does not
// carry one.
func UploadFailures(err error) []UploadFailure {
	var ue *domain.UploadError
	if !errors.As(err, &ue) {
		return nil
	}
	failures := make([]UploadFailure, len(ue.Failures))
	for i, f := range ue.Failures {
		failures[i] = UploadFailure{Key: f.Key, Status: f.Status, Reason: f.Reason}
	}
	return failures
}
