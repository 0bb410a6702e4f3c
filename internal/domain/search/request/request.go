package request

import (
	"fmt"

	"github.com/kailas-cloud/semdex/internal/domain"
)

// Request carries the validated parameters of a single vector search.
type Request struct {
	vector      []float32
	k           int
	text        string
	filter      string
	minScore    float64
	withVectors bool
}

// New creates a search request. k must be at least 1 and the query
// vector non-empty; dimensionality is checked by the store against its
// configured field.
func New(
	vector []float32, k int,
	text, filter string,
	minScore float64, withVectors bool,
) (Request, error) {
	if k < 1 {
		return Request{}, fmt.Errorf("k must be >= 1, got %d: %w", k, domain.ErrConfiguration)
	}
	if len(vector) == 0 {
		return Request{}, fmt.Errorf("query vector is empty: %w", domain.ErrEmptyInput)
	}
	return Request{
		vector:      vector,
		k:           k,
		text:        text,
		filter:      filter,
		minScore:    minScore,
		withVectors: withVectors,
	}, nil
}

// Vector returns the query embedding.
func (r *Request) Vector() []float32 { return r.vector }

// K returns the number of nearest neighbors requested.
func (r *Request) K() int { return r.k }

// Text returns the lexical query, empty for vector-only search.
func (r *Request) Text() string { return r.text }

// Filter returns the backend-native filter predicate, empty if unset.
func (r *Request) Filter() string { return r.filter }

// MinScore returns the inclusive score threshold, 0 if unset.
func (r *Request) MinScore() float64 { return r.minScore }

// WithVectors reports whether stored vectors should be returned.
func (r *Request) WithVectors() bool { return r.withVectors }
