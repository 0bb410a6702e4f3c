// Package index defines vector index kinds and their tuning parameters.
package index

import (
	"fmt"

	"github.com/kailas-cloud/semdex/internal/domain"
)

// Kind is the vector index structure used by the document store.
type Kind string

// Supported index kinds.
const (
	IVF     Kind = "vector-ivf"
	HNSW    Kind = "vector-hnsw"
	DiskANN Kind = "vector-diskann"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == IVF || k == HNSW || k == DiskANN
}

// Similarity is the distance metric of a vector index.
type Similarity string

// Supported similarity metrics.
const (
	Cosine       Similarity = "COS"
	Euclidean    Similarity = "L2"
	InnerProduct Similarity = "IP"
)

// IsValid checks if the similarity is one of the supported values.
func (s Similarity) IsValid() bool {
	return s == Cosine || s == Euclidean || s == InnerProduct
}

// Compression is the optional vector compression scheme.
type Compression string

// Supported compression schemes. Half precision applies to IVF and HNSW,
// product quantization to DiskANN only.
const (
	CompressionNone Compression = ""
	CompressionHalf Compression = "half"
	CompressionPQ   Compression = "pq"
)

// Params holds the kind-specific tuning of a vector index.
// Zero values for untouched knobs are filled by Defaults.
type Params struct {
	Kind       Kind
	Dimensions int
	Similarity Similarity

	// IVF
	NumLists int

	// HNSW
	M              int
	EFConstruction int
	EFSearch       int

	// DiskANN
	MaxDegree int
	LBuild    int
	LSearch   int

	Compression      Compression
	PQCompressedDims int
	PQSampleSize     int

	// Oversampling is the candidate multiplier for compressed indexes.
	Oversampling float64
}

// Defaults returns the documented default tuning for an IVF index.
func Defaults() Params {
	return Params{
		Kind:           IVF,
		Dimensions:     1536,
		Similarity:     Cosine,
		NumLists:       100,
		M:              16,
		EFConstruction: 64,
		EFSearch:       40,
		MaxDegree:      32,
		LBuild:         50,
		LSearch:        40,
		Oversampling:   1.0,
	}
}

// Validate checks enum values, parameter ranges, and the
// compression/kind compatibility invariant.
func (p Params) Validate() error {
	if !p.Kind.IsValid() {
		return fmt.Errorf("unknown index kind %q: %w", p.Kind, domain.ErrConfiguration)
	}
	if !p.Similarity.IsValid() {
		return fmt.Errorf("unknown similarity %q: %w", p.Similarity, domain.ErrConfiguration)
	}
	if p.Dimensions < 1 {
		return fmt.Errorf("dimensions must be positive, got %d: %w", p.Dimensions, domain.ErrConfiguration)
	}

	switch p.Kind {
	case IVF:
		if p.NumLists < 1 {
			return fmt.Errorf("numLists must be >= 1, got %d: %w", p.NumLists, domain.ErrConfiguration)
		}
	case HNSW:
		if p.M < 2 || p.M > 100 {
			return fmt.Errorf("m must be in [2,100], got %d: %w", p.M, domain.ErrConfiguration)
		}
		if p.EFConstruction < 4 || p.EFConstruction > 1000 {
			return fmt.Errorf("efConstruction must be in [4,1000], got %d: %w",
				p.EFConstruction, domain.ErrConfiguration)
		}
		if p.EFConstruction < 2*p.M {
			return fmt.Errorf("efConstruction must be >= 2*m (%d), got %d: %w",
				2*p.M, p.EFConstruction, domain.ErrConfiguration)
		}
	case DiskANN:
		if p.MaxDegree < 20 || p.MaxDegree > 2048 {
			return fmt.Errorf("maxDegree must be in [20,2048], got %d: %w", p.MaxDegree, domain.ErrConfiguration)
		}
		if p.LBuild < 10 || p.LBuild > 500 {
			return fmt.Errorf("lBuild must be in [10,500], got %d: %w", p.LBuild, domain.ErrConfiguration)
		}
		if p.LSearch != 0 && (p.LSearch < 10 || p.LSearch > 10000) {
			return fmt.Errorf("lSearch must be in [10,10000], got %d: %w", p.LSearch, domain.ErrConfiguration)
		}
	}

	return p.validateCompression()
}

func (p Params) validateCompression() error {
	switch p.Compression {
	case CompressionNone:
		return nil
	case CompressionHalf:
		if p.Kind == DiskANN {
			return fmt.Errorf("half precision compression requires an IVF or HNSW index: %w",
				domain.ErrConfiguration)
		}
	case CompressionPQ:
		if p.Kind != DiskANN {
			return fmt.Errorf("product quantization requires a DiskANN index: %w",
				domain.ErrConfiguration)
		}
		if p.PQCompressedDims != 0 {
			if p.PQCompressedDims < 1 || p.PQCompressedDims > 8000 {
				return fmt.Errorf("pqCompressedDims must be in [1,8000], got %d: %w",
					p.PQCompressedDims, domain.ErrConfiguration)
			}
			if p.PQCompressedDims >= p.Dimensions {
				return fmt.Errorf("pqCompressedDims must be less than dimensions (%d), got %d: %w",
					p.Dimensions, p.PQCompressedDims, domain.ErrConfiguration)
			}
		}
		if p.PQSampleSize != 0 && (p.PQSampleSize < 1000 || p.PQSampleSize > 100000) {
			return fmt.Errorf("pqSampleSize must be in [1000,100000], got %d: %w",
				p.PQSampleSize, domain.ErrConfiguration)
		}
	default:
		return fmt.Errorf("unknown compression %q: %w", p.Compression, domain.ErrConfiguration)
	}
	return nil
}
