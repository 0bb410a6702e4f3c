// Package docpipe constructs document-store aggregation pipelines and
// index commands for vector search. Pure request construction: nothing
// here touches the network, so every shape is unit-testable.
package docpipe

import (
	"github.com/kailas-cloud/semdex/internal/domain/index"
)

// Score and projection field names of the two-stage search pipeline.
const (
	ScoreField    = "similarityScore"
	DocumentField = "document"
)

// defaultLSearch is the documented DiskANN search-list default applied
// when the caller leaves LSearch unset.
const defaultLSearch = 40

// Builder constructs pipelines and commands for one collection/index pair.
type Builder struct {
	collection   string
	indexName    string
	embeddingKey string
}

// New creates a pipeline builder.
func New(collection, indexName, embeddingKey string) *Builder {
	return &Builder{
		collection:   collection,
		indexName:    indexName,
		embeddingKey: embeddingKey,
	}
}

// VectorSearchPipeline builds the two-stage nearest-neighbor pipeline
// for the given index kind: stage 1 runs the kind-specific search with
// an optional pre-filter, stage 2 projects the similarity score and the
// full matched document.
func (b *Builder) VectorSearchPipeline(
	vector []float32, k int,
	preFilter map[string]any, p index.Params,
) []map[string]any {
	params := map[string]any{
		"vector":       vector,
		"path":         b.embeddingKey,
		"k":            k,
		"oversampling": oversampling(p),
	}

	switch p.Kind {
	case index.HNSW:
		params["efSearch"] = p.EFSearch
	case index.DiskANN:
		lSearch := p.LSearch
		if lSearch == 0 {
			lSearch = defaultLSearch
		}
		params["lSearch"] = lSearch
	case index.IVF:
		// no kind-specific search knob
	}

	if len(preFilter) > 0 {
		params["filter"] = preFilter
	}

	search := map[string]any{"cosmosSearch": params}
	if p.Kind == index.IVF {
		search["returnStoredSource"] = true
	}

	return []map[string]any{
		{"$search": search},
		{"$project": map[string]any{
			ScoreField:    map[string]any{"$meta": "searchScore"},
			DocumentField: "$$ROOT",
		}},
	}
}

// CreateIndexCommand builds the createIndexes command for the
// configured index name with the kind-specific tuning options.
func (b *Builder) CreateIndexCommand(p index.Params) map[string]any {
	options := map[string]any{
		"kind":       string(p.Kind),
		"similarity": string(p.Similarity),
		"dimensions": p.Dimensions,
	}

	switch p.Kind {
	case index.IVF:
		options["numLists"] = p.NumLists
	case index.HNSW:
		options["m"] = p.M
		options["efConstruction"] = p.EFConstruction
	case index.DiskANN:
		options["maxDegree"] = p.MaxDegree
		options["lBuild"] = p.LBuild
	}

	if p.Compression != index.CompressionNone {
		options["compression"] = string(p.Compression)
		if p.Compression == index.CompressionPQ {
			if p.PQCompressedDims > 0 {
				options["pqCompressedDims"] = p.PQCompressedDims
			}
			if p.PQSampleSize > 0 {
				options["pqSampleSize"] = p.PQSampleSize
			}
		}
	}

	return map[string]any{
		"createIndexes": b.collection,
		"indexes": []map[string]any{
			{
				"name":                b.indexName,
				"key":                 map[string]any{b.embeddingKey: "cosmosSearch"},
				"cosmosSearchOptions": options,
			},
		},
	}
}

// CreateFilterIndexCommand builds a plain ascending index over a
// filterable property.
func (b *Builder) CreateFilterIndexCommand(property, indexName string) map[string]any {
	return map[string]any{
		"createIndexes": b.collection,
		"indexes": []map[string]any{
			{
				"key":  map[string]any{property: 1},
				"name": indexName,
			},
		},
	}
}

func oversampling(p index.Params) float64 {
	if p.Oversampling < 1 {
		return 1.0
	}
	return p.Oversampling
}
