// Package searchreq builds search-service queries for each search mode.
package searchreq

import (
	"github.com/kailas-cloud/semdex/internal/db"
	"github.com/kailas-cloud/semdex/internal/domain/search/request"
)

// Fields maps the store's logical document parts to index field names.
type Fields struct {
	ID            string
	Content       string
	ContentVector string
	Metadata      string
}

// DefaultFields returns the conventional index schema field names.
func DefaultFields() Fields {
	return Fields{
		ID:            "id",
		Content:       "content",
		ContentVector: "content_vector",
		Metadata:      "metadata",
	}
}

// Builder assembles db.SearchRequest values for one index schema.
type Builder struct {
	fields                Fields
	semanticConfiguration string
}

// NewBuilder creates a request builder. semanticConfiguration is only
// consulted by SemanticHybrid.
func NewBuilder(fields Fields, semanticConfiguration string) *Builder {
	return &Builder{fields: fields, semanticConfiguration: semanticConfiguration}
}

// Vector builds a pure vector similarity query.
func (b *Builder) Vector(req *request.Request) *db.SearchRequest {
	return &db.SearchRequest{
		VectorQueries: b.vectorQueries(req),
		Filter:        req.Filter(),
		Top:           req.K(),
	}
}

// Hybrid builds a combined lexical and vector query.
func (b *Builder) Hybrid(req *request.Request) *db.SearchRequest {
	return &db.SearchRequest{
		Text:          req.Text(),
		VectorQueries: b.vectorQueries(req),
		Filter:        req.Filter(),
		Top:           req.K(),
	}
}

// SemanticHybrid builds a hybrid query with semantic re-ranking and
// extractive captions and answers.
func (b *Builder) SemanticHybrid(req *request.Request) *db.SearchRequest {
	return &db.SearchRequest{
		Text:                  req.Text(),
		VectorQueries:         b.vectorQueries(req),
		Filter:                req.Filter(),
		Top:                   req.K(),
		QueryType:             "semantic",
		SemanticConfiguration: b.semanticConfiguration,
		QueryCaption:          "extractive",
		QueryAnswer:           "extractive",
	}
}

func (b *Builder) vectorQueries(req *request.Request) []db.VectorQuery {
	return []db.VectorQuery{
		{
			Vector:            req.Vector(),
			KNearestNeighbors: req.K(),
			Fields:            b.fields.ContentVector,
		},
	}
}
