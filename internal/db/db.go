// Package db declares the backend capability interfaces the stores are
// built on. Network clients implementing them (document database
// drivers, search-service SDKs, Redis) are external collaborators;
// retry and timeout policy lives with them, not here.
package db

import (
	"context"
	"time"
)

// Row is a single raw backend result row, field name to value.
type Row map[string]any

// Reserved field names populated by the search service on result rows
// and expected on uploaded documents.
const (
	FieldScore         = "@search.score"
	FieldRerankerScore = "@search.reranker_score"
	FieldCaptions      = "@search.captions"
	FieldAction        = "@search.action"
)

// DocumentBackend executes aggregation pipelines and administrative
// commands against one collection of a document-oriented database.
type DocumentBackend interface {
	// Aggregate runs a pipeline and drains the resulting cursor.
	// The result sequence is finite and single-pass.
	Aggregate(ctx context.Context, pipeline []map[string]any) ([]Row, error)
	// InsertMany inserts documents and returns their ids in input order.
	InsertMany(ctx context.Context, docs []map[string]any) ([]string, error)
	DeleteMany(ctx context.Context, filter map[string]any) error
	DeleteOne(ctx context.Context, id string) error

	// RunCommand executes a database-level command (createIndexes).
	RunCommand(ctx context.Context, cmd map[string]any) error
	ListIndexNames(ctx context.Context) ([]string, error)
	DropIndex(ctx context.Context, name string) error

	CollectionName() string
}

// VectorQuery is the vectorized part of a search-service request.
type VectorQuery struct {
	Vector            []float32
	KNearestNeighbors int
	Fields            string
}

// SearchRequest is a single search-service query. Built by the query
// builder, executed by the backend.
type SearchRequest struct {
	Text          string
	VectorQueries []VectorQuery
	Filter        string
	Top           int

	// Semantic re-ranking options, empty outside semantic mode.
	QueryType             string
	SemanticConfiguration string
	QueryCaption          string
	QueryAnswer           string
}

// Caption is an extractive caption attached to a result row.
type Caption struct {
	Text       string
	Highlights string
}

// Answer is an extractive answer keyed by document id.
type Answer struct {
	Key        string
	Text       string
	Highlights string
}

// SearchResponse carries the raw rows and any extractive answers.
type SearchResponse struct {
	Rows    []Row
	Answers []Answer
}

// UploadResult reports the outcome for one document of an upload batch.
type UploadResult struct {
	Key       string
	Succeeded bool
	Status    int
	Reason    string
}

// SearchBackend executes queries and uploads against one index of a
// dedicated search service.
type SearchBackend interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	Upload(ctx context.Context, docs []map[string]any) ([]UploadResult, error)
	Delete(ctx context.Context, keys []string) (int, error)
}

// KVStore provides simple key-value operations, used by the embedding
// cache decorator.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
