package docsearch

import (
	"context"

	"github.com/kailas-cloud/semdex/internal/db"
	"github.com/kailas-cloud/semdex/internal/domain"
)

// Backend is the document-database contract for one collection.
type Backend interface {
	Aggregate(ctx context.Context, pipeline []map[string]any) ([]db.Row, error)
	InsertMany(ctx context.Context, docs []map[string]any) ([]string, error)
	DeleteMany(ctx context.Context, filter map[string]any) error
	DeleteOne(ctx context.Context, id string) error
	RunCommand(ctx context.Context, cmd map[string]any) error
	ListIndexNames(ctx context.Context) ([]string, error)
	DropIndex(ctx context.Context, name string) error
	CollectionName() string
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
