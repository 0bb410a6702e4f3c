package search

import (
	"context"

	"github.com/kailas-cloud/semdex/internal/db"
	"github.com/kailas-cloud/semdex/internal/domain"
)

// Backend executes queries against one search-service index.
type Backend interface {
	Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
