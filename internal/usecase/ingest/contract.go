package ingest

import (
	"context"

	"github.com/kailas-cloud/semdex/internal/db"
	"github.com/kailas-cloud/semdex/internal/domain"
)

// Backend uploads and deletes documents on one search-service index.
type Backend interface {
	Upload(ctx context.Context, docs []map[string]any) ([]db.UploadResult, error)
	Delete(ctx context.Context, keys []string) (int, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
