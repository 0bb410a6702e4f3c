package cache

import (
	"context"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/usecase/docsearch"
)

// Store is the vector store one cache index rides on.
type Store interface {
	IndexExists(ctx context.Context) (bool, error)
	CreateIndex(ctx context.Context) error
	AddTexts(ctx context.Context, texts []string, metadatas []map[string]any) ([]string, error)
	Search(ctx context.Context, query string, k int, opts docsearch.SearchOptions) ([]domain.ScoredDocument, error)
	DeleteAll(ctx context.Context, filter map[string]any) error
}

// StoreFactory opens the vector store backing one cache index.
type StoreFactory func(indexName string) (Store, error)
