package semdex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/logger"
	cacheuc "github.com/kailas-cloud/semdex/internal/usecase/cache"
	docuc "github.com/kailas-cloud/semdex/internal/usecase/docsearch"
)

// StoreOpener opens the document backend behind one cache index. The
// cache keeps one index per model signature, so the opener is called
// once per signature seen.
type StoreOpener func(indexName string) (DocumentBackend, error)

// SemanticCache caches model generations keyed by prompt similarity.
// Safe for concurrent use.
type SemanticCache struct {
	cache  *cacheuc.Cache
	logger *zap.Logger
}

// NewSemanticCache creates a semantic cache. Each model signature gets
// its own vector index, provisioned lazily on first use.
func NewSemanticCache(opener StoreOpener, embedder Embedder, opts ...Option) (*SemanticCache, error) {
	if opener == nil {
		return nil, fmt.Errorf("semdex: store opener is required: %w", ErrConfiguration)
	}
	cfg := defaultStoreConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	domEmb, err := buildEmbedder(cfg, embedder)
	if err != nil {
		return nil, err
	}

	factory := func(indexName string) (cacheuc.Store, error) {
		backend, err := opener(indexName)
		if err != nil {
			return nil, err
		}
		return docuc.New(
			&documentBackendAdapter{inner: backend}, domEmb,
			indexName, cfg.textKey, cfg.embeddingKey, cfg.params,
		)
	}

	return &SemanticCache{
		cache:  cacheuc.New(factory, cfg.scoreThreshold),
		logger: cfg.logger,
	}, nil
}

// CacheIndexName derives the index name the cache uses for a model
// signature.
func CacheIndexName(llmSignature string) string {
	return cacheuc.IndexName(llmSignature)
}

// Lookup returns the cached generations for a prompt semantically close
// to a previously stored one, or nil on a miss.
func (c *SemanticCache) Lookup(ctx context.Context, prompt, llmSignature string) ([]Generation, error) {
	generations, err := c.cache.Lookup(c.ctx(ctx), prompt, llmSignature)
	if err != nil {
		return nil, err
	}
	return fromDomainGenerations(generations), nil
}

// Update stores the generations for a prompt under the signature's
// index. Only completion generations are cacheable.
func (c *SemanticCache) Update(ctx context.Context, prompt, llmSignature string, generations []Generation) error {
	domGens, err := toDomainGenerations(generations)
	if err != nil {
		return err
	}
	return c.cache.Update(c.ctx(ctx), prompt, llmSignature, domGens)
}

// Clear drops every entry of the signature's index.
func (c *SemanticCache) Clear(ctx context.Context, llmSignature string) error {
	return c.cache.Clear(c.ctx(ctx), llmSignature)
}

func (c *SemanticCache) ctx(ctx context.Context) context.Context {
	if c.logger == nil {
		return ctx
	}
	return logger.ContextWithLogger(ctx, c.logger)
}
