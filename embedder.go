package semdex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/db/redis"
	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/metrics"
	"github.com/kailas-cloud/semdex/internal/repository/embcache"
	"github.com/kailas-cloud/semdex/internal/transport/openai"
)

// OpenAIEmbedderConfig configures the bundled OpenAI-compatible
// embedding provider.
type OpenAIEmbedderConfig struct {
	APIKey     string
	BaseURL    string // empty for api.openai.com
	Model      string
	Dimensions int // 0 for the model default
	User       string
}

// NewOpenAIEmbedder creates an Embedder backed by an OpenAI-compatible
// embeddings API.
func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) Embedder {
	inner := openai.NewEmbedder(&openai.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		User:       cfg.User,
		Provider:   "openai",
	})
	return &publicEmbedder{inner: inner}
}

// publicEmbedder exposes an internal embedder through the public types.
type publicEmbedder struct {
	inner domain.Embedder
}

func (e *publicEmbedder) Embed(ctx context.Context, text string) (Embedding, error) {
	r, err := e.inner.Embed(ctx, text)
	if err != nil {
		return Embedding{}, err
	}
	return Embedding{
		Vector:       r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (e *publicEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error) {
	results, err := domain.EmbedAll(ctx, e.inner, texts)
	if err != nil {
		return nil, err
	}
	out := make([]Embedding, len(results))
	for i, r := range results {
		out[i] = Embedding{
			Vector:       r.Embedding,
			PromptTokens: r.PromptTokens,
			TotalTokens:  r.TotalTokens,
		}
	}
	return out, nil
}

// buildEmbedder adapts the public embedder and, when configured, wraps
// it with the Redis embedding cache.
func buildEmbedder(cfg *storeConfig, embedder Embedder) (domain.Embedder, error) {
	if embedder == nil {
		return nil, fmt.Errorf("semdex: embedder is required: %w", domain.ErrConfiguration)
	}
	var inner domain.Embedder = &embedderAdapter{inner: embedder}

	if len(cfg.embCacheAddrs) == 0 {
		return inner, nil
	}

	store, err := redis.NewStore(redis.Config{
		Addrs:    cfg.embCacheAddrs,
		Username: cfg.embCacheUsername,
		Password: cfg.embCachePassword,
		DB:       cfg.embCacheDB,
	})
	if err != nil {
		return nil, fmt.Errorf("semdex: embedding cache: %w", err)
	}

	log := cfg.logger
	if log == nil {
		log = zap.NewNop()
	}
	return embcache.New(inner, store, cfg.embCacheTTL, metrics.EmbeddingCacheTotal, log), nil
}
