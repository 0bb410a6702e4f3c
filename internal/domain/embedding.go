package domain

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// EmbeddingResult holds a vector and the token usage of producing it.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder maps text into the embedding space.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder is implemented by providers with a native batch call.
// Providers without it are embedded per-text concurrently by the caller.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([]EmbeddingResult, error)
}

// embedAllConcurrency bounds the per-text fallback fan-out.
const embedAllConcurrency = 8

// EmbedAll vectorizes texts in input order, using the provider's native
// batch call when available and a bounded concurrent fallback otherwise.
func EmbedAll(ctx context.Context, e Embedder, texts []string) ([]EmbeddingResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if be, ok := e.(BatchEmbedder); ok {
		results, err := be.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("batch embed: %w", err)
		}
		if len(results) != len(texts) {
			return nil, fmt.Errorf("batch embed returned %d results for %d texts: %w",
				len(results), len(texts), ErrEmbeddingProviderError)
		}
		return results, nil
	}

	results := make([]EmbeddingResult, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedAllConcurrency)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			res, err := e.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed text %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
