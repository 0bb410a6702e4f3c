// Package cache implements a semantic completion cache on top of a
// vector store. Each model signature gets its own index, provisioned
// lazily on first use; lookups match prompts by embedding similarity
// rather than exact text.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/codec/gencodec"
	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/logger"
	"github.com/kailas-cloud/semdex/internal/metrics"
	"github.com/kailas-cloud/semdex/internal/usecase/docsearch"
)

// indexPrefix namespaces cache indexes away from regular collections.
const indexPrefix = "cache:"

// Metadata fields of a cached entry.
const (
	fieldSignature = "llm_string"
	fieldPrompt    = "prompt"
	fieldReturnVal = "return_val"
)

// DefaultScoreThreshold is the minimum similarity for a lookup hit.
const DefaultScoreThreshold = 0.2

type entry struct {
	store       Store
	provisioned bool
}

// Cache is a semantic completion cache. Safe for concurrent use.
type Cache struct {
	factory   StoreFactory
	threshold float64

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a cache. threshold <= 0 falls back to
// DefaultScoreThreshold.
func New(factory StoreFactory, threshold float64) *Cache {
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}
	return &Cache{
		factory:   factory,
		threshold: threshold,
		entries:   make(map[string]*entry),
	}
}

// IndexName derives the cache index name for a model signature. The
// signature is hashed so arbitrary parameter strings stay index-safe.
func IndexName(llmSignature string) string {
	h := sha256.Sum256([]byte(llmSignature))
	return indexPrefix + hex.EncodeToString(h[:])
}

// Lookup returns the cached generations for a prompt semantically
// close to a previously stored one, or nil on a miss. Entries that can
// no longer be decoded are logged and treated as misses.
func (c *Cache) Lookup(ctx context.Context, prompt, llmSignature string) ([]domain.Generation, error) {
	store, err := c.storeFor(ctx, llmSignature)
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	docs, err := store.Search(ctx, prompt, 1, docsearch.SearchOptions{ScoreThreshold: c.threshold})
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("cache lookup: %w", err)
	}
	if len(docs) == 0 {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}

	payload, _ := docs[0].Document.Metadata()[fieldReturnVal].(string)
	generations, err := gencodec.Decode([]byte(payload))
	if err != nil {
		logger.FromContext(ctx).Warn("dropping undecodable cache entry",
			zap.String("index", IndexName(llmSignature)),
			zap.Float64("score", docs[0].Score),
			zap.Error(err))
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}

	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return generations, nil
}

// Update stores the generations for a prompt. Only completion
// generations are cacheable; any other kind rejects the whole update
// before anything is written.
func (c *Cache) Update(ctx context.Context, prompt, llmSignature string, generations []domain.Generation) error {
	if len(generations) == 0 {
		return fmt.Errorf("no generations to cache: %w", domain.ErrEmptyInput)
	}
	for i, g := range generations {
		if g.GenerationKind() != domain.KindCompletion {
			return fmt.Errorf("generation %d has kind %q: %w",
				i, g.GenerationKind(), domain.ErrUnsupportedGeneration)
		}
	}

	payload, err := gencodec.Encode(generations)
	if err != nil {
		return err
	}

	store, err := c.storeFor(ctx, llmSignature)
	if err != nil {
		return err
	}
	_, err = store.AddTexts(ctx, []string{prompt}, []map[string]any{{
		fieldSignature: llmSignature,
		fieldPrompt:    prompt,
		fieldReturnVal: string(payload),
	}})
	if err != nil {
		return fmt.Errorf("cache update: %w", err)
	}
	return nil
}

// Clear drops every entry of the signature's index. Signatures never
// seen by this cache instance are a no-op.
func (c *Cache) Clear(ctx context.Context, llmSignature string) error {
	c.mu.Lock()
	e, ok := c.entries[IndexName(llmSignature)]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	if err := e.store.DeleteAll(ctx, nil); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// storeFor resolves the store for a signature, creating it and
// provisioning its index on first use. The registry hands out one
// store per index name; concurrent first callers race to create it and
// the first writer wins.
func (c *Cache) storeFor(ctx context.Context, llmSignature string) (Store, error) {
	name := IndexName(llmSignature)

	c.mu.Lock()
	e, ok := c.entries[name]
	c.mu.Unlock()

	if !ok {
		store, err := c.factory(name)
		if err != nil {
			return nil, fmt.Errorf("open cache store %s: %w", name, err)
		}

		c.mu.Lock()
		if existing, ok := c.entries[name]; ok {
			e = existing
		} else {
			e = &entry{store: store}
			c.entries[name] = e
		}
		c.mu.Unlock()
	}

	if err := c.ensureIndex(ctx, e); err != nil {
		return nil, err
	}
	return e.store, nil
}

// ensureIndex provisions the vector index once per entry. A failed
// attempt leaves the flag unset so the next call retries.
func (c *Cache) ensureIndex(ctx context.Context, e *entry) error {
	c.mu.Lock()
	done := e.provisioned
	c.mu.Unlock()
	if done {
		return nil
	}

	exists, err := e.store.IndexExists(ctx)
	if err != nil {
		return fmt.Errorf("check cache index: %w", err)
	}
	if !exists {
		if err := e.store.CreateIndex(ctx); err != nil {
			return fmt.Errorf("create cache index: %w", err)
		}
	}

	c.mu.Lock()
	e.provisioned = true
	c.mu.Unlock()
	return nil
}
