package semdex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain/search/mode"
	"github.com/kailas-cloud/semdex/internal/logger"
	ingestuc "github.com/kailas-cloud/semdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/semdex/internal/usecase/search"
)

// QueryOptions tune a single search-store query. Zero values fall back
// to the store configuration.
type QueryOptions struct {
	Mode   SearchMode
	Filter string
}

// EmbeddedDocument pairs a text with its precomputed vector for
// ingestion without an embedding call.
type EmbeddedDocument struct {
	Text     string
	Vector   []float32
	Metadata map[string]any
}

// SearchStore is a vector store over a dedicated search-service index.
type SearchStore struct {
	search *searchuc.Service
	ingest *ingestuc.Service
	logger *zap.Logger
}

// NewSearchStore creates a search-service vector store.
func NewSearchStore(backend SearchBackend, embedder Embedder, opts ...Option) (*SearchStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("semdex: search backend is required: %w", ErrConfiguration)
	}
	cfg := defaultStoreConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	domEmb, err := buildEmbedder(cfg, embedder)
	if err != nil {
		return nil, err
	}

	adapter := &searchBackendAdapter{inner: backend}
	searchSvc, err := searchuc.New(adapter, domEmb, cfg.fields, cfg.semanticConfiguration, mode.Mode(cfg.mode))
	if err != nil {
		return nil, err
	}

	return &SearchStore{
		search: searchSvc,
		ingest: ingestuc.New(adapter, domEmb, cfg.fields),
		logger: cfg.logger,
	}, nil
}

// NewSearchStoreFromTexts creates a store and ingests the given texts.
// Rejects empty input: a store seeded from nothing is a configuration
// bug, not an empty index.
func NewSearchStoreFromTexts(
	ctx context.Context,
	backend SearchBackend, embedder Embedder,
	texts []string, metadatas []map[string]any,
	opts ...Option,
) (*SearchStore, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("semdex: from texts: %w", ErrEmptyInput)
	}
	store, err := NewSearchStore(backend, embedder, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := store.AddTexts(ctx, texts, metadatas, nil); err != nil {
		return nil, err
	}
	return store, nil
}

// Search returns the k most similar documents.
func (s *SearchStore) Search(ctx context.Context, query string, k int, opts *QueryOptions) ([]Document, error) {
	docs, err := s.search.Search(s.ctx(ctx), query, k, toSearchOptions(opts))
	if err != nil {
		return nil, err
	}
	return fromDocuments(docs), nil
}

// SearchWithScore returns the k most similar documents with scores.
func (s *SearchStore) SearchWithScore(ctx context.Context, query string, k int, opts *QueryOptions) ([]ScoredDocument, error) {
	docs, err := s.search.SearchWithScore(s.ctx(ctx), query, k, toSearchOptions(opts))
	if err != nil {
		return nil, err
	}
	return fromScoredDocuments(docs), nil
}

// SearchWithRelevanceScores returns documents scoring at or above
// threshold. The comparison is inclusive.
func (s *SearchStore) SearchWithRelevanceScores(
	ctx context.Context, query string, k int,
	threshold float64, opts *QueryOptions,
) ([]ScoredDocument, error) {
	docs, err := s.search.SearchWithRelevanceScores(s.ctx(ctx), query, k, threshold, toSearchOptions(opts))
	if err != nil {
		return nil, err
	}
	return fromScoredDocuments(docs), nil
}

// MMRSearch re-ranks fetchK candidates by maximal marginal relevance
// and returns at most k. lambda 1 is pure relevance, 0 pure diversity.
func (s *SearchStore) MMRSearch(
	ctx context.Context, query string,
	k, fetchK int, lambda float64, opts *QueryOptions,
) ([]ScoredDocument, error) {
	docs, err := s.search.MMRSearch(s.ctx(ctx), query, k, fetchK, lambda, toSearchOptions(opts))
	if err != nil {
		return nil, err
	}
	return fromScoredDocuments(docs), nil
}

// SearchMany runs the queries concurrently, returning result sets in
// input order.
func (s *SearchStore) SearchMany(ctx context.Context, queries []string, k int, opts *QueryOptions) ([][]ScoredDocument, error) {
	sets, err := s.search.SearchMany(s.ctx(ctx), queries, k, toSearchOptions(opts))
	if err != nil {
		return nil, err
	}
	out := make([][]ScoredDocument, len(sets))
	for i, docs := range sets {
		out[i] = fromScoredDocuments(docs)
	}
	return out, nil
}

// AddTexts embeds and uploads texts, returning document keys in input
// order. keys nil generates them; caller keys are encoded index-safe.
func (s *SearchStore) AddTexts(ctx context.Context, texts []string, metadatas []map[string]any, keys []string) ([]string, error) {
	return s.ingest.AddTexts(s.ctx(ctx), texts, metadatas, keys)
}

// AddEmbeddings uploads precomputed text/vector pairs.
func (s *SearchStore) AddEmbeddings(ctx context.Context, docs []EmbeddedDocument, keys []string) ([]string, error) {
	items := make([]ingestuc.Embedded, len(docs))
	for i, d := range docs {
		items[i] = ingestuc.Embedded{Text: d.Text, Vector: d.Vector, Metadata: d.Metadata}
	}
	return s.ingest.AddEmbeddings(s.ctx(ctx), items, keys)
}

// DeleteByKeys removes documents and reports how many were deleted.
func (s *SearchStore) DeleteByKeys(ctx context.Context, keys []string) (int, error) {
	return s.ingest.DeleteByKeys(s.ctx(ctx), keys)
}

func (s *SearchStore) ctx(ctx context.Context) context.Context {
	if s.logger == nil {
		return ctx
	}
	return logger.ContextWithLogger(ctx, s.logger)
}

func toSearchOptions(opts *QueryOptions) searchuc.Options {
	if opts == nil {
		return searchuc.Options{}
	}
	return searchuc.Options{
		Mode:   mode.Mode(opts.Mode),
		Filter: opts.Filter,
	}
}
