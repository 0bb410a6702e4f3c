package semdex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/logger"
	docuc "github.com/kailas-cloud/semdex/internal/usecase/docsearch"
)

// DocumentQueryOptions tune a single document-store search.
type DocumentQueryOptions struct {
	// PreFilter restricts candidates before the vector stage runs.
	PreFilter map[string]any
	// ScoreThreshold drops rows scoring below it.
	ScoreThreshold float64
	// WithEmbedding returns each document's stored vector in metadata.
	WithEmbedding bool
}

// DocumentStore is a vector store over a document database collection.
type DocumentStore struct {
	svc    *docuc.Service
	logger *zap.Logger
}

// NewDocumentStore creates a document-database vector store. The index
// configuration is validated up front.
func NewDocumentStore(backend DocumentBackend, embedder Embedder, opts ...Option) (*DocumentStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("semdex: document backend is required: %w", ErrConfiguration)
	}
	cfg := defaultStoreConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	return newDocumentStore(backend, embedder, cfg)
}

func newDocumentStore(backend DocumentBackend, embedder Embedder, cfg *storeConfig) (*DocumentStore, error) {
	domEmb, err := buildEmbedder(cfg, embedder)
	if err != nil {
		return nil, err
	}

	svc, err := docuc.New(
		&documentBackendAdapter{inner: backend}, domEmb,
		cfg.indexName, cfg.textKey, cfg.embeddingKey, cfg.params,
	)
	if err != nil {
		return nil, err
	}
	return &DocumentStore{svc: svc, logger: cfg.logger}, nil
}

// NewDocumentStoreFromTexts creates a store, infers the index
// dimensionality from the first embedding, provisions the index, and
// inserts the texts. Rejects empty input.
func NewDocumentStoreFromTexts(
	ctx context.Context,
	backend DocumentBackend, embedder Embedder,
	texts []string, metadatas []map[string]any,
	opts ...Option,
) (*DocumentStore, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("semdex: from texts: %w", ErrEmptyInput)
	}
	cfg := defaultStoreConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	domEmb, err := buildEmbedder(cfg, embedder)
	if err != nil {
		return nil, err
	}
	results, err := domain.EmbedAll(ctx, domEmb, texts)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(results))
	for i, r := range results {
		vectors[i] = r.Embedding
	}
	docs := make([]EmbeddedDocument, len(texts))
	for i, text := range texts {
		docs[i] = EmbeddedDocument{Text: text, Vector: vectors[i]}
		if metadatas != nil {
			docs[i].Metadata = metadatas[i]
		}
	}
	return newDocumentStoreFromEmbedded(ctx, backend, embedder, docs, cfg)
}

// NewDocumentStoreFromEmbeddings creates a store from precomputed
// text/vector pairs, inferring the index dimensionality from the first
// vector. Rejects empty input.
func NewDocumentStoreFromEmbeddings(
	ctx context.Context,
	backend DocumentBackend, embedder Embedder,
	docs []EmbeddedDocument,
	opts ...Option,
) (*DocumentStore, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("semdex: from embeddings: %w", ErrEmptyInput)
	}
	cfg := defaultStoreConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	return newDocumentStoreFromEmbedded(ctx, backend, embedder, docs, cfg)
}

func newDocumentStoreFromEmbedded(
	ctx context.Context,
	backend DocumentBackend, embedder Embedder,
	docs []EmbeddedDocument, cfg *storeConfig,
) (*DocumentStore, error) {
	cfg.params.Dimensions = len(docs[0].Vector)

	store, err := newDocumentStore(backend, embedder, cfg)
	if err != nil {
		return nil, err
	}

	exists, err := store.svc.IndexExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := store.svc.CreateIndex(ctx); err != nil {
			return nil, err
		}
	}

	texts := make([]string, len(docs))
	vectors := make([][]float32, len(docs))
	metadatas := make([]map[string]any, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
		vectors[i] = d.Vector
		metadatas[i] = d.Metadata
	}
	if _, err := store.svc.AddEmbeddings(ctx, texts, vectors, metadatas); err != nil {
		return nil, err
	}
	return store, nil
}

// CreateIndex provisions the vector index.
func (s *DocumentStore) CreateIndex(ctx context.Context) error {
	return s.svc.CreateIndex(s.ctx(ctx))
}

// CreateFilterIndex provisions a plain index over a filterable property.
func (s *DocumentStore) CreateFilterIndex(ctx context.Context, property, indexName string) error {
	return s.svc.CreateFilterIndex(s.ctx(ctx), property, indexName)
}

// IndexExists reports whether the vector index has been provisioned.
func (s *DocumentStore) IndexExists(ctx context.Context) (bool, error) {
	return s.svc.IndexExists(s.ctx(ctx))
}

// DeleteIndex drops the vector index.
func (s *DocumentStore) DeleteIndex(ctx context.Context) error {
	return s.svc.DeleteIndex(s.ctx(ctx))
}

// AddTexts embeds and inserts texts, returning inserted ids.
func (s *DocumentStore) AddTexts(ctx context.Context, texts []string, metadatas []map[string]any) ([]string, error) {
	return s.svc.AddTexts(s.ctx(ctx), texts, metadatas)
}

// AddEmbeddings inserts precomputed text/vector pairs.
func (s *DocumentStore) AddEmbeddings(ctx context.Context, docs []EmbeddedDocument) ([]string, error) {
	texts := make([]string, len(docs))
	vectors := make([][]float32, len(docs))
	metadatas := make([]map[string]any, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
		vectors[i] = d.Vector
		metadatas[i] = d.Metadata
	}
	return s.svc.AddEmbeddings(s.ctx(ctx), texts, vectors, metadatas)
}

// DeleteByID removes one document.
func (s *DocumentStore) DeleteByID(ctx context.Context, id string) error {
	return s.svc.DeleteByID(s.ctx(ctx), id)
}

// DeleteAll removes every document matching filter; nil clears the
// collection.
func (s *DocumentStore) DeleteAll(ctx context.Context, filter map[string]any) error {
	return s.svc.DeleteAll(s.ctx(ctx), filter)
}

// Search embeds the query and returns the k most similar documents.
func (s *DocumentStore) Search(ctx context.Context, query string, k int, opts *DocumentQueryOptions) ([]ScoredDocument, error) {
	docs, err := s.svc.Search(s.ctx(ctx), query, k, toDocSearchOptions(opts))
	if err != nil {
		return nil, err
	}
	return fromScoredDocuments(docs), nil
}

// SearchByVector returns the k documents nearest to vector.
func (s *DocumentStore) SearchByVector(ctx context.Context, vector []float32, k int, opts *DocumentQueryOptions) ([]ScoredDocument, error) {
	docs, err := s.svc.SearchByVector(s.ctx(ctx), vector, k, toDocSearchOptions(opts))
	if err != nil {
		return nil, err
	}
	return fromScoredDocuments(docs), nil
}

// MMRSearch re-ranks fetchK candidates by maximal marginal relevance
// and returns at most k.
func (s *DocumentStore) MMRSearch(
	ctx context.Context, query string,
	k, fetchK int, lambda float64, opts *DocumentQueryOptions,
) ([]ScoredDocument, error) {
	docs, err := s.svc.MMRSearch(s.ctx(ctx), query, k, fetchK, lambda, toDocSearchOptions(opts))
	if err != nil {
		return nil, err
	}
	return fromScoredDocuments(docs), nil
}

func (s *DocumentStore) ctx(ctx context.Context) context.Context {
	if s.logger == nil {
		return ctx
	}
	return logger.ContextWithLogger(ctx, s.logger)
}

func toDocSearchOptions(opts *DocumentQueryOptions) docuc.SearchOptions {
	if opts == nil {
		return docuc.SearchOptions{}
	}
	return docuc.SearchOptions{
		PreFilter:      opts.PreFilter,
		ScoreThreshold: opts.ScoreThreshold,
		WithEmbedding:  opts.WithEmbedding,
	}
}
