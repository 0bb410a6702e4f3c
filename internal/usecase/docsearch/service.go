// Package docsearch runs vector search over a document database
// collection through two-stage aggregation pipelines, and manages the
// vector index backing them.
package docsearch

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/index"
	"github.com/kailas-cloud/semdex/internal/logger"
	"github.com/kailas-cloud/semdex/internal/metrics"
	"github.com/kailas-cloud/semdex/internal/repository/docpipe"
	"github.com/kailas-cloud/semdex/internal/repository/normalize"
	"github.com/kailas-cloud/semdex/internal/scorevec"
)

// DefaultFetchK is the candidate pool size for diversity re-ranking
// when the caller does not set one.
const DefaultFetchK = 20

// SearchOptions tune a single pipeline search.
type SearchOptions struct {
	// PreFilter restricts candidates before the vector stage runs.
	PreFilter map[string]any
	// ScoreThreshold drops rows scoring below it. Inclusive: a row at
	// exactly the threshold is kept.
	ScoreThreshold float64
	// WithEmbedding returns each document's stored vector in metadata.
	WithEmbedding bool
}

// Service runs vector search over one collection.
type Service struct {
	backend      Backend
	embed        Embedder
	pipe         *docpipe.Builder
	params       index.Params
	indexName    string
	textKey      string
	embeddingKey string
}

// New creates a document-search service. Index parameters are
// validated up front so a bad configuration fails before any command
// reaches the database.
func New(
	backend Backend, embed Embedder,
	indexName, textKey, embeddingKey string,
	params index.Params,
) (*Service, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		backend:      backend,
		embed:        embed,
		pipe:         docpipe.New(backend.CollectionName(), indexName, embeddingKey),
		params:       params,
		indexName:    indexName,
		textKey:      textKey,
		embeddingKey: embeddingKey,
	}, nil
}

// CreateIndex provisions the vector index with the configured tuning.
func (s *Service) CreateIndex(ctx context.Context) error {
	if err := s.backend.RunCommand(ctx, s.pipe.CreateIndexCommand(s.params)); err != nil {
		return fmt.Errorf("create index %s: %w", s.indexName, err)
	}
	return nil
}

// CreateFilterIndex provisions a plain index over a filterable property.
func (s *Service) CreateFilterIndex(ctx context.Context, property, indexName string) error {
	if err := s.backend.RunCommand(ctx, s.pipe.CreateFilterIndexCommand(property, indexName)); err != nil {
		return fmt.Errorf("create filter index %s: %w", indexName, err)
	}
	return nil
}

// IndexExists reports whether the vector index has been provisioned.
func (s *Service) IndexExists(ctx context.Context) (bool, error) {
	names, err := s.backend.ListIndexNames(ctx)
	if err != nil {
		return false, fmt.Errorf("list indexes: %w", err)
	}
	return slices.Contains(names, s.indexName), nil
}

// DeleteIndex drops the vector index.
func (s *Service) DeleteIndex(ctx context.Context) error {
	if err := s.backend.DropIndex(ctx, s.indexName); err != nil {
		return fmt.Errorf("drop index %s: %w", s.indexName, err)
	}
	return nil
}

// AddTexts embeds and inserts texts with their metadata, returning the
// inserted ids in input order. metadatas may be nil or per-text.
func (s *Service) AddTexts(ctx context.Context, texts []string, metadatas []map[string]any) ([]string, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to add: %w", domain.ErrEmptyInput)
	}

	results, err := domain.EmbedAll(ctx, s.embed, texts)
	if err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(results))
	for i, r := range results {
		vectors[i] = r.Embedding
	}
	return s.AddEmbeddings(ctx, texts, vectors, metadatas)
}

// AddEmbeddings inserts texts with precomputed vectors, returning the
// inserted ids in input order.
func (s *Service) AddEmbeddings(ctx context.Context, texts []string, vectors [][]float32, metadatas []map[string]any) ([]string, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no documents to add: %w", domain.ErrEmptyInput)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%d vectors for %d texts: %w",
			len(vectors), len(texts), domain.ErrConfiguration)
	}
	if metadatas != nil && len(metadatas) != len(texts) {
		return nil, fmt.Errorf("%d metadatas for %d texts: %w",
			len(metadatas), len(texts), domain.ErrConfiguration)
	}

	docs := make([]map[string]any, len(texts))
	for i, text := range texts {
		if err := s.checkDimensions(vectors[i]); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		doc := map[string]any{
			s.textKey:      text,
			s.embeddingKey: vectors[i],
		}
		if metadatas != nil {
			for k, v := range metadatas[i] {
				doc[k] = v
			}
		}
		docs[i] = doc
	}

	ids, err := s.backend.InsertMany(ctx, docs)
	if err != nil {
		metrics.UploadDocumentsTotal.WithLabelValues("document", "error").Add(float64(len(docs)))
		return nil, fmt.Errorf("insert documents: %w", err)
	}
	metrics.UploadDocumentsTotal.WithLabelValues("document", "ok").Add(float64(len(docs)))
	return ids, nil
}

// DeleteByID removes a single document.
func (s *Service) DeleteByID(ctx context.Context, id string) error {
	if err := s.backend.DeleteOne(ctx, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// DeleteAll removes every document matching filter; a nil filter
// clears the collection.
func (s *Service) DeleteAll(ctx context.Context, filter map[string]any) error {
	if filter == nil {
		filter = map[string]any{}
	}
	if err := s.backend.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

// Search embeds the query and returns the k most similar documents.
func (s *Service) Search(ctx context.Context, query string, k int, opts SearchOptions) ([]domain.ScoredDocument, error) {
	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return s.SearchByVector(ctx, emb.Embedding, k, opts)
}

// SearchByVector returns the k documents nearest to vector.
func (s *Service) SearchByVector(ctx context.Context, vector []float32, k int, opts SearchOptions) ([]domain.ScoredDocument, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty: %w", domain.ErrEmptyInput)
	}
	if err := s.checkDimensions(vector); err != nil {
		return nil, err
	}

	start := time.Now()
	pipeline := s.pipe.VectorSearchPipeline(vector, k, opts.PreFilter, s.params)
	rows, err := s.backend.Aggregate(ctx, pipeline)
	s.observe(start, err)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	if len(rows) == 0 {
		logger.FromContext(ctx).Debug("no results",
			zap.String("index", s.indexName),
			zap.Int("k", k))
	}

	docs := make([]domain.ScoredDocument, 0, len(rows))
	for _, row := range rows {
		doc, err := normalize.PipelineDocument(row, s.textKey, s.embeddingKey, opts.WithEmbedding)
		if err != nil {
			return nil, err
		}
		if opts.ScoreThreshold > 0 && doc.Score < opts.ScoreThreshold {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// MMRSearch fetches fetchK candidates with their stored vectors and
// re-ranks them by maximal marginal relevance, returning at most k.
// fetchK defaults to DefaultFetchK.
func (s *Service) MMRSearch(
	ctx context.Context, query string,
	k, fetchK int, lambda float64, opts SearchOptions,
) ([]domain.ScoredDocument, error) {
	if fetchK <= 0 {
		fetchK = DefaultFetchK
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	opts.WithEmbedding = true
	docs, err := s.SearchByVector(ctx, emb.Embedding, fetchK, opts)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(docs))
	for i, doc := range docs {
		vectors[i], _ = doc.Document.Metadata()[s.embeddingKey].([]float32)
	}

	selected := scorevec.MaximalMarginalRelevance(emb.Embedding, vectors, k, lambda)
	out := make([]domain.ScoredDocument, len(selected))
	for i, idx := range selected {
		out[i] = docs[idx]
	}
	return out, nil
}

func (s *Service) checkDimensions(vector []float32) error {
	if len(vector) != s.params.Dimensions {
		return fmt.Errorf("vector has %d dimensions, index expects %d: %w",
			len(vector), s.params.Dimensions, domain.ErrVectorDimMismatch)
	}
	return nil
}

func (s *Service) observe(start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues("document", "similarity", status).Inc()
	metrics.SearchRequestDuration.WithLabelValues("document", "similarity").Observe(time.Since(start).Seconds())
}
