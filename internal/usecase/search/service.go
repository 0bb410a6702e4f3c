// Package search orchestrates queries against a search-service index:
// mode dispatch, score thresholds, diversity re-ranking, and concurrent
// multi-query fan-out.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/semdex/internal/db"
	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/search/mode"
	"github.com/kailas-cloud/semdex/internal/domain/search/request"
	"github.com/kailas-cloud/semdex/internal/logger"
	"github.com/kailas-cloud/semdex/internal/metrics"
	"github.com/kailas-cloud/semdex/internal/repository/normalize"
	"github.com/kailas-cloud/semdex/internal/repository/searchreq"
	"github.com/kailas-cloud/semdex/internal/scorevec"
)

// DefaultFetchK is the candidate pool size for diversity re-ranking
// when the caller does not set one.
const DefaultFetchK = 20

// Options tune a single query. Zero values fall back to the service
// configuration.
type Options struct {
	// Mode overrides the service default search mode.
	Mode mode.Mode
	// Filter is a backend-native filter expression.
	Filter string
}

// Service runs searches against one index.
type Service struct {
	backend Backend
	embed   Embedder
	builder *searchreq.Builder
	norm    *normalize.Normalizer
	mode    mode.Mode
	store   string
}

// New creates a search service. defaultMode applies when a query does
// not override it.
func New(
	backend Backend, embed Embedder,
	fields searchreq.Fields, semanticConfiguration string,
	defaultMode mode.Mode,
) (*Service, error) {
	if !defaultMode.IsValid() {
		return nil, fmt.Errorf("default mode %q: %w", defaultMode, domain.ErrInvalidSearchMode)
	}
	return &Service{
		backend: backend,
		embed:   embed,
		builder: searchreq.NewBuilder(fields, semanticConfiguration),
		norm:    normalize.NewNormalizer(fields),
		mode:    defaultMode,
		store:   "search",
	}, nil
}

// Search returns the k most similar documents without scores.
func (s *Service) Search(ctx context.Context, query string, k int, opts Options) ([]domain.Document, error) {
	scored, err := s.SearchWithScore(ctx, query, k, opts)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, len(scored))
	for i, sd := range scored {
		docs[i] = sd.Document
	}
	return docs, nil
}

// SearchWithScore returns the k most similar documents with their
// backend scores. The mode is resolved and validated before any
// network call.
func (s *Service) SearchWithScore(ctx context.Context, query string, k int, opts Options) ([]domain.ScoredDocument, error) {
	m, err := s.resolveMode(opts.Mode)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	docs, err := s.search(ctx, m, query, k, opts.Filter, false)
	s.observe(m, start, err)
	return docs, err
}

// SearchWithRelevanceScores returns documents whose score is at or
// above threshold. The comparison is inclusive.
func (s *Service) SearchWithRelevanceScores(
	ctx context.Context, query string, k int,
	threshold float64, opts Options,
) ([]domain.ScoredDocument, error) {
	scored, err := s.SearchWithScore(ctx, query, k, opts)
	if err != nil {
		return nil, err
	}
	kept := scored[:0]
	for _, sd := range scored {
		if sd.Score >= threshold {
			kept = append(kept, sd)
		}
	}
	return kept, nil
}

// MMRSearch fetches fetchK candidates with their stored vectors and
// re-ranks them by maximal marginal relevance, returning at most k.
// fetchK defaults to DefaultFetchK.
func (s *Service) MMRSearch(
	ctx context.Context, query string,
	k, fetchK int, lambda float64, opts Options,
) ([]domain.ScoredDocument, error) {
	m, err := s.resolveMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	if fetchK <= 0 {
		fetchK = DefaultFetchK
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	req, err := request.New(emb.Embedding, fetchK, query, opts.Filter, 0, true)
	if err != nil {
		return nil, err
	}
	resp, err := s.backend.Search(ctx, s.buildRequest(m, &req))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(resp.Rows) == 0 {
		return nil, nil
	}

	docs := make([]domain.ScoredDocument, 0, len(resp.Rows))
	vectors := make([][]float32, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		doc, err := s.normalizeRow(m, row, resp)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
		vectors = append(vectors, s.norm.Vector(row))
	}

	selected := scorevec.MaximalMarginalRelevance(emb.Embedding, vectors, k, lambda)
	out := make([]domain.ScoredDocument, len(selected))
	for i, idx := range selected {
		out[i] = docs[idx]
	}
	return out, nil
}

// SearchMany runs one query per input concurrently and returns the
// result slices in input order. The first failure cancels the rest.
func (s *Service) SearchMany(ctx context.Context, queries []string, k int, opts Options) ([][]domain.ScoredDocument, error) {
	results := make([][]domain.ScoredDocument, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			scored, err := s.SearchWithScore(gctx, q, k, opts)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			results[i] = scored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) search(
	ctx context.Context, m mode.Mode,
	query string, k int, filter string, withVectors bool,
) ([]domain.ScoredDocument, error) {
	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	req, err := request.New(emb.Embedding, k, query, filter, 0, withVectors)
	if err != nil {
		return nil, err
	}

	resp, err := s.backend.Search(ctx, s.buildRequest(m, &req))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(resp.Rows) == 0 {
		logger.FromContext(ctx).Debug("no results",
			zap.String("mode", string(m)),
			zap.Int("k", k))
	}

	docs := make([]domain.ScoredDocument, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		doc, err := s.normalizeRow(m, row, resp)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Service) buildRequest(m mode.Mode, req *request.Request) *db.SearchRequest {
	switch m {
	case mode.Hybrid:
		return s.builder.Hybrid(req)
	case mode.SemanticHybrid:
		return s.builder.SemanticHybrid(req)
	default:
		return s.builder.Vector(req)
	}
}

func (s *Service) normalizeRow(m mode.Mode, row db.Row, resp *db.SearchResponse) (domain.ScoredDocument, error) {
	if m == mode.SemanticHybrid {
		return s.norm.SemanticDocument(row, normalize.AnswersByID(resp.Answers))
	}
	return s.norm.Document(row)
}

func (s *Service) resolveMode(override mode.Mode) (mode.Mode, error) {
	if override == "" {
		return s.mode, nil
	}
	if !override.IsValid() {
		return "", fmt.Errorf("mode %q: %w", override, domain.ErrInvalidSearchMode)
	}
	return override, nil
}

func (s *Service) observe(m mode.Mode, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(s.store, string(m), status).Inc()
	metrics.SearchRequestDuration.WithLabelValues(s.store, string(m)).Observe(time.Since(start).Seconds())
}
