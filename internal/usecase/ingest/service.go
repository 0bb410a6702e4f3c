// Package ingest uploads documents to a search-service index in
// bounded batches with fail-loud partial-failure reporting.
package ingest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/db"
	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/logger"
	"github.com/kailas-cloud/semdex/internal/metrics"
	"github.com/kailas-cloud/semdex/internal/repository/searchreq"
)

// MaxUploadBatchSize is the hard per-request document limit of the
// search service.
const MaxUploadBatchSize = 1000

// Embedded pairs a text with its precomputed vector.
type Embedded struct {
	Text     string
	Vector   []float32
	Metadata map[string]any
}

// Service uploads documents to one index.
type Service struct {
	backend Backend
	embed   Embedder
	fields  searchreq.Fields
}

// New creates an ingest service.
func New(backend Backend, embed Embedder, fields searchreq.Fields) *Service {
	return &Service{backend: backend, embed: embed, fields: fields}
}

// AddTexts embeds and uploads texts, returning the document keys in
// input order. keys may be nil (generated) or one per text. metadatas
// may be nil or one per text.
func (s *Service) AddTexts(
	ctx context.Context,
	texts []string, metadatas []map[string]any, keys []string,
) ([]string, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to add: %w", domain.ErrEmptyInput)
	}

	results, err := domain.EmbedAll(ctx, s.embed, texts)
	if err != nil {
		return nil, err
	}

	items := make([]Embedded, len(texts))
	for i, text := range texts {
		items[i] = Embedded{Text: text, Vector: results[i].Embedding}
		if metadatas != nil {
			items[i].Metadata = metadatas[i]
		}
	}
	return s.AddEmbeddings(ctx, items, keys)
}

// AddEmbeddings uploads precomputed text/vector pairs in batches of at
// most MaxUploadBatchSize. The first batch with rejected documents
// aborts the remaining batches and reports every failure of that batch.
func (s *Service) AddEmbeddings(ctx context.Context, items []Embedded, keys []string) ([]string, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no documents to add: %w", domain.ErrEmptyInput)
	}
	if keys != nil && len(keys) != len(items) {
		return nil, fmt.Errorf("%d keys for %d documents: %w",
			len(keys), len(items), domain.ErrConfiguration)
	}

	docs := make([]map[string]any, len(items))
	outKeys := make([]string, len(items))
	for i, item := range items {
		key, err := s.documentKey(keys, i)
		if err != nil {
			return nil, err
		}
		outKeys[i] = key

		metadata, err := json.Marshal(orEmpty(item.Metadata))
		if err != nil {
			return nil, fmt.Errorf("encode metadata %d: %w", i, err)
		}
		docs[i] = map[string]any{
			db.FieldAction:         "upload",
			s.fields.ID:            key,
			s.fields.Content:       item.Text,
			s.fields.ContentVector: item.Vector,
			s.fields.Metadata:      string(metadata),
		}
	}

	for offset := 0; offset < len(docs); offset += MaxUploadBatchSize {
		end := min(offset+MaxUploadBatchSize, len(docs))
		if err := s.uploadBatch(ctx, docs[offset:end]); err != nil {
			return nil, err
		}
		logger.FromContext(ctx).Debug("uploaded batch",
			zap.Int("offset", offset),
			zap.Int("size", end-offset))
	}
	return outKeys, nil
}

// DeleteByKeys removes documents and returns how many were deleted.
func (s *Service) DeleteByKeys(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	deleted, err := s.backend.Delete(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return deleted, nil
}

func (s *Service) uploadBatch(ctx context.Context, batch []map[string]any) error {
	results, err := s.backend.Upload(ctx, batch)
	if err != nil {
		metrics.UploadDocumentsTotal.WithLabelValues("search", "error").Add(float64(len(batch)))
		return fmt.Errorf("upload batch: %w", err)
	}

	var failures []domain.UploadFailure
	for _, r := range results {
		if !r.Succeeded {
			failures = append(failures, domain.UploadFailure{
				Key:    r.Key,
				Status: r.Status,
				Reason: r.Reason,
			})
		}
	}
	if len(failures) > 0 {
		metrics.UploadDocumentsTotal.WithLabelValues("search", "error").Add(float64(len(failures)))
		metrics.UploadDocumentsTotal.WithLabelValues("search", "ok").Add(float64(len(batch) - len(failures)))
		return domain.NewUploadError(failures)
	}

	metrics.UploadDocumentsTotal.WithLabelValues("search", "ok").Add(float64(len(batch)))
	return nil
}

// documentKey returns the caller's key base64url-encoded, or a fresh
// random one. Encoding keeps arbitrary caller keys index-safe.
func (s *Service) documentKey(keys []string, i int) (string, error) {
	if keys == nil {
		return uuid.NewString(), nil
	}
	if keys[i] == "" {
		return "", fmt.Errorf("key %d is empty: %w", i, domain.ErrConfiguration)
	}
	return base64.RawURLEncoding.EncodeToString([]byte(keys[i])), nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
