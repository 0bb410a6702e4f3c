package semdex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/semdex/internal/db"
	"github.com/kailas-cloud/semdex/internal/domain"
)

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder,
// passing a native batch endpoint through when the implementation has one.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Vector,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *embedderAdapter) EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error) {
	be, ok := a.inner.(BatchEmbedder)
	if !ok {
		return domain.EmbedAll(ctx, embedOnly{a}, texts)
	}
	results, err := be.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("batch embed: %w", err)
	}
	out := make([]domain.EmbeddingResult, len(results))
	for i, r := range results {
		out[i] = domain.EmbeddingResult{
			Embedding:    r.Vector,
			PromptTokens: r.PromptTokens,
			TotalTokens:  r.TotalTokens,
		}
	}
	return out, nil
}

// embedOnly hides EmbedBatch so domain.EmbedAll uses the concurrent
// per-text fallback instead of recursing.
type embedOnly struct {
	inner domain.Embedder
}

func (e embedOnly) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return e.inner.Embed(ctx, text)
}

// searchBackendAdapter converts between public and internal wire types.
type searchBackendAdapter struct {
	inner SearchBackend
}

func (a *searchBackendAdapter) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
	vqs := make([]VectorQuery, len(req.VectorQueries))
	for i, vq := range req.VectorQueries {
		vqs[i] = VectorQuery{
			Vector:            vq.Vector,
			KNearestNeighbors: vq.KNearestNeighbors,
			Fields:            vq.Fields,
		}
	}

	resp, err := a.inner.Search(ctx, &SearchRequest{
		Text:                  req.Text,
		VectorQueries:         vqs,
		Filter:                req.Filter,
		Top:                   req.Top,
		QueryType:             req.QueryType,
		SemanticConfiguration: req.SemanticConfiguration,
		QueryCaption:          req.QueryCaption,
		QueryAnswer:           req.QueryAnswer,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]db.Row, len(resp.Rows))
	for i, r := range resp.Rows {
		rows[i] = toInternalRow(r)
	}
	answers := make([]db.Answer, len(resp.Answers))
	for i, ans := range resp.Answers {
		answers[i] = db.Answer{Key: ans.Key, Text: ans.Text, Highlights: ans.Highlights}
	}
	return &db.SearchResponse{Rows: rows, Answers: answers}, nil
}

func (a *searchBackendAdapter) Upload(ctx context.Context, docs []map[string]any) ([]db.UploadResult, error) {
	results, err := a.inner.Upload(ctx, docs)
	if err != nil {
		return nil, err
	}
	out := make([]db.UploadResult, len(results))
	for i, r := range results {
		out[i] = db.UploadResult{
			Key:       r.Key,
			Succeeded: r.Succeeded,
			Status:    r.Status,
			Reason:    r.Reason,
		}
	}
	return out, nil
}

func (a *searchBackendAdapter) Delete(ctx context.Context, keys []string) (int, error) {
	return a.inner.Delete(ctx, keys)
}

// toInternalRow rewrites public caption values into their internal
// representation; everything else passes through untouched.
func toInternalRow(r map[string]any) db.Row {
	captions, ok := r[db.FieldCaptions].([]Caption)
	if !ok {
		return db.Row(r)
	}
	row := make(db.Row, len(r))
	for k, v := range r {
		row[k] = v
	}
	converted := make([]db.Caption, len(captions))
	for i, c := range captions {
		converted[i] = db.Caption{Text: c.Text, Highlights: c.Highlights}
	}
	row[db.FieldCaptions] = converted
	return row
}

// documentBackendAdapter converts row slices between the public and
// internal shapes.
type documentBackendAdapter struct {
	inner DocumentBackend
}

func (a *documentBackendAdapter) Aggregate(ctx context.Context, pipeline []map[string]any) ([]db.Row, error) {
	rows, err := a.inner.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := make([]db.Row, len(rows))
	for i, r := range rows {
		out[i] = db.Row(r)
	}
	return out, nil
}

func (a *documentBackendAdapter) InsertMany(ctx context.Context, docs []map[string]any) ([]string, error) {
	return a.inner.InsertMany(ctx, docs)
}

func (a *documentBackendAdapter) DeleteMany(ctx context.Context, filter map[string]any) error {
	return a.inner.DeleteMany(ctx, filter)
}

func (a *documentBackendAdapter) DeleteOne(ctx context.Context, id string) error {
	return a.inner.DeleteOne(ctx, id)
}

func (a *documentBackendAdapter) RunCommand(ctx context.Context, cmd map[string]any) error {
	return a.inner.RunCommand(ctx, cmd)
}

func (a *documentBackendAdapter) ListIndexNames(ctx context.Context) ([]string, error) {
	return a.inner.ListIndexNames(ctx)
}

func (a *documentBackendAdapter) DropIndex(ctx context.Context, name string) error {
	return a.inner.DropIndex(ctx, name)
}

func (a *documentBackendAdapter) CollectionName() string {
	return a.inner.CollectionName()
}

func fromScoredDocuments(docs []domain.ScoredDocument) []ScoredDocument {
	out := make([]ScoredDocument, len(docs))
	for i, d := range docs {
		out[i] = ScoredDocument{
			Document: Document{
				Content:  d.Document.Content(),
				Metadata: d.Document.Metadata(),
			},
			Score:       d.Score,
			RerankScore: d.RerankScore,
		}
	}
	return out
}

func fromDocuments(docs []domain.Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document{Content: d.Content(), Metadata: d.Metadata()}
	}
	return out
}

func toDomainGenerations(generations []Generation) ([]domain.Generation, error) {
	out := make([]domain.Generation, len(generations))
	for i, g := range generations {
		switch g.Kind {
		case domain.KindCompletion:
			out[i] = domain.Completion{Text: g.Text, Info: g.Info}
		case domain.KindChat:
			out[i] = domain.ChatCompletion{Role: g.Role, Text: g.Text, Info: g.Info}
		default:
			return nil, fmt.Errorf("generation %d has kind %q: %w",
				i, g.Kind, domain.ErrUnsupportedGeneration)
		}
	}
	return out, nil
}

func fromDomainGenerations(generations []domain.Generation) []Generation {
	out := make([]Generation, len(generations))
	for i, g := range generations {
		switch v := g.(type) {
		case domain.Completion:
			out[i] = Generation{Kind: domain.KindCompletion, Text: v.Text, Info: v.Info}
		case domain.ChatCompletion:
			out[i] = Generation{Kind: domain.KindChat, Role: v.Role, Text: v.Text, Info: v.Info}
		}
	}
	return out
}
