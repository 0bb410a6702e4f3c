package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/kailas-cloud/semdex/internal/db"
	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/search/mode"
	"github.com/kailas-cloud/semdex/internal/repository/searchreq"
)

// --- Mocks ---

type mockBackend struct {
	mu       sync.Mutex
	resp     *db.SearchResponse
	err      error
	lastReq  *db.SearchRequest
	searches int
}

func (m *mockBackend) Search(_ context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastReq = req
	m.searches++
	if m.err != nil {
		return nil, m.err
	}
	if m.resp == nil {
		return &db.SearchResponse{}, nil
	}
	return m.resp, nil
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func row(id string, score float64, content string) db.Row {
	return db.Row{
		"id":          id,
		"content":     content,
		db.FieldScore: score,
	}
}

func newService(t *testing.T, backend Backend, embed Embedder, m mode.Mode) *Service {
	t.Helper()
	svc, err := New(backend, embed, searchreq.DefaultFields(), "default", m)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc
}

// --- Tests ---

func TestNew_InvalidDefaultMode(t *testing.T) {
	_, err := New(&mockBackend{}, &mockEmbedder{}, searchreq.DefaultFields(), "", "fuzzy")
	if !errors.Is(err, domain.ErrInvalidSearchMode) {
		t.Errorf("error = %v, want ErrInvalidSearchMode", err)
	}
}

func TestSearchWithScore_Similarity(t *testing.T) {
	backend := &mockBackend{resp: &db.SearchResponse{
		Rows: []db.Row{row("a", 0.9, "first"), row("b", 0.4, "second")},
	}}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2}}
	svc := newService(t, backend, embed, mode.Similarity)

	got, err := svc.SearchWithScore(context.Background(), "query", 2, Options{})
	if err != nil {
		t.Fatalf("SearchWithScore() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2", len(got))
	}
	if got[0].Score != 0.9 || got[0].Document.Content() != "first" {
		t.Errorf("first = %+v", got[0])
	}
	if !embed.called {
		t.Error("embedder not called")
	}
	if backend.lastReq.Text != "" {
		t.Errorf("similarity request carries text %q", backend.lastReq.Text)
	}
	if backend.lastReq.QueryType != "" {
		t.Errorf("similarity request carries queryType %q", backend.lastReq.QueryType)
	}
}

func TestSearchWithScore_ModeOverride(t *testing.T) {
	backend := &mockBackend{}
	svc := newService(t, backend, &mockEmbedder{vec: []float32{1}}, mode.Similarity)

	_, err := svc.SearchWithScore(context.Background(), "query", 3, Options{Mode: mode.SemanticHybrid})
	if err != nil {
		t.Fatalf("SearchWithScore() error = %v", err)
	}
	if backend.lastReq.QueryType != "semantic" {
		t.Errorf("QueryType = %q, want semantic", backend.lastReq.QueryType)
	}
	if backend.lastReq.QueryCaption != "extractive" {
		t.Errorf("QueryCaption = %q, want extractive", backend.lastReq.QueryCaption)
	}
}

func TestSearchWithScore_UnknownModeRejectedBeforeBackend(t *testing.T) {
	backend := &mockBackend{}
	svc := newService(t, backend, &mockEmbedder{vec: []float32{1}}, mode.Similarity)

	_, err := svc.SearchWithScore(context.Background(), "query", 3, Options{Mode: "fuzzy"})
	if !errors.Is(err, domain.ErrInvalidSearchMode) {
		t.Fatalf("error = %v, want ErrInvalidSearchMode", err)
	}
	if backend.searches != 0 {
		t.Error("backend called despite invalid mode")
	}
}

func TestSearchWithScore_SemanticAttachesAnswers(t *testing.T) {
	backend := &mockBackend{resp: &db.SearchResponse{
		Rows:    []db.Row{row("a", 0.9, "first")},
		Answers: []db.Answer{{Key: "a", Text: "an answer"}},
	}}
	svc := newService(t, backend, &mockEmbedder{vec: []float32{1}}, mode.SemanticHybrid)

	got, err := svc.SearchWithScore(context.Background(), "query", 1, Options{})
	if err != nil {
		t.Fatalf("SearchWithScore() error = %v", err)
	}
	answer := got[0].Document.Metadata()["answers"].(map[string]any)
	if answer["text"] != "an answer" {
		t.Errorf("answer = %v", answer)
	}
}

func TestSearchWithRelevanceScores_InclusiveThreshold(t *testing.T) {
	backend := &mockBackend{resp: &db.SearchResponse{
		Rows: []db.Row{row("a", 0.9, "a"), row("b", 0.5, "b"), row("c", 0.49, "c")},
	}}
	svc := newService(t, backend, &mockEmbedder{vec: []float32{1}}, mode.Similarity)

	got, err := svc.SearchWithRelevanceScores(context.Background(), "query", 3, 0.5, Options{})
	if err != nil {
		t.Fatalf("SearchWithRelevanceScores() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2 (threshold is inclusive)", len(got))
	}
	if got[1].Score != 0.5 {
		t.Errorf("boundary document dropped, got %+v", got[1])
	}
}

func TestMMRSearch_EmptyFetch(t *testing.T) {
	backend := &mockBackend{}
	svc := newService(t, backend, &mockEmbedder{vec: []float32{1, 0}}, mode.Similarity)

	got, err := svc.MMRSearch(context.Background(), "query", 3, 0, 0.5, Options{})
	if err != nil {
		t.Fatalf("MMRSearch() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d documents, want 0", len(got))
	}
	// fetchK falls back to the default pool size.
	if backend.lastReq.Top != DefaultFetchK {
		t.Errorf("Top = %d, want %d", backend.lastReq.Top, DefaultFetchK)
	}
}

func TestMMRSearch_PrefersDiverseResults(t *testing.T) {
	withVec := func(id string, score float64, vec []any) db.Row {
		r := row(id, score, id)
		r["content_vector"] = vec
		return r
	}
	backend := &mockBackend{resp: &db.SearchResponse{
		Rows: []db.Row{
			withVec("a", 0.99, []any{1.0, 0.0}),
			withVec("b", 0.98, []any{0.9, 0.1}),
			withVec("c", 0.50, []any{0.0, 1.0}),
		},
	}}
	svc := newService(t, backend, &mockEmbedder{vec: []float32{1, 0}}, mode.Similarity)

	got, err := svc.MMRSearch(context.Background(), "query", 2, 3, 0.5, Options{})
	if err != nil {
		t.Fatalf("MMRSearch() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2", len(got))
	}
	if got[0].Document.Content() != "a" || got[1].Document.Content() != "c" {
		t.Errorf("selection = [%s %s], want [a c]",
			got[0].Document.Content(), got[1].Document.Content())
	}
}

func TestSearchMany_OrderPreserved(t *testing.T) {
	backend := &queryEchoBackend{}
	svc := newService(t, backend, &echoEmbedder{}, mode.Hybrid)

	queries := []string{"alpha", "beta", "gamma", "delta"}
	got, err := svc.SearchMany(context.Background(), queries, 1, Options{})
	if err != nil {
		t.Fatalf("SearchMany() error = %v", err)
	}
	if len(got) != len(queries) {
		t.Fatalf("got %d result sets, want %d", len(got), len(queries))
	}
	for i, q := range queries {
		if len(got[i]) != 1 || got[i][0].Document.Content() != q {
			t.Errorf("result %d = %+v, want content %q", i, got[i], q)
		}
	}
}

func TestSearchMany_FirstErrorWins(t *testing.T) {
	backend := &mockBackend{err: fmt.Errorf("index offline")}
	svc := newService(t, backend, &mockEmbedder{vec: []float32{1}}, mode.Similarity)

	_, err := svc.SearchMany(context.Background(), []string{"a", "b"}, 1, Options{})
	if err == nil {
		t.Fatal("SearchMany() error = nil, want backend error")
	}
}

// queryEchoBackend returns one row whose content is the lexical query,
// so result ordering is observable.
type queryEchoBackend struct{}

func (b *queryEchoBackend) Search(_ context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
	return &db.SearchResponse{
		Rows: []db.Row{row(req.Text, 1.0, req.Text)},
	}, nil
}

type echoEmbedder struct{}

func (e *echoEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}
