package searchreq

import (
	"testing"

	"github.com/kailas-cloud/semdex/internal/domain/search/request"
)

func mustRequest(t *testing.T) *request.Request {
	t.Helper()
	req, err := request.New([]float32{0.1, 0.2, 0.3}, 5, "what is kubernetes", "category eq 'docs'", 0, false)
	if err != nil {
		t.Fatalf("request.New() error = %v", err)
	}
	return &req
}

func TestVector(t *testing.T) {
	b := NewBuilder(DefaultFields(), "default")
	got := b.Vector(mustRequest(t))

	if got.Text != "" {
		t.Errorf("vector query carries text %q", got.Text)
	}
	if got.QueryType != "" {
		t.Errorf("vector query carries queryType %q", got.QueryType)
	}
	if got.Top != 5 {
		t.Errorf("Top = %d, want 5", got.Top)
	}
	if got.Filter != "category eq 'docs'" {
		t.Errorf("Filter = %q", got.Filter)
	}
	if len(got.VectorQueries) != 1 {
		t.Fatalf("VectorQueries = %d, want 1", len(got.VectorQueries))
	}
	vq := got.VectorQueries[0]
	if vq.KNearestNeighbors != 5 || vq.Fields != "content_vector" || len(vq.Vector) != 3 {
		t.Errorf("vector query = %+v", vq)
	}
}

func TestHybrid(t *testing.T) {
	b := NewBuilder(DefaultFields(), "default")
	got := b.Hybrid(mustRequest(t))

	if got.Text != "what is kubernetes" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.QueryType != "" {
		t.Errorf("hybrid query carries queryType %q", got.QueryType)
	}
	if len(got.VectorQueries) != 1 {
		t.Fatalf("VectorQueries = %d, want 1", len(got.VectorQueries))
	}
}

func TestSemanticHybrid(t *testing.T) {
	b := NewBuilder(DefaultFields(), "articles-semantic")
	got := b.SemanticHybrid(mustRequest(t))

	if got.Text != "what is kubernetes" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.QueryType != "semantic" {
		t.Errorf("QueryType = %q, want semantic", got.QueryType)
	}
	if got.SemanticConfiguration != "articles-semantic" {
		t.Errorf("SemanticConfiguration = %q", got.SemanticConfiguration)
	}
	if got.QueryCaption != "extractive" || got.QueryAnswer != "extractive" {
		t.Errorf("captions/answers = %q/%q, want extractive", got.QueryCaption, got.QueryAnswer)
	}
	if len(got.VectorQueries) != 1 {
		t.Fatalf("VectorQueries = %d, want 1", len(got.VectorQueries))
	}
}

func TestCustomVectorField(t *testing.T) {
	fields := DefaultFields()
	fields.ContentVector = "embedding"
	b := NewBuilder(fields, "default")

	got := b.Vector(mustRequest(t))
	if got.VectorQueries[0].Fields != "embedding" {
		t.Errorf("Fields = %q, want embedding", got.VectorQueries[0].Fields)
	}
}
