package semdex

import (
	"context"
	"fmt"
	"sync"
)

// stubEmbedder returns a deterministic vector per text so tests can
// assert dimensions and call counts without a provider. A fixed vector
// overrides the derived one.
type stubEmbedder struct {
	mu     sync.Mutex
	dim    int
	vector []float32
	calls  int
	err    error
}

func (e *stubEmbedder) Embed(_ context.Context, text string) (Embedding, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return Embedding{}, e.err
	}
	if e.vector != nil {
		return Embedding{Vector: e.vector, PromptTokens: 1, TotalTokens: 2}, nil
	}
	v := make([]float32, e.dim)
	for i := range v {
		v[i] = float32(len(text)+i) / 10
	}
	return Embedding{Vector: v, PromptTokens: 1, TotalTokens: 2}, nil
}

// fakeSearchBackend records requests and replays a canned response.
type fakeSearchBackend struct {
	lastRequest *SearchRequest
	searches    int
	response    *SearchResponse
	searchErr   error

	uploaded [][]map[string]any
	deleted  []string
}

func (b *fakeSearchBackend) Search(_ context.Context, req *SearchRequest) (*SearchResponse, error) {
	b.searches++
	b.lastRequest = req
	if b.searchErr != nil {
		return nil, b.searchErr
	}
	if b.response == nil {
		return &SearchResponse{}, nil
	}
	return b.response, nil
}

func (b *fakeSearchBackend) Upload(_ context.Context, docs []map[string]any) ([]UploadResult, error) {
	b.uploaded = append(b.uploaded, docs)
	results := make([]UploadResult, len(docs))
	for i, doc := range docs {
		key, _ := doc["id"].(string)
		results[i] = UploadResult{Key: key, Succeeded: true, Status: 200}
	}
	return results, nil
}

func (b *fakeSearchBackend) Delete(_ context.Context, keys []string) (int, error) {
	b.deleted = append(b.deleted, keys...)
	return len(keys), nil
}

// searchRow builds a raw result row the way the search service returns
// one: score plus schema fields, metadata as a JSON string.
func searchRow(id, content, metadataJSON string, score float64) map[string]any {
	return map[string]any{
		"@search.score": score,
		"id":            id,
		"content":       content,
		"metadata":      metadataJSON,
	}
}

// fakeDocumentBackend is an in-memory document collection. Aggregate
// replays canned rows when set, otherwise it scores every inserted
// document at 0.9 in insertion order.
type fakeDocumentBackend struct {
	collection string
	indexes    []string
	commands   []map[string]any
	pipelines  [][]map[string]any
	inserted   []map[string]any
	deletedIDs []string
	cleared    []map[string]any

	rows      []map[string]any
	aggErr    error
	insertErr error
}

func (b *fakeDocumentBackend) Aggregate(_ context.Context, pipeline []map[string]any) ([]map[string]any, error) {
	b.pipelines = append(b.pipelines, pipeline)
	if b.aggErr != nil {
		return nil, b.aggErr
	}
	if b.rows != nil {
		return b.rows, nil
	}
	rows := make([]map[string]any, len(b.inserted))
	for i, doc := range b.inserted {
		rows[i] = map[string]any{
			"similarityScore": 0.9,
			"document":        doc,
		}
	}
	return rows, nil
}

func (b *fakeDocumentBackend) InsertMany(_ context.Context, docs []map[string]any) ([]string, error) {
	if b.insertErr != nil {
		return nil, b.insertErr
	}
	ids := make([]string, len(docs))
	for i, doc := range docs {
		b.inserted = append(b.inserted, doc)
		ids[i] = fmt.Sprintf("doc-%d", len(b.inserted))
	}
	return ids, nil
}

func (b *fakeDocumentBackend) DeleteMany(_ context.Context, filter map[string]any) error {
	b.cleared = append(b.cleared, filter)
	b.inserted = nil
	return nil
}

func (b *fakeDocumentBackend) DeleteOne(_ context.Context, id string) error {
	b.deletedIDs = append(b.deletedIDs, id)
	return nil
}

func (b *fakeDocumentBackend) RunCommand(_ context.Context, cmd map[string]any) error {
	b.commands = append(b.commands, cmd)
	if indexes, ok := cmd["indexes"].([]map[string]any); ok {
		for _, idx := range indexes {
			if name, ok := idx["name"].(string); ok {
				b.indexes = append(b.indexes, name)
			}
		}
	}
	return nil
}

func (b *fakeDocumentBackend) ListIndexNames(_ context.Context) ([]string, error) {
	return b.indexes, nil
}

func (b *fakeDocumentBackend) DropIndex(_ context.Context, name string) error {
	kept := b.indexes[:0]
	for _, n := range b.indexes {
		if n != name {
			kept = append(kept, n)
		}
	}
	b.indexes = kept
	return nil
}

func (b *fakeDocumentBackend) CollectionName() string {
	if b.collection == "" {
		return "docs"
	}
	return b.collection
}

// vectorOf extracts the vector of the first vector query for assertions.
func vectorOf(req *SearchRequest) []float32 {
	if req == nil || len(req.VectorQueries) == 0 {
		return nil
	}
	return req.VectorQueries[0].Vector
}
