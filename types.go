package semdex

import "context"

// SearchMode selects how a query is executed against the search service.
type SearchMode string

// Supported search modes.
const (
	ModeSimilarity     SearchMode = "similarity"
	ModeHybrid         SearchMode = "hybrid"
	ModeSemanticHybrid SearchMode = "semantic_hybrid"
)

// IndexKind selects the vector index structure of the document store.
type IndexKind string

// Supported index kinds.
const (
	IndexIVF     IndexKind = "vector-ivf"
	IndexHNSW    IndexKind = "vector-hnsw"
	IndexDiskANN IndexKind = "vector-diskann"
)

// Document is a retrieved piece of content with its metadata.
type Document struct {
	Content  string
	Metadata map[string]any
}

// ScoredDocument pairs a document with its similarity score.
// RerankScore is populated only by semantic-hybrid search.
type ScoredDocument struct {
	Document
	Score       float64
	RerankScore float64
}

// Generation is a single cached model output. Only "completion"
// generations are accepted by the semantic cache.
type Generation struct {
	Kind string // "completion" or "chat"
	Role string // chat only
	Text string
	Info map[string]any
}

// Completion builds a cacheable completion generation.
func Completion(text string) Generation {
	return Generation{Kind: "completion", Text: text}
}

// Embedding is the result of vectorizing one text.
type Embedding struct {
	Vector       []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text. Implementations wrapping providers with a
// native batch endpoint should also implement BatchEmbedder.
type Embedder interface {
	Embed(ctx context.Context, text string) (Embedding, error)
}

// BatchEmbedder vectorizes many texts in one provider call.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error)
}

// VectorQuery is the vectorized part of a search request.
type VectorQuery struct {
	Vector            []float32
	KNearestNeighbors int
	Fields            string
}

// SearchRequest is a fully built search-service query.
type SearchRequest struct {
	Text          string
	VectorQueries []VectorQuery
	Filter        string
	Top           int

	QueryType             string
	SemanticConfiguration string
	QueryCaption          string
	QueryAnswer           string
}

// Caption is an extractive caption attached to a result row.
type Caption struct {
	Text       string
	Highlights string
}

// Answer is an extractive answer keyed by document id.
type Answer struct {
	Key        string
	Text       string
	Highlights string
}

// SearchResponse carries raw result rows and extractive answers.
// Caption values inside rows are []Caption under "@search.captions".
type SearchResponse struct {
	Rows    []map[string]any
	Answers []Answer
}

// UploadResult reports the outcome for one document of an upload batch.
type UploadResult struct {
	Key       string
	Succeeded bool
	Status    int
	Reason    string
}

// SearchBackend executes queries and uploads against one index of a
// dedicated search service. Implementations own transport, retries,
// and authentication.
type SearchBackend interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	Upload(ctx context.Context, docs []map[string]any) ([]UploadResult, error)
	Delete(ctx context.Context, keys []string) (int, error)
}

// DocumentBackend executes aggregation pipelines and administrative
// commands against one collection of a document database.
type DocumentBackend interface {
	Aggregate(ctx context.Context, pipeline []map[string]any) ([]map[string]any, error)
	InsertMany(ctx context.Context, docs []map[string]any) ([]string, error)
	DeleteMany(ctx context.Context, filter map[string]any) error
	DeleteOne(ctx context.Context, id string) error
	RunCommand(ctx context.Context, cmd map[string]any) error
	ListIndexNames(ctx context.Context) ([]string, error)
	DropIndex(ctx context.Context, name string) error
	CollectionName() string
}
