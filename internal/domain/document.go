package domain

// Document is a retrieved piece of content with its metadata.
// Immutable once returned by the result normalizer.
type Document struct {
	content  string
	metadata map[string]any
}

// NewDocument creates a document.
func NewDocument(content string, metadata map[string]any) Document {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Document{content: content, metadata: metadata}
}

// Content returns the primary text content.
func (d Document) Content() string { return d.content }

// Metadata returns the document metadata.
func (d Document) Metadata() map[string]any { return d.metadata }

// ScoredDocument pairs a document with its similarity score.
// RerankScore is populated only by semantic-hybrid search.
type ScoredDocument struct {
	Document    Document
	Score       float64
	RerankScore float64
}
