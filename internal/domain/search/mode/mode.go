package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Similarity is vector-only nearest-neighbor search.
	Similarity Mode = "similarity"
	// Hybrid combines vector and lexical text search.
	Hybrid Mode = "hybrid"
	// SemanticHybrid adds backend re-ranking with extractive
	// captions and answers on top of hybrid search.
	SemanticHybrid Mode = "semantic_hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Similarity || m == Hybrid || m == SemanticHybrid
}
