package semdex

import (
	"context"
	"fmt"
	"strings"
)

// thresholdSuffix marks composite search types that apply a relevance
// cutoff after the mode's search runs.
const thresholdSuffix = "_score_threshold"

// Retriever runs a fixed search strategy against a search store. The
// search type combines a mode with an optional score threshold:
// "similarity", "hybrid", "semantic_hybrid", each optionally suffixed
// with "_score_threshold".
type Retriever struct {
	store     *SearchStore
	mode      SearchMode
	threshold float64
	useCutoff bool
	k         int
	filter    string
}

// RetrieverConfig configures a Retriever.
type RetrieverConfig struct {
	// SearchType selects the strategy. Empty means "similarity".
	SearchType string
	// K is the number of documents to return. Zero means 4.
	K int
	// ScoreThreshold applies to the "_score_threshold" search types.
	ScoreThreshold float64
	// Filter is an optional backend filter expression.
	Filter string
}

// NewRetriever creates a retriever over store. The search type is
// validated up front.
func NewRetriever(store *SearchStore, cfg RetrieverConfig) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("semdex: search store is required: %w", ErrConfiguration)
	}

	searchType := cfg.SearchType
	if searchType == "" {
		searchType = string(ModeSimilarity)
	}
	base, useCutoff := strings.CutSuffix(searchType, thresholdSuffix)
	m := SearchMode(base)
	switch m {
	case ModeSimilarity, ModeHybrid, ModeSemanticHybrid:
	default:
		return nil, fmt.Errorf("semdex: search type %q: %w", cfg.SearchType, ErrInvalidSearchMode)
	}

	k := cfg.K
	if k <= 0 {
		k = 4
	}
	return &Retriever{
		store:     store,
		mode:      m,
		threshold: cfg.ScoreThreshold,
		useCutoff: useCutoff,
		k:         k,
		filter:    cfg.Filter,
	}, nil
}

// GetRelevantDocuments runs the configured strategy for query.
func (r *Retriever) GetRelevantDocuments(ctx context.Context, query string) ([]Document, error) {
	opts := &QueryOptions{Mode: r.mode, Filter: r.filter}

	if r.useCutoff {
		scored, err := r.store.SearchWithRelevanceScores(ctx, query, r.k, r.threshold, opts)
		if err != nil {
			return nil, err
		}
		docs := make([]Document, len(scored))
		for i, d := range scored {
			docs[i] = d.Document
		}
		return docs, nil
	}
	return r.store.Search(ctx, query, r.k, opts)
}
