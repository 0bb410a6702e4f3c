package semdex

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semdex/internal/domain/index"
	"github.com/kailas-cloud/semdex/internal/repository/searchreq"
)

// Option configures a store or cache.
type Option interface {
	apply(*storeConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*storeConfig)

func (f optionFunc) apply(c *storeConfig) { f(c) }

type storeConfig struct {
	// search-service store
	fields                searchreq.Fields
	semanticConfiguration string
	mode                  SearchMode

	// document store
	indexName    string
	textKey      string
	embeddingKey string
	params       index.Params

	// semantic cache
	scoreThreshold float64

	// embedding cache
	embCacheAddrs    []string
	embCacheUsername string
	embCachePassword string
	embCacheDB       int
	embCacheTTL      time.Duration

	logger *zap.Logger
}

func defaultStoreConfig() *storeConfig {
	return &storeConfig{
		fields:                searchreq.DefaultFields(),
		semanticConfiguration: "default",
		mode:                  ModeSimilarity,
		indexName:             "vector_index",
		textKey:               "textContent",
		embeddingKey:          "vectorContent",
		params:                index.Defaults(),
	}
}

// WithSearchMode sets the default search mode. Individual queries may
// still override it.
func WithSearchMode(m SearchMode) Option {
	return optionFunc(func(c *storeConfig) { c.mode = m })
}

// WithFields overrides the index schema field names of the
// search-service store. Empty names keep their defaults.
func WithFields(id, content, contentVector, metadata string) Option {
	return optionFunc(func(c *storeConfig) {
		if id != "" {
			c.fields.ID = id
		}
		if content != "" {
			c.fields.Content = content
		}
		if contentVector != "" {
			c.fields.ContentVector = contentVector
		}
		if metadata != "" {
			c.fields.Metadata = metadata
		}
	})
}

// WithSemanticConfiguration names the semantic ranking configuration
// used by semantic-hybrid queries. Default: "default".
func WithSemanticConfiguration(name string) Option {
	return optionFunc(func(c *storeConfig) { c.semanticConfiguration = name })
}

// WithIndexName sets the document-store vector index name.
// Default: "vector_index".
func WithIndexName(name string) Option {
	return optionFunc(func(c *storeConfig) { c.indexName = name })
}

// WithKeys sets the document-store field names for text and embedding.
// Defaults: "textContent", "vectorContent".
func WithKeys(textKey, embeddingKey string) Option {
	return optionFunc(func(c *storeConfig) {
		if textKey != "" {
			c.textKey = textKey
		}
		if embeddingKey != "" {
			c.embeddingKey = embeddingKey
		}
	})
}

// WithIVF configures an IVF vector index.
func WithIVF(dimensions, numLists int) Option {
	return optionFunc(func(c *storeConfig) {
		c.params.Kind = index.IVF
		c.params.Dimensions = dimensions
		c.params.NumLists = numLists
	})
}

// WithHNSW configures an HNSW vector index.
func WithHNSW(dimensions, m, efConstruction, efSearch int) Option {
	return optionFunc(func(c *storeConfig) {
		c.params.Kind = index.HNSW
		c.params.Dimensions = dimensions
		c.params.M = m
		c.params.EFConstruction = efConstruction
		c.params.EFSearch = efSearch
	})
}

// WithDiskANN configures a DiskANN vector index. lSearch 0 keeps the
// service default of 40.
func WithDiskANN(dimensions, maxDegree, lBuild, lSearch int) Option {
	return optionFunc(func(c *storeConfig) {
		c.params.Kind = index.DiskANN
		c.params.Dimensions = dimensions
		c.params.MaxDegree = maxDegree
		c.params.LBuild = lBuild
		c.params.LSearch = lSearch
	})
}

// WithCompression enables vector compression: "half" for IVF and HNSW,
// "pq" for DiskANN. pqCompressedDims and pqSampleSize apply to "pq"
// only and may be zero for service defaults.
func WithCompression(scheme string, pqCompressedDims, pqSampleSize int, oversampling float64) Option {
	return optionFunc(func(c *storeConfig) {
		c.params.Compression = index.Compression(scheme)
		c.params.PQCompressedDims = pqCompressedDims
		c.params.PQSampleSize = pqSampleSize
		if oversampling > 0 {
			c.params.Oversampling = oversampling
		}
	})
}

// WithScoreThreshold sets the semantic cache similarity threshold for
// lookup hits. Default: 0.2.
func WithScoreThreshold(threshold float64) Option {
	return optionFunc(func(c *storeConfig) { c.scoreThreshold = threshold })
}

// WithEmbeddingCache caches embeddings in Redis with the given TTL so
// repeated texts skip the provider.
func WithEmbeddingCache(addrs []string, username, password string, db int, ttl time.Duration) Option {
	return optionFunc(func(c *storeConfig) {
		c.embCacheAddrs = addrs
		c.embCacheUsername = username
		c.embCachePassword = password
		c.embCacheDB = db
		c.embCacheTTL = ttl
	})
}

// WithLogger attaches a zap logger to store operations.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *storeConfig) { c.logger = l })
}
