package semdex

import (
	"time"

	"github.com/kailas-cloud/semdex/internal/config"
	"github.com/kailas-cloud/semdex/internal/domain/index"
	"github.com/kailas-cloud/semdex/internal/logger"
)

// FromConfigFile loads a YAML configuration, builds the embedder it
// describes, and returns the store options matching it. The options
// can be passed to any store or cache constructor.
func FromConfigFile(path string) ([]Option, Embedder, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return fromConfig(cfg)
}

// FromConfig parses a YAML configuration document. See FromConfigFile.
func FromConfig(data []byte) ([]Option, Embedder, error) {
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return fromConfig(cfg)
}

func fromConfig(cfg config.Config) ([]Option, Embedder, error) {
	opts := []Option{
		WithSearchMode(SearchMode(cfg.Search.Mode)),
		withIndexParams(cfg.IndexParams()),
	}
	if cfg.Search.SemanticConfiguration != "" {
		opts = append(opts, WithSemanticConfiguration(cfg.Search.SemanticConfiguration))
	}
	if cfg.Cache.ScoreThreshold > 0 {
		opts = append(opts, WithScoreThreshold(cfg.Cache.ScoreThreshold))
	}
	if cfg.Embedding.CacheTTLSec > 0 {
		opts = append(opts, WithEmbeddingCache(
			cfg.Redis.Addrs, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
		))
	}

	log, err := logger.NewLogger(config.GetEnv(), cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, WithLogger(log))

	embedder := NewOpenAIEmbedder(OpenAIEmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	return opts, embedder, nil
}

// withIndexParams replaces the whole index tuning block at once.
func withIndexParams(p index.Params) Option {
	return optionFunc(func(c *storeConfig) { c.params = p })
}
