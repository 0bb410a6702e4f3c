// Package config loads the library configuration from YAML with
// environment variable substitution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/index"
	"github.com/kailas-cloud/semdex/internal/domain/search/mode"
)

// Config holds the semdex configuration.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Redis     RedisConfig     `yaml:"redis"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	// CacheTTLSec enables the Redis embedding cache when positive.
	CacheTTLSec int `yaml:"cache_ttl_sec"`
}

// RedisConfig holds the embedding cache connection settings.
type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
}

// IndexConfig holds vector index tuning.
type IndexConfig struct {
	Kind           string  `yaml:"kind"` // vector-ivf, vector-hnsw, vector-diskann
	Similarity     string  `yaml:"similarity"`
	NumLists       int     `yaml:"num_lists"`
	M              int     `yaml:"m"`
	EFConstruction int     `yaml:"ef_construction"`
	EFSearch       int     `yaml:"ef_search"`
	MaxDegree      int     `yaml:"max_degree"`
	LBuild         int     `yaml:"l_build"`
	LSearch        int     `yaml:"l_search"`
	Compression    string  `yaml:"compression"`
	PQCompressed   int     `yaml:"pq_compressed_dims"`
	PQSampleSize   int     `yaml:"pq_sample_size"`
	Oversampling   float64 `yaml:"oversampling"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	Mode                  string `yaml:"mode"`
	SemanticConfiguration string `yaml:"semantic_configuration"`
}

// CacheConfig holds semantic cache settings.
type CacheConfig struct {
	ScoreThreshold float64 `yaml:"score_threshold"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, defaults, and validates a YAML config document.
// ${VAR} and ${VAR:-default} references are substituted first.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	defaults := index.Defaults()
	if c.Index.Kind == "" {
		c.Index.Kind = string(defaults.Kind)
	}
	if c.Index.Similarity == "" {
		c.Index.Similarity = string(defaults.Similarity)
	}
	if c.Index.NumLists <= 0 {
		c.Index.NumLists = defaults.NumLists
	}
	if c.Index.M <= 0 {
		c.Index.M = defaults.M
	}
	if c.Index.EFConstruction <= 0 {
		c.Index.EFConstruction = defaults.EFConstruction
	}
	if c.Index.EFSearch <= 0 {
		c.Index.EFSearch = defaults.EFSearch
	}
	if c.Index.MaxDegree <= 0 {
		c.Index.MaxDegree = defaults.MaxDegree
	}
	if c.Index.LBuild <= 0 {
		c.Index.LBuild = defaults.LBuild
	}
	if c.Index.Oversampling <= 0 {
		c.Index.Oversampling = defaults.Oversampling
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = defaults.Dimensions
	}
	if c.Search.Mode == "" {
		c.Search.Mode = string(mode.Similarity)
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required: %w", domain.ErrConfiguration)
	}
	if !mode.Mode(c.Search.Mode).IsValid() {
		return fmt.Errorf("search.mode %q: %w", c.Search.Mode, domain.ErrInvalidSearchMode)
	}
	if c.Embedding.CacheTTLSec > 0 && len(c.Redis.Addrs) == 0 {
		return fmt.Errorf("redis.addrs is required when the embedding cache is enabled: %w",
			domain.ErrConfiguration)
	}
	return c.IndexParams().Validate()
}

// IndexParams converts the index section into validated tuning params.
func (c *Config) IndexParams() index.Params {
	return index.Params{
		Kind:             index.Kind(c.Index.Kind),
		Dimensions:       c.Embedding.Dimensions,
		Similarity:       index.Similarity(c.Index.Similarity),
		NumLists:         c.Index.NumLists,
		M:                c.Index.M,
		EFConstruction:   c.Index.EFConstruction,
		EFSearch:         c.Index.EFSearch,
		MaxDegree:        c.Index.MaxDegree,
		LBuild:           c.Index.LBuild,
		LSearch:          c.Index.LSearch,
		Compression:      index.Compression(c.Index.Compression),
		PQCompressedDims: c.Index.PQCompressed,
		PQSampleSize:     c.Index.PQSampleSize,
		Oversampling:     c.Index.Oversampling,
	}
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
