// ABOUTME: Centralized configuration for the ragdoc pipeline
// ABOUTME: Defaults, an optional YAML file, then environment variables, with validation
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreQdrant = "qdrant"
	StoreSQLite = "sqlite"
	StoreCharm  = "charm"
	StoreMemory = "memory"
)

// Chunking strategies
const (
	StrategySemantic = "semantic"
	StrategyWindow   = "window"
)

// Config holds all configuration for ragdoc
type Config struct {
	// Vector store settings
	Store          string `yaml:"store"`
	Collection     string `yaml:"collection"`
	RetrievalLimit int    `yaml:"retrieval_limit"`
	QdrantURL      string `yaml:"qdrant_url"`
	QdrantAPIKey   string `yaml:"qdrant_api_key"`
	SQLitePath     string `yaml:"sqlite_path"`

	// Charm settings
	CharmHost   string `yaml:"charm_host"`
	CharmDBName string `yaml:"charm_db"`
	AutoSync    bool   `yaml:"auto_sync"`

	// Chunking settings
	ChunkStrategy       string  `yaml:"chunk_strategy"`
	ChunkSize           int     `yaml:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MinSentenceLength   int     `yaml:"min_sentence_length"`
	ChunkSeparator      string  `yaml:"chunk_separator"`
	EmbedConcurrency    int     `yaml:"embed_concurrency"`
	EmbedCacheSize      int     `yaml:"embed_cache_size"`

	// Model endpoint settings
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	OpenAIKey       string        `yaml:"openai_api_key"`
	EmbeddingModel  string        `yaml:"embedding_model"`
	QueryPrefix     string        `yaml:"query_prefix"`
	DocumentPrefix  string        `yaml:"document_prefix"`
	ChatModel       string        `yaml:"llm_model"`
	VectorDimension int           `yaml:"vector_dimension"`
	StreamResponse  bool          `yaml:"stream_response"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Store:               StoreQdrant,
		Collection:          "documents",
		RetrievalLimit:      7,
		QdrantURL:           "http://localhost:6333",
		SQLitePath:          "ragdoc.db",
		CharmHost:           "cloud.charm.sh",
		CharmDBName:         "ragdoc",
		AutoSync:            true,
		ChunkStrategy:       StrategySemantic,
		ChunkSize:           1024,
		ChunkOverlap:        100,
		SimilarityThreshold: 0.5,
		MinSentenceLength:   10,
		ChunkSeparator:      " ",
		EmbedConcurrency:    4,
		EmbedCacheSize:      1024,
		OpenAIBaseURL:       "http://localhost:11434/v1",
		EmbeddingModel:      "nomic-embed-text",
		QueryPrefix:         "search_query: ",
		DocumentPrefix:      "search_document: ",
		ChatModel:           "deepseek-r1:1.5b",
		VectorDimension:     768,
		Timeout:             30 * time.Second,
		MaxRetries:          3,
		RetryDelay:          2 * time.Second,
		LogLevel:            "info",
	}
}

// Load builds the configuration. path names an optional YAML file; when
// empty, RAGDOC_CONFIG is consulted. Environment variables win over the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("RAGDOC_CONFIG")
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// LoadFile overlays the YAML file at path onto c
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Save writes c to path as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Store = strings.ToLower(getEnv("RAGDOC_STORE", c.Store))
	c.Collection = getEnv("RAGDOC_COLLECTION", c.Collection)
	c.RetrievalLimit = getEnvInt("RAGDOC_RETRIEVAL_LIMIT", c.RetrievalLimit)
	c.QdrantURL = getEnv("QDRANT_URL", c.QdrantURL)
	c.QdrantAPIKey = getEnv("QDRANT_API_KEY", c.QdrantAPIKey)
	c.SQLitePath = getEnv("RAGDOC_SQLITE_PATH", c.SQLitePath)

	c.CharmHost = getEnv("CHARM_HOST", c.CharmHost)
	c.CharmDBName = getEnv("CHARM_DB", c.CharmDBName)
	c.AutoSync = getEnvBool("CHARM_AUTO_SYNC", c.AutoSync)

	c.ChunkStrategy = strings.ToLower(getEnv("RAGDOC_CHUNK_STRATEGY", c.ChunkStrategy))
	c.ChunkSize = getEnvInt("RAGDOC_CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = getEnvInt("RAGDOC_CHUNK_OVERLAP", c.ChunkOverlap)
	c.SimilarityThreshold = getEnvFloat("RAGDOC_SIMILARITY_THRESHOLD", c.SimilarityThreshold)
	c.MinSentenceLength = getEnvInt("RAGDOC_MIN_SENTENCE_LENGTH", c.MinSentenceLength)
	// An explicitly empty separator is meaningful
	if v, ok := os.LookupEnv("RAGDOC_CHUNK_SEPARATOR"); ok {
		c.ChunkSeparator = v
	}
	c.EmbedConcurrency = getEnvInt("RAGDOC_EMBED_CONCURRENCY", c.EmbedConcurrency)
	c.EmbedCacheSize = getEnvInt("RAGDOC_EMBED_CACHE_SIZE", c.EmbedCacheSize)

	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.EmbeddingModel = getEnv("RAGDOC_EMBEDDING_MODEL", c.EmbeddingModel)
	c.QueryPrefix = getEnv("RAGDOC_QUERY_PREFIX", c.QueryPrefix)
	c.DocumentPrefix = getEnv("RAGDOC_DOCUMENT_PREFIX", c.DocumentPrefix)
	c.ChatModel = getEnv("RAGDOC_LLM_MODEL", c.ChatModel)
	c.VectorDimension = getEnvInt("RAGDOC_VECTOR_DIMENSION", c.VectorDimension)
	c.StreamResponse = getEnvBool("RAGDOC_STREAM_RESPONSE", c.StreamResponse)
	c.Timeout = getEnvDuration("RAGDOC_TIMEOUT", c.Timeout)
	c.MaxRetries = getEnvInt("RAGDOC_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("RAGDOC_RETRY_DELAY", c.RetryDelay)

	c.LogLevel = getEnv("RAGDOC_LOG_LEVEL", c.LogLevel)
	c.LogJSON = getEnvBool("RAGDOC_LOG_JSON", c.LogJSON)
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	switch c.Store {
	case StoreQdrant, StoreSQLite, StoreCharm, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("RAGDOC_STORE must be one of qdrant, sqlite, charm, memory, got %q", c.Store))
	}
	if strings.TrimSpace(c.Collection) == "" {
		errs = append(errs, errors.New("RAGDOC_COLLECTION must not be empty"))
	} else if strings.ContainsAny(c.Collection, ":/") {
		errs = append(errs, fmt.Errorf("RAGDOC_COLLECTION must not contain ':' or '/', got %q", c.Collection))
	}
	if c.RetrievalLimit <= 0 {
		errs = append(errs, fmt.Errorf("RAGDOC_RETRIEVAL_LIMIT must be positive, got %d", c.RetrievalLimit))
	}
	if c.Store == StoreQdrant && c.QdrantURL == "" {
		errs = append(errs, errors.New("QDRANT_URL is required for the qdrant store"))
	}
	if c.Store == StoreSQLite && c.SQLitePath == "" {
		errs = append(errs, errors.New("RAGDOC_SQLITE_PATH is required for the sqlite store"))
	}

	switch c.ChunkStrategy {
	case StrategySemantic, StrategyWindow:
	default:
		errs = append(errs, fmt.Errorf("RAGDOC_CHUNK_STRATEGY must be semantic or window, got %q", c.ChunkStrategy))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("RAGDOC_CHUNK_SIZE must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkStrategy == StrategyWindow && (c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize) {
		errs = append(errs, fmt.Errorf("RAGDOC_CHUNK_OVERLAP must be within [0, %d), got %d", c.ChunkSize, c.ChunkOverlap))
	}
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("RAGDOC_SIMILARITY_THRESHOLD must be -1 to 1, got %f", c.SimilarityThreshold))
	}
	if c.MinSentenceLength < 0 {
		errs = append(errs, fmt.Errorf("RAGDOC_MIN_SENTENCE_LENGTH must not be negative, got %d", c.MinSentenceLength))
	}
	if c.EmbedConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("RAGDOC_EMBED_CONCURRENCY must be positive, got %d", c.EmbedConcurrency))
	}
	if c.EmbedCacheSize < 0 {
		errs = append(errs, fmt.Errorf("RAGDOC_EMBED_CACHE_SIZE must not be negative, got %d", c.EmbedCacheSize))
	}

	if c.OpenAIBaseURL == "" {
		errs = append(errs, errors.New("OPENAI_BASE_URL must not be empty"))
	}
	if c.VectorDimension <= 0 {
		errs = append(errs, fmt.Errorf("RAGDOC_VECTOR_DIMENSION must be positive, got %d", c.VectorDimension))
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		errs = append(errs, fmt.Errorf("RAGDOC_MAX_RETRIES must be 0-10, got %d", c.MaxRetries))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("RAGDOC_TIMEOUT must be positive, got %v", c.Timeout))
	}

	return errors.Join(errs...)
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
