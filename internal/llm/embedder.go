// ABOUTME: Embedding client for OpenAI-compatible endpoints with mode prefixes and an LRU cache
// ABOUTME: Implements core.Embedder; query and document texts get distinct instruction prefixes
package llm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/util"
)

const (
	// DefaultEmbeddingModel is served by Ollama and produces 768-dimensional vectors
	DefaultEmbeddingModel = "nomic-embed-text"
	// DefaultQueryPrefix is prepended to texts embedded in query mode
	DefaultQueryPrefix = "search_query: "
	// DefaultDocumentPrefix is prepended to texts embedded in document mode
	DefaultDocumentPrefix = "search_document: "
)

// EmbeddingConfig configures an EmbeddingClient
type EmbeddingConfig struct {
	ClientConfig
	Model          string
	QueryPrefix    string
	DocumentPrefix string
	// Dimension, when positive, is enforced on every returned vector
	Dimension int
	// CacheSize bounds the number of cached vectors; 0 disables caching
	CacheSize int
}

// DefaultEmbeddingConfig returns settings for nomic-embed-text on local Ollama
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		ClientConfig:   DefaultClientConfig(),
		Model:          DefaultEmbeddingModel,
		QueryPrefix:    DefaultQueryPrefix,
		DocumentPrefix: DefaultDocumentPrefix,
		Dimension:      768,
		CacheSize:      1024,
	}
}

// EmbeddingClient turns text into vectors via the embeddings endpoint
type EmbeddingClient struct {
	client *openai.Client
	cfg    EmbeddingConfig
	cache  *lru.Cache[string, models.Vector]
	calls  atomic.Int64
}

// NewEmbeddingClient creates an embedding client
func NewEmbeddingClient(cfg EmbeddingConfig) (*EmbeddingClient, error) {
	if cfg.Model == "" {
		return nil, errors.New("embedding model is required")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative, got %d", cfg.MaxRetries)
	}

	c := &EmbeddingClient{
		client: newOpenAIClient(cfg.ClientConfig),
		cfg:    cfg,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, models.Vector](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating embedding cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Model returns the embedding model name
func (c *EmbeddingClient) Model() string {
	return c.cfg.Model
}

// Calls returns how many embedding requests reached the server
func (c *EmbeddingClient) Calls() int64 {
	return c.calls.Load()
}

// Embed returns the vector for text in the given mode. Safe for concurrent use.
func (c *EmbeddingClient) Embed(ctx context.Context, text string, mode models.EmbedMode) (models.Vector, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid embed mode %q", mode)
	}
	input := c.prefix(mode) + text

	if c.cache != nil {
		if v, ok := c.cache.Get(input); ok {
			return cloneVector(v), nil
		}
	}

	var vector models.Vector
	err := util.Retry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, func(ctx context.Context) error {
		v, err := c.request(ctx, input)
		if err != nil {
			return err
		}
		vector = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding after %d attempts: %w", c.cfg.MaxRetries+1, err)
	}

	if c.cfg.Dimension > 0 {
		if err := vector.ValidateDimension(c.cfg.Dimension); err != nil {
			return nil, err
		}
	}

	if c.cache != nil {
		c.cache.Add(input, cloneVector(vector))
	}
	return vector, nil
}

func (c *EmbeddingClient) request(ctx context.Context, input string) (models.Vector, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	c.calls.Add(1)
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{input},
		Model: openai.EmbeddingModel(c.cfg.Model),
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embeddings returned")
	}

	// Convert []float32 to []float64
	embedding32 := resp.Data[0].Embedding
	embedding64 := make(models.Vector, len(embedding32))
	for i, v := range embedding32 {
		embedding64[i] = float64(v)
	}
	return embedding64, nil
}

func (c *EmbeddingClient) prefix(mode models.EmbedMode) string {
	if mode == models.ModeQuery {
		return c.cfg.QueryPrefix
	}
	return c.cfg.DocumentPrefix
}

func cloneVector(v models.Vector) models.Vector {
	out := make(models.Vector, len(v))
	copy(out, v)
	return out
}
