// ABOUTME: Wires configuration into the embedding client, chunker, store, ingestion, and retrieval
// ABOUTME: Shared by the CLI, the MCP server, and the benchmark runner
package app

import (
	"context"
	"fmt"

	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/core"
	"github.com/harper/ragdoc/internal/ingest"
	"github.com/harper/ragdoc/internal/llm"
	"github.com/harper/ragdoc/internal/logger"
	"github.com/harper/ragdoc/internal/retrieve"
	"github.com/harper/ragdoc/internal/storage"
)

// App holds the assembled pipeline
type App struct {
	Config    *config.Config
	Log       logger.Logger
	Embedder  *llm.EmbeddingClient
	Chat      *llm.ChatClient
	Chunker   core.Chunker
	Store     storage.VectorStore
	Pipeline  *ingest.Pipeline
	Retriever *retrieve.Retriever
}

// Option customizes New
type Option func(*options)

type options struct {
	observer core.ProgressObserver
	store    storage.VectorStore
	embedder core.Embedder
}

// WithObserver receives chunking and ingestion progress
func WithObserver(o core.ProgressObserver) Option {
	return func(opts *options) { opts.observer = o }
}

// WithStore uses s instead of opening the configured backend
func WithStore(s storage.VectorStore) Option {
	return func(opts *options) { opts.store = s }
}

// WithEmbedder uses e instead of the configured embedding endpoint
func WithEmbedder(e core.Embedder) Option {
	return func(opts *options) { opts.embedder = e }
}

func clientConfig(cfg *config.Config) llm.ClientConfig {
	return llm.ClientConfig{
		BaseURL:    cfg.OpenAIBaseURL,
		APIKey:     cfg.OpenAIKey,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}
}

// NewEmbeddingClient builds the configured embedding client
func NewEmbeddingClient(cfg *config.Config) (*llm.EmbeddingClient, error) {
	return llm.NewEmbeddingClient(llm.EmbeddingConfig{
		ClientConfig:   clientConfig(cfg),
		Model:          cfg.EmbeddingModel,
		QueryPrefix:    cfg.QueryPrefix,
		DocumentPrefix: cfg.DocumentPrefix,
		Dimension:      cfg.VectorDimension,
		CacheSize:      cfg.EmbedCacheSize,
	})
}

// NewChatClient builds the configured chat client
func NewChatClient(cfg *config.Config) (*llm.ChatClient, error) {
	chatCfg := llm.DefaultChatConfig()
	chatCfg.ClientConfig = clientConfig(cfg)
	chatCfg.Model = cfg.ChatModel
	chatCfg.Stream = cfg.StreamResponse
	return llm.NewChatClient(chatCfg)
}

// NewChunker builds the configured chunking strategy
func NewChunker(cfg *config.Config, embedder core.Embedder, observer core.ProgressObserver, log logger.Logger) (core.Chunker, error) {
	switch core.Strategy(cfg.ChunkStrategy) {
	case core.StrategyWindow:
		return core.NewWindowChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	case core.StrategySemantic:
		return core.NewSemanticChunker(embedder, core.SemanticConfig{
			MaxChunkSize:        cfg.ChunkSize,
			SimilarityThreshold: cfg.SimilarityThreshold,
			MinSentenceLength:   cfg.MinSentenceLength,
			Separator:           cfg.ChunkSeparator,
			Concurrency:         cfg.EmbedConcurrency,
		}, core.WithObserver(observer), core.WithLogger(log.With("component", "chunker")))
	default:
		return nil, fmt.Errorf("unknown chunk strategy %q", cfg.ChunkStrategy)
	}
}

// New assembles the whole pipeline from cfg
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.Nop()
	}

	a := &App{Config: cfg, Log: log}

	embedder := o.embedder
	if embedder == nil {
		client, err := NewEmbeddingClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating embedding client: %w", err)
		}
		a.Embedder = client
		embedder = client
	}

	chat, err := NewChatClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating chat client: %w", err)
	}
	a.Chat = chat

	chunker, err := NewChunker(cfg, embedder, o.observer, log)
	if err != nil {
		return nil, err
	}
	a.Chunker = chunker

	store := o.store
	if store == nil {
		store, err = storage.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", cfg.Store, err)
		}
	}
	a.Store = store

	a.Pipeline, err = ingest.New(chunker, embedder, store, ingest.Config{
		Dimension:   cfg.VectorDimension,
		Concurrency: cfg.EmbedConcurrency,
	}, ingest.WithObserver(o.observer), ingest.WithLogger(log.With("component", "ingest")))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a.Retriever = retrieve.New(embedder, store, chat, cfg.RetrievalLimit, log.With("component", "retrieve"))
	return a, nil
}

// Close releases the vector store
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
