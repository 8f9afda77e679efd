// ABOUTME: SemanticChunker clusters sentences by embedding similarity into size-bounded chunks
// ABOUTME: Runs segment → embed → similarity matrix → greedy assembly → emit for one document
package core

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/harper/ragdoc/internal/logger"
	"github.com/harper/ragdoc/internal/models"
)

// DefaultMaxChunkSize is the chunk size budget in characters
const DefaultMaxChunkSize = 1024

// SemanticConfig holds the tunables of semantic chunking
type SemanticConfig struct {
	MaxChunkSize        int
	SimilarityThreshold float64
	MinSentenceLength   int
	Separator           string
	// Concurrency bounds parallel embedding calls; 1 embeds sequentially
	Concurrency int
}

// DefaultSemanticConfig returns the documented defaults
func DefaultSemanticConfig() SemanticConfig {
	return SemanticConfig{
		MaxChunkSize:        DefaultMaxChunkSize,
		SimilarityThreshold: DefaultSimilarityThreshold,
		MinSentenceLength:   DefaultMinSentenceLength,
		Separator:           DefaultSeparator,
		Concurrency:         4,
	}
}

// Validate rejects settings the assembler cannot honour
func (c SemanticConfig) Validate() error {
	if c.MaxChunkSize <= 0 {
		return invalidConfig("max chunk size must be positive, got %d", c.MaxChunkSize)
	}
	if math.IsNaN(c.SimilarityThreshold) || c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		return invalidConfig("similarity threshold must be within [-1, 1], got %v", c.SimilarityThreshold)
	}
	if c.MinSentenceLength < 0 {
		return invalidConfig("min sentence length must not be negative, got %d", c.MinSentenceLength)
	}
	if c.Concurrency <= 0 {
		return invalidConfig("embedding concurrency must be positive, got %d", c.Concurrency)
	}
	return nil
}

// SemanticChunker implements Chunker using sentence-similarity clustering
type SemanticChunker struct {
	embedder  Embedder
	segmenter *SentenceSegmenter
	cfg       SemanticConfig
	observer  ProgressObserver
	log       logger.Logger
}

// SemanticOption customizes a SemanticChunker
type SemanticOption func(*SemanticChunker)

// WithObserver reports progress to o
func WithObserver(o ProgressObserver) SemanticOption {
	return func(c *SemanticChunker) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the chunker's logger
func WithLogger(l logger.Logger) SemanticOption {
	return func(c *SemanticChunker) {
		if l != nil {
			c.log = l
		}
	}
}

// NewSemanticChunker validates cfg eagerly and loads the sentence tokenizer
func NewSemanticChunker(embedder Embedder, cfg SemanticConfig, opts ...SemanticOption) (*SemanticChunker, error) {
	if embedder == nil {
		return nil, invalidConfig("embedder is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	segmenter, err := NewSentenceSegmenter(cfg.MinSentenceLength)
	if err != nil {
		return nil, err
	}
	c := &SemanticChunker{
		embedder:  embedder,
		segmenter: segmenter,
		cfg:       cfg,
		observer:  NopObserver(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the chunker's settings
func (c *SemanticChunker) Config() SemanticConfig {
	return c.cfg
}

// Chunk returns chunk strings for text. Text with no surviving sentences
// yields an empty result and no error. Any embedding failure aborts the
// whole call with a *ProviderError and no chunks.
func (c *SemanticChunker) Chunk(ctx context.Context, text string) ([]string, error) {
	chunks, err := c.ChunkDetailed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.observer.OnProgress(0, models.PhaseEmit)
	out := EmitChunks(chunks, c.cfg.Separator)
	c.observer.OnProgress(1, models.PhaseEmit)
	return out, nil
}

// ChunkDetailed is Chunk without the final rendering step
func (c *SemanticChunker) ChunkDetailed(ctx context.Context, text string) ([]models.Chunk, error) {
	c.observer.OnProgress(0, models.PhaseSegment)
	sentences := c.segmenter.Segment(text)
	c.observer.OnProgress(1, models.PhaseSegment)
	c.log.Debug("segmented document", "sentences", len(sentences), "min_length", c.segmenter.MinLength())

	if len(sentences) == 0 {
		return nil, nil
	}

	vectors, err := c.embedSentences(ctx, sentences)
	if err != nil {
		return nil, err
	}

	c.observer.OnProgress(0, models.PhaseSimilarity)
	matrix := BuildSimilarityMatrix(vectors)
	c.observer.OnProgress(1, models.PhaseSimilarity)

	c.observer.OnProgress(0, models.PhaseAssemble)
	chunks, err := AssembleChunks(sentences, matrix, c.cfg.MaxChunkSize, c.cfg.SimilarityThreshold)
	if err != nil {
		return nil, err
	}
	c.observer.OnProgress(1, models.PhaseAssemble)

	for i, ch := range chunks {
		c.log.Debug("assembled chunk",
			"chunk", i,
			"seed", ch.Seed().Index,
			"sentences", len(ch.Sentences),
			"size", fmt.Sprintf("%d/%d", ch.Size, c.cfg.MaxChunkSize))
	}
	c.log.Debug("semantic chunking complete", "sentences", len(sentences), "chunks", len(chunks))

	return chunks, nil
}

// embedSentences embeds every sentence in document mode. Results are
// collected by index; the first failure cancels the rest.
func (c *SemanticChunker) embedSentences(ctx context.Context, sentences []models.Sentence) ([]models.Vector, error) {
	vectors := make([]models.Vector, len(sentences))

	var (
		mu   sync.Mutex
		done int
	)
	total := float64(len(sentences))
	c.observer.OnProgress(0, models.PhaseEmbed)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i := range sentences {
		s := sentences[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := c.embedder.Embed(gctx, s.Text, models.ModeDocument)
			if err != nil {
				return &ProviderError{Index: s.Index, Text: s.Text, Err: err}
			}
			vectors[s.Index] = v

			mu.Lock()
			done++
			c.observer.OnProgress(float64(done)/total, models.PhaseEmbed)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, &ProviderError{
				Index: i,
				Text:  sentences[i].Text,
				Err:   fmt.Errorf("embedding dimension %d differs from %d", len(v), dim),
			}
		}
	}
	return vectors, nil
}
