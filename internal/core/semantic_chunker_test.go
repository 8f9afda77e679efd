// ABOUTME: Tests for the semantic chunker pipeline
// ABOUTME: Uses a topic-keyed fake embedder to exercise clustering, errors, and progress reporting
package core

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/harper/ragdoc/internal/models"
)

// topicEmbedder maps sentences to one-hot vectors by keyword
type topicEmbedder struct {
	topics []string
	failOn string
	calls  atomic.Int32
	modes  sync.Map
}

var errEmbedFailed = errors.New("embedding service unavailable")

func (e *topicEmbedder) Embed(_ context.Context, text string, mode models.EmbedMode) (models.Vector, error) {
	e.calls.Add(1)
	e.modes.Store(mode, true)
	if e.failOn != "" && strings.Contains(strings.ToLower(text), e.failOn) {
		return nil, errEmbedFailed
	}
	v := make(models.Vector, len(e.topics))
	lower := strings.ToLower(text)
	for i, topic := range e.topics {
		if strings.Contains(lower, topic) {
			v[i] = 1
		}
	}
	return v, nil
}

const twoTopicText = `Cats are small domesticated carnivorous mammals.
A rocket engine burns propellant to produce thrust.
Many cats enjoy sleeping in warm sunny places.
Rockets carry satellites into orbit.`

func topicOf(text string) string {
	if strings.Contains(strings.ToLower(text), "cat") {
		return "cat"
	}
	return "rocket"
}

func TestSemanticChunker_ClustersByTopic(t *testing.T) {
	emb := &topicEmbedder{topics: []string{"cat", "rocket"}}
	c, err := NewSemanticChunker(emb, DefaultSemanticConfig())
	if err != nil {
		t.Fatalf("NewSemanticChunker() error = %v", err)
	}

	chunks, err := c.ChunkDetailed(context.Background(), twoTopicText)
	if err != nil {
		t.Fatalf("ChunkDetailed() error = %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.Sentences) != 2 {
			t.Errorf("chunk %d has %d sentences, want 2", i, len(ch.Sentences))
		}
		topic := topicOf(ch.Seed().Text)
		for _, s := range ch.Sentences {
			if topicOf(s.Text) != topic {
				t.Errorf("chunk %d mixes topics: %q with seed %q", i, s.Text, ch.Seed().Text)
			}
		}
	}

	if got := emb.calls.Load(); got != 4 {
		t.Errorf("embedder called %d times, want 4", got)
	}
	if _, ok := emb.modes.Load(models.ModeQuery); ok {
		t.Error("sentences were embedded in query mode")
	}
}

func TestSemanticChunker_ChunkStrings(t *testing.T) {
	emb := &topicEmbedder{topics: []string{"cat", "rocket"}}
	c, err := NewSemanticChunker(emb, DefaultSemanticConfig())
	if err != nil {
		t.Fatalf("NewSemanticChunker() error = %v", err)
	}

	out, err := c.Chunk(context.Background(), twoTopicText)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d chunk strings, want 2", len(out))
	}
	// The longest sentence seeds the first chunk
	if !strings.HasPrefix(out[0], "A rocket engine burns propellant to produce thrust.") {
		t.Errorf("chunk 0 = %q, want it to start with the longest sentence", out[0])
	}
}

func TestSemanticChunker_SizeBudgetSplitsTopic(t *testing.T) {
	emb := &topicEmbedder{topics: []string{"cat", "rocket"}}
	cfg := DefaultSemanticConfig()
	cfg.MaxChunkSize = 60

	c, err := NewSemanticChunker(emb, cfg)
	if err != nil {
		t.Fatalf("NewSemanticChunker() error = %v", err)
	}
	chunks, err := c.ChunkDetailed(context.Background(), twoTopicText)
	if err != nil {
		t.Fatalf("ChunkDetailed() error = %v", err)
	}
	if len(chunks) != 4 {
		t.Errorf("got %d chunks, want 4 when no pair fits the budget", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.Sentences) > 1 && ch.Size > cfg.MaxChunkSize {
			t.Errorf("chunk %d size %d exceeds %d", i, ch.Size, cfg.MaxChunkSize)
		}
	}
}

func TestSemanticChunker_ProviderErrorAborts(t *testing.T) {
	emb := &topicEmbedder{topics: []string{"cat", "rocket"}, failOn: "orbit"}
	c, err := NewSemanticChunker(emb, DefaultSemanticConfig())
	if err != nil {
		t.Fatalf("NewSemanticChunker() error = %v", err)
	}

	chunks, err := c.Chunk(context.Background(), twoTopicText)
	if err == nil {
		t.Fatal("Chunk() error = nil, want provider error")
	}
	if chunks != nil {
		t.Errorf("Chunk() returned %d chunks alongside an error", len(chunks))
	}

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error %v is not a *ProviderError", err)
	}
	if !strings.Contains(perr.Text, "orbit") {
		t.Errorf("ProviderError.Text = %q, want the failing sentence", perr.Text)
	}
	if !errors.Is(err, errEmbedFailed) {
		t.Errorf("error does not wrap the embedder's cause")
	}
}

type ragged struct{}

func (ragged) Embed(_ context.Context, text string, _ models.EmbedMode) (models.Vector, error) {
	if strings.Contains(text, "rocket") {
		return models.Vector{1, 0, 0}, nil
	}
	return models.Vector{1, 0}, nil
}

func TestSemanticChunker_DimensionMismatch(t *testing.T) {
	cfg := DefaultSemanticConfig()
	cfg.Concurrency = 1
	c, err := NewSemanticChunker(ragged{}, cfg)
	if err != nil {
		t.Fatalf("NewSemanticChunker() error = %v", err)
	}
	_, err = c.Chunk(context.Background(), twoTopicText)
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Chunk() error = %v, want *ProviderError", err)
	}
}

func TestSemanticChunker_EmptyInput(t *testing.T) {
	emb := &topicEmbedder{topics: []string{"cat"}}
	c, err := NewSemanticChunker(emb, DefaultSemanticConfig())
	if err != nil {
		t.Fatalf("NewSemanticChunker() error = %v", err)
	}

	for _, text := range []string{"", "   ", "Hi. Ok. Yes."} {
		out, err := c.Chunk(context.Background(), text)
		if err != nil {
			t.Errorf("Chunk(%q) error = %v", text, err)
		}
		if len(out) != 0 {
			t.Errorf("Chunk(%q) = %v, want empty", text, out)
		}
	}
	if got := emb.calls.Load(); got != 0 {
		t.Errorf("embedder called %d times for empty input", got)
	}
}

func TestSemanticChunker_ConcurrencyDoesNotChangeResult(t *testing.T) {
	var results [][]string
	for _, n := range []int{1, 2, 8} {
		cfg := DefaultSemanticConfig()
		cfg.Concurrency = n
		c, err := NewSemanticChunker(&topicEmbedder{topics: []string{"cat", "rocket"}}, cfg)
		if err != nil {
			t.Fatalf("NewSemanticChunker() error = %v", err)
		}
		out, err := c.Chunk(context.Background(), twoTopicText)
		if err != nil {
			t.Fatalf("Chunk() with concurrency %d error = %v", n, err)
		}
		results = append(results, out)
	}
	for i := 1; i < len(results); i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Errorf("result %d differs from sequential result", i)
		}
	}
}

func TestSemanticChunker_ReportsProgress(t *testing.T) {
	var (
		mu     sync.Mutex
		last   = make(map[models.Phase]float64)
		phases []models.Phase
	)
	obs := ObserverFunc(func(fraction float64, phase models.Phase) {
		mu.Lock()
		defer mu.Unlock()
		if len(phases) == 0 || phases[len(phases)-1] != phase {
			phases = append(phases, phase)
		}
		last[phase] = fraction
	})

	c, err := NewSemanticChunker(&topicEmbedder{topics: []string{"cat", "rocket"}}, DefaultSemanticConfig(), WithObserver(obs))
	if err != nil {
		t.Fatalf("NewSemanticChunker() error = %v", err)
	}
	if _, err := c.Chunk(context.Background(), twoTopicText); err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}

	want := []models.Phase{models.PhaseSegment, models.PhaseEmbed, models.PhaseSimilarity, models.PhaseAssemble, models.PhaseEmit}
	if !reflect.DeepEqual(phases, want) {
		t.Errorf("phases = %v, want %v", phases, want)
	}
	for _, p := range want {
		if last[p] != 1 {
			t.Errorf("phase %s ended at %v, want 1", p, last[p])
		}
	}
}

func TestNewSemanticChunker_InvalidConfig(t *testing.T) {
	emb := &topicEmbedder{}
	mutate := []func(*SemanticConfig){
		func(c *SemanticConfig) { c.MaxChunkSize = 0 },
		func(c *SemanticConfig) { c.SimilarityThreshold = 2 },
		func(c *SemanticConfig) { c.MinSentenceLength = -3 },
		func(c *SemanticConfig) { c.Concurrency = 0 },
	}
	for i, m := range mutate {
		cfg := DefaultSemanticConfig()
		m(&cfg)
		if _, err := NewSemanticChunker(emb, cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("case %d: error = %v, want ErrInvalidConfig", i, err)
		}
	}
	if _, err := NewSemanticChunker(nil, DefaultSemanticConfig()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil embedder error = %v, want ErrInvalidConfig", err)
	}
}
