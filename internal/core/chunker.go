// ABOUTME: Chunker and Embedder contracts consumed by ingestion
// ABOUTME: Strategy names select between semantic and fixed-window chunking
package core

import (
	"context"

	"github.com/harper/ragdoc/internal/models"
)

// Embedder maps text to a fixed-dimension vector
type Embedder interface {
	Embed(ctx context.Context, text string, mode models.EmbedMode) (models.Vector, error)
}

// Chunker turns a document's text into ordered chunk strings
type Chunker interface {
	Chunk(ctx context.Context, text string) ([]string, error)
}

// Strategy names a chunking strategy
type Strategy string

const (
	StrategySemantic Strategy = "semantic"
	StrategyWindow   Strategy = "window"
)

// IsValid reports whether s names a known strategy
func (s Strategy) IsValid() bool {
	return s == StrategySemantic || s == StrategyWindow
}
