// ABOUTME: Embedding models for vector storage and semantic search
// ABOUTME: Defines Vector, EmbedMode, stored Record and SearchResult structures
package models

import "fmt"

// Vector is a fixed-length embedding produced by an embedding provider
type Vector []float64

// EmbedMode selects how text is embedded
type EmbedMode string

const (
	// ModeQuery embeds user questions at retrieval time
	ModeQuery EmbedMode = "query"
	// ModeDocument embeds sentences and chunks at ingestion time
	ModeDocument EmbedMode = "document"
)

// Record is a chunk persisted to a vector store
type Record struct {
	ID         string `json:"id"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	Source     string `json:"source,omitempty"`
	Vector     Vector `json:"vector"`
}

// SearchResult is a stored chunk annotated with its relevance score
type SearchResult struct {
	ID         string  `json:"id"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Source     string  `json:"source,omitempty"`
	Score      float64 `json:"score"`
}

// IsValid reports whether m is a known embedding mode
func (m EmbedMode) IsValid() bool {
	return m == ModeQuery || m == ModeDocument
}

// ValidateDimension checks the vector has exactly expected components
func (v Vector) ValidateDimension(expected int) error {
	if len(v) == 0 {
		return fmt.Errorf("vector cannot be empty")
	}
	if len(v) != expected {
		return fmt.Errorf("invalid embedding dimension: expected %d, got %d", expected, len(v))
	}
	return nil
}
