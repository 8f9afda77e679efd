// ABOUTME: Fixed-size character windows with overlap
// ABOUTME: Alternative to semantic chunking that needs no embedding calls
package core

import (
	"context"
)

// DefaultChunkOverlap is the overlap between consecutive windows, in characters
const DefaultChunkOverlap = 100

// WindowChunker slices text into windows of size runes, each starting
// size-overlap runes after the previous one. Every start offset below the
// text length yields a window, so the tail may repeat inside the overlap.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker rejects non-positive sizes and overlaps outside [0, size)
func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, invalidConfig("window size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, invalidConfig("window overlap %d must be within [0, %d)", overlap, size)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Chunk returns the windows of text. The text is used as given.
func (w *WindowChunker) Chunk(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []string
	step := w.size - w.overlap
	for start := 0; start < len(runes); start += step {
		end := min(start+w.size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}
