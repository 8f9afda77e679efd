// ABOUTME: Renders assembled chunks into the strings handed to ingestion
// ABOUTME: Member sentences are joined in acceptance order with a configurable separator
package core

import "github.com/harper/ragdoc/internal/models"

// DefaultSeparator is placed between sentences of a chunk. Sentences are
// trimmed by the segmenter, so an empty separator would fuse their words.
const DefaultSeparator = " "

// EmitChunks returns one string per chunk, in chunk order
func EmitChunks(chunks []models.Chunk, separator string) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.Text(separator))
	}
	return out
}
