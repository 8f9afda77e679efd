// ABOUTME: Chunk represents a group of sentences assembled by similarity
// ABOUTME: Members keep the order they were accepted in, seed first
package models

import "strings"

// Chunk is an ordered group of sentences emitted as one retrievable unit.
// Scores[k] is the similarity of Sentences[k] to the seed when it was added.
type Chunk struct {
	Sentences []Sentence `json:"sentences"`
	Scores    []float64  `json:"scores"`
	Size      int        `json:"size"`
}

// Seed returns the sentence that started the chunk
func (c Chunk) Seed() Sentence {
	if len(c.Sentences) == 0 {
		return Sentence{}
	}
	return c.Sentences[0]
}

// Indices returns the sentence indices in acceptance order
func (c Chunk) Indices() []int {
	out := make([]int, len(c.Sentences))
	for i, s := range c.Sentences {
		out[i] = s.Index
	}
	return out
}

// Text joins member sentences in acceptance order
func (c Chunk) Text(separator string) string {
	var b strings.Builder
	for i, s := range c.Sentences {
		if i > 0 {
			b.WriteString(separator)
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
