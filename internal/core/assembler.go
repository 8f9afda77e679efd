// ABOUTME: Greedy chunk assembly over a sentence similarity matrix
// ABOUTME: Longest sentences seed chunks; neighbours join by descending similarity within the size budget
package core

import (
	"math"
	"sort"

	"github.com/harper/ragdoc/internal/models"
)

// DefaultSimilarityThreshold is the minimum similarity for a sentence to join a seed
const DefaultSimilarityThreshold = 0.5

// AssembleChunks partitions sentences into chunks.
//
// Seeds are taken in descending length order. Each seed collects every
// unassigned sentence whose similarity to it is at least threshold and that
// still fits under maxChunkSize, walking candidates by descending similarity.
// A candidate that does not fit is skipped without ending the walk. Member
// order is acceptance order, not document order.
//
// A seed longer than maxChunkSize still forms a chunk of one.
func AssembleChunks(sentences []models.Sentence, matrix SimilarityMatrix, maxChunkSize int, threshold float64) ([]models.Chunk, error) {
	if maxChunkSize <= 0 {
		return nil, invalidConfig("max chunk size must be positive, got %d", maxChunkSize)
	}
	if math.IsNaN(threshold) || threshold < -1 || threshold > 1 {
		return nil, invalidConfig("similarity threshold must be within [-1, 1], got %v", threshold)
	}
	n := len(sentences)
	if matrix.Size() != n {
		return nil, invalidConfig("similarity matrix is %dx%d for %d sentences", matrix.Size(), matrix.Size(), n)
	}
	for i := range matrix {
		if len(matrix[i]) != n {
			return nil, invalidConfig("similarity matrix row %d has %d columns, want %d", i, len(matrix[i]), n)
		}
	}
	if n == 0 {
		return nil, nil
	}

	seeds := make([]int, n)
	for i := range seeds {
		seeds[i] = i
	}
	sort.SliceStable(seeds, func(a, b int) bool {
		return sentences[seeds[a]].Length > sentences[seeds[b]].Length
	})

	assigned := make([]bool, n)
	var chunks []models.Chunk

	type candidate struct {
		index int
		score float64
	}
	candidates := make([]candidate, 0, n)

	for _, seed := range seeds {
		if assigned[seed] {
			continue
		}
		assigned[seed] = true

		chunk := models.Chunk{
			Sentences: []models.Sentence{sentences[seed]},
			Scores:    []float64{1.0},
			Size:      sentences[seed].Length,
		}

		candidates = candidates[:0]
		for j := 0; j < n; j++ {
			if j == seed || assigned[j] {
				continue
			}
			candidates = append(candidates, candidate{index: j, score: matrix[seed][j]})
		}
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].score > candidates[b].score
		})

		for _, c := range candidates {
			if c.score < threshold {
				continue
			}
			length := sentences[c.index].Length
			if chunk.Size+length > maxChunkSize {
				continue
			}
			chunk.Sentences = append(chunk.Sentences, sentences[c.index])
			chunk.Scores = append(chunk.Scores, c.score)
			chunk.Size += length
			assigned[c.index] = true
		}

		chunks = append(chunks, chunk)
	}

	return chunks, nil
}
