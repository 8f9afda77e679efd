// ABOUTME: Pairwise cosine similarity matrix over sentence embeddings
// ABOUTME: Builds the upper triangle once and mirrors it so the matrix is exactly symmetric
package core

import (
	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/vecmath"
)

// SimilarityMatrix holds M[i][j] = cosine(embedding i, embedding j)
type SimilarityMatrix [][]float64

// Size returns N for an N×N matrix
func (m SimilarityMatrix) Size() int {
	return len(m)
}

// At returns M[i][j]
func (m SimilarityMatrix) At(i, j int) float64 {
	return m[i][j]
}

// BuildSimilarityMatrix computes all pairwise similarities. Zero-norm vectors
// score 0 against every peer. Cost is O(N²·D).
func BuildSimilarityMatrix(vectors []models.Vector) SimilarityMatrix {
	n := len(vectors)
	m := make(SimilarityMatrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		m[i][i] = vecmath.Cosine(vectors[i], vectors[i])
		for j := i + 1; j < n; j++ {
			sim := vecmath.Cosine(vectors[i], vectors[j])
			m[i][j] = sim
			m[j][i] = sim
		}
	}

	return m
}
