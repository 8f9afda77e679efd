// ABOUTME: Vector math shared by the chunker and the brute-force vector stores
// ABOUTME: Cosine similarity with a zero-norm guard and top-K ranking of scored items
package vecmath

import (
	"math"
	"sort"
)

// Cosine returns (a·b)/(|a||b|). Mismatched lengths and zero-norm vectors
// score 0 rather than failing.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Norm returns the Euclidean length of v
func Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Scored pairs an item position with its score
type Scored struct {
	Index int
	Score float64
}

// TopK sorts by score descending (ties keep input order) and keeps at most k.
// k <= 0 keeps everything.
func TopK(items []Scored, k int) []Scored {
	out := make([]Scored, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
