// ABOUTME: Tests for greedy chunk assembly
// ABOUTME: Verifies partition, size bound, threshold, determinism, ordering, and the documented scenarios
package core

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/harper/ragdoc/internal/models"
)

func sentencesWithLengths(lengths ...int) []models.Sentence {
	out := make([]models.Sentence, len(lengths))
	for i, l := range lengths {
		out[i] = models.Sentence{Index: i, Text: string(rune('A' + i)), Length: l}
	}
	return out
}

// uniformMatrix returns an n×n matrix with 1 on the diagonal and v elsewhere
func uniformMatrix(n int, v float64) SimilarityMatrix {
	m := make(SimilarityMatrix, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i == j {
				m[i][j] = 1
			} else {
				m[i][j] = v
			}
		}
	}
	return m
}

func setSim(m SimilarityMatrix, i, j int, v float64) {
	m[i][j] = v
	m[j][i] = v
}

func TestAssembleChunks_DisjointTopics(t *testing.T) {
	// A and B are similar, C is unrelated to both
	sentences := sentencesWithLengths(50, 40, 30)
	m := uniformMatrix(3, 0.1)
	setSim(m, 0, 1, 0.9)

	chunks, err := AssembleChunks(sentences, m, 100, 0.5)
	if err != nil {
		t.Fatalf("AssembleChunks() error = %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if got := chunks[0].Indices(); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("chunk 0 indices = %v, want [0 1]", got)
	}
	if got := chunks[1].Indices(); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("chunk 1 indices = %v, want [2]", got)
	}
	if chunks[0].Size != 90 {
		t.Errorf("chunk 0 size = %d, want 90", chunks[0].Size)
	}
}

func TestAssembleChunks_OversizedSeed(t *testing.T) {
	sentences := sentencesWithLengths(250)
	chunks, err := AssembleChunks(sentences, uniformMatrix(1, 0), 100, 0.5)
	if err != nil {
		t.Fatalf("AssembleChunks() error = %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if len(chunks[0].Sentences) != 1 {
		t.Errorf("oversized chunk has %d sentences, want 1", len(chunks[0].Sentences))
	}
	if chunks[0].Size <= 100 {
		t.Errorf("oversized chunk size = %d, want > 100", chunks[0].Size)
	}
}

func TestAssembleChunks_OversizedSeedWithSimilarNeighbour(t *testing.T) {
	// The long seed already exceeds the budget, so nothing can join it
	sentences := sentencesWithLengths(150, 20)
	m := uniformMatrix(2, 0.95)

	chunks, err := AssembleChunks(sentences, m, 100, 0.5)
	if err != nil {
		t.Fatalf("AssembleChunks() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if got := chunks[0].Indices(); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("chunk 0 indices = %v, want [0]", got)
	}
}

func TestAssembleChunks_AllDissimilar(t *testing.T) {
	sentences := sentencesWithLengths(10, 30, 20, 40)
	chunks, err := AssembleChunks(sentences, uniformMatrix(4, 0.1), 1000, 0.5)
	if err != nil {
		t.Fatalf("AssembleChunks() error = %v", err)
	}

	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	wantSeeds := []int{3, 1, 2, 0}
	for i, want := range wantSeeds {
		if len(chunks[i].Sentences) != 1 {
			t.Errorf("chunk %d has %d sentences, want 1", i, len(chunks[i].Sentences))
		}
		if got := chunks[i].Seed().Index; got != want {
			t.Errorf("chunk %d seed = %d, want %d", i, got, want)
		}
	}
}

func TestAssembleChunks_SkippedCandidateDoesNotStopWalk(t *testing.T) {
	// B is the closest neighbour but too long; C is less similar and fits
	sentences := sentencesWithLengths(60, 50, 20)
	m := uniformMatrix(3, 0)
	setSim(m, 0, 1, 0.9)
	setSim(m, 0, 2, 0.8)

	chunks, err := AssembleChunks(sentences, m, 100, 0.5)
	if err != nil {
		t.Fatalf("AssembleChunks() error = %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if got := chunks[0].Indices(); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("chunk 0 indices = %v, want [0 2]", got)
	}
	if got := chunks[1].Indices(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("chunk 1 indices = %v, want [1]", got)
	}
}

func TestAssembleChunks_AcceptanceOrder(t *testing.T) {
	// Seed is sentence 2 (longest); neighbours join by descending similarity
	sentences := sentencesWithLengths(20, 20, 60, 20)
	m := uniformMatrix(4, 0)
	setSim(m, 2, 0, 0.6)
	setSim(m, 2, 1, 0.95)
	setSim(m, 2, 3, 0.75)

	chunks, err := AssembleChunks(sentences, m, 1000, 0.5)
	if err != nil {
		t.Fatalf("AssembleChunks() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if got := chunks[0].Indices(); !reflect.DeepEqual(got, []int{2, 1, 3, 0}) {
		t.Errorf("indices = %v, want [2 1 3 0] (acceptance order)", got)
	}
	wantScores := []float64{1, 0.95, 0.75, 0.6}
	if !reflect.DeepEqual(chunks[0].Scores, wantScores) {
		t.Errorf("scores = %v, want %v", chunks[0].Scores, wantScores)
	}
}

func TestAssembleChunks_ThresholdIsInclusive(t *testing.T) {
	sentences := sentencesWithLengths(30, 20)
	m := uniformMatrix(2, 0.5)

	chunks, err := AssembleChunks(sentences, m, 100, 0.5)
	if err != nil {
		t.Fatalf("AssembleChunks() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Errorf("got %d chunks, want 1 (score equal to threshold joins)", len(chunks))
	}
}

func TestAssembleChunks_TiesKeepDocumentOrder(t *testing.T) {
	sentences := sentencesWithLengths(20, 20, 20)
	chunks, err := AssembleChunks(sentences, uniformMatrix(3, 0), 100, 0.5)
	if err != nil {
		t.Fatalf("AssembleChunks() error = %v", err)
	}
	for i, c := range chunks {
		if c.Seed().Index != i {
			t.Errorf("chunk %d seed = %d, want %d", i, c.Seed().Index, i)
		}
	}
}

func TestAssembleChunks_Empty(t *testing.T) {
	chunks, err := AssembleChunks(nil, SimilarityMatrix{}, 100, 0.5)
	if err != nil {
		t.Fatalf("AssembleChunks() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("got %d chunks, want 0", len(chunks))
	}
}

func TestAssembleChunks_InvalidInput(t *testing.T) {
	sentences := sentencesWithLengths(10, 10)

	tests := []struct {
		name      string
		matrix    SimilarityMatrix
		maxSize   int
		threshold float64
	}{
		{"zero max size", uniformMatrix(2, 0), 0, 0.5},
		{"negative max size", uniformMatrix(2, 0), -5, 0.5},
		{"threshold above 1", uniformMatrix(2, 0), 100, 1.5},
		{"threshold below -1", uniformMatrix(2, 0), 100, -2},
		{"matrix too small", uniformMatrix(1, 0), 100, 0.5},
		{"ragged matrix", SimilarityMatrix{{1, 0}, {0}}, 100, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AssembleChunks(sentences, tt.matrix, tt.maxSize, tt.threshold)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("AssembleChunks() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

// randomInstance builds a symmetric matrix with values in [-1, 1]
func randomInstance(rng *rand.Rand, n int) ([]models.Sentence, SimilarityMatrix) {
	lengths := make([]int, n)
	for i := range lengths {
		lengths[i] = 10 + rng.Intn(200)
	}
	m := uniformMatrix(n, 0)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			setSim(m, i, j, rng.Float64()*2-1)
		}
	}
	return sentencesWithLengths(lengths...), m
}

func TestAssembleChunks_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const maxSize = 300
	const threshold = 0.2

	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.Intn(25)
		sentences, m := randomInstance(rng, n)

		chunks, err := AssembleChunks(sentences, m, maxSize, threshold)
		if err != nil {
			t.Fatalf("iteration %d: AssembleChunks() error = %v", iter, err)
		}

		seen := make(map[int]int)
		for ci, c := range chunks {
			size := 0
			seed := c.Seed().Index
			for k, s := range c.Sentences {
				seen[s.Index]++
				size += s.Length
				if k == 0 {
					continue
				}
				if c.Scores[k] < threshold {
					t.Errorf("iteration %d chunk %d: member %d score %v below threshold", iter, ci, s.Index, c.Scores[k])
				}
				if c.Scores[k] != m[seed][s.Index] {
					t.Errorf("iteration %d chunk %d: member %d score %v, matrix says %v", iter, ci, s.Index, c.Scores[k], m[seed][s.Index])
				}
			}
			if size != c.Size {
				t.Errorf("iteration %d chunk %d: Size = %d, members sum to %d", iter, ci, c.Size, size)
			}
			if len(c.Sentences) > 1 && c.Size > maxSize {
				t.Errorf("iteration %d chunk %d: multi-sentence chunk size %d exceeds %d", iter, ci, c.Size, maxSize)
			}
		}

		if len(seen) != n {
			t.Errorf("iteration %d: %d of %d sentences assigned", iter, len(seen), n)
		}
		for idx, count := range seen {
			if count != 1 {
				t.Errorf("iteration %d: sentence %d assigned %d times", iter, idx, count)
			}
		}

		again, err := AssembleChunks(sentences, m, maxSize, threshold)
		if err != nil {
			t.Fatalf("iteration %d: second AssembleChunks() error = %v", iter, err)
		}
		if !reflect.DeepEqual(chunks, again) {
			t.Errorf("iteration %d: assembly is not deterministic", iter)
		}
	}
}
