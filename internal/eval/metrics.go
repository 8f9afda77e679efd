// ABOUTME: Deterministic answer faithfulness and context recall metrics
// ABOUTME: Scores compare case-insensitive substrings against ground truth

package eval

import (
	"fmt"
	"strings"
)

// Score is a metric value in [0, 1] with a human-readable explanation
type Score struct {
	Value  float64 `json:"value"`
	Detail string  `json:"detail"`
}

// ContextRecall is the fraction of expected context strings found in the
// retrieved chunks. A case with no expectations scores 1.
func ContextRecall(retrieved []string, expected []string) Score {
	if len(expected) == 0 {
		return Score{Value: 1, Detail: "no context expectations"}
	}

	found, missing := partition(strings.Join(retrieved, "\n"), expected)
	recall := float64(len(found)) / float64(len(expected))
	if len(missing) == 0 {
		return Score{Value: recall, Detail: "all expected context retrieved"}
	}
	return Score{
		Value:  recall,
		Detail: fmt.Sprintf("context recall %.2f, missing: %v", recall, missing),
	}
}

// Faithfulness is the fraction of expected answer strings present in the
// answer, halved when the answer contains any forbidden string.
func Faithfulness(answer string, expected, forbidden []string) Score {
	found, missing := partition(answer, expected)
	value := 1.0
	if len(expected) > 0 {
		value = float64(len(found)) / float64(len(expected))
	}

	leaked, _ := partition(answer, forbidden)
	if len(leaked) > 0 {
		value /= 2
	}

	switch {
	case len(missing) == 0 && len(leaked) == 0:
		return Score{Value: value, Detail: "answer matches ground truth"}
	case len(leaked) == 0:
		return Score{Value: value, Detail: fmt.Sprintf("missing expected: %v", missing)}
	case len(missing) == 0:
		return Score{Value: value, Detail: fmt.Sprintf("forbidden found: %v", leaked)}
	default:
		return Score{Value: value, Detail: fmt.Sprintf("missing expected: %v, forbidden found: %v", missing, leaked)}
	}
}

// partition splits needles into those haystack contains and those it lacks
func partition(haystack string, needles []string) (found, missing []string) {
	h := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(h, strings.ToLower(n)) {
			found = append(found, n)
		} else {
			missing = append(missing, n)
		}
	}
	return found, missing
}
