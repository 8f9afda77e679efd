// ABOUTME: Sentence segmentation using the Punkt English tokenizer
// ABOUTME: Normalizes whitespace and drops fragments no longer than the minimum length
package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"github.com/harper/ragdoc/internal/models"
)

// DefaultMinSentenceLength is the length (in runes) a sentence must exceed to be kept
const DefaultMinSentenceLength = 10

// SentenceSegmenter splits normalized text into filtered sentences
type SentenceSegmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
	minLength int
}

// NewSentenceSegmenter loads the English Punkt model. minLength < 0 is rejected;
// 0 keeps every non-empty sentence.
func NewSentenceSegmenter(minLength int) (*SentenceSegmenter, error) {
	if minLength < 0 {
		return nil, invalidConfig("min sentence length must not be negative, got %d", minLength)
	}
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading sentence tokenizer: %w", err)
	}
	return &SentenceSegmenter{tokenizer: tokenizer, minLength: minLength}, nil
}

// MinLength returns the filter threshold
func (s *SentenceSegmenter) MinLength() int {
	return s.minLength
}

// Segment returns the sentences of text in document order, re-indexed from 0
func (s *SentenceSegmenter) Segment(text string) []models.Sentence {
	text = NormalizeText(text)
	if text == "" {
		return nil
	}

	var out []models.Sentence
	for _, tok := range s.tokenizer.Tokenize(text) {
		sentence := strings.TrimSpace(tok.Text)
		length := utf8.RuneCountInString(sentence)
		if sentence == "" || length <= s.minLength {
			continue
		}
		out = append(out, models.Sentence{
			Index:  len(out),
			Text:   sentence,
			Length: length,
		})
	}
	return out
}

// NormalizeText collapses every whitespace run to a single space and trims
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
