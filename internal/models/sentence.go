// ABOUTME: Sentence is the unit produced by segmentation and clustered by the chunker
// ABOUTME: Length is measured in characters (runes), never embedding dimensions
package models

// Sentence is a single filtered sentence of a document
type Sentence struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Length int    `json:"length"`
}
