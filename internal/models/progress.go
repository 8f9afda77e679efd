// ABOUTME: Progress phases reported by chunking and ingestion
// ABOUTME: Observers receive a fraction in [0,1] together with one of these phases
package models

// Phase names a stage of the chunking or ingestion pipeline
type Phase string

// Semantic chunker phases
const (
	PhaseSegment    Phase = "segment"
	PhaseEmbed      Phase = "embed"
	PhaseSimilarity Phase = "similarity"
	PhaseAssemble   Phase = "assemble"
	PhaseEmit       Phase = "emit"
)

// Ingestion phases. PhaseIndex covers the document-mode embedding of chunks.
const (
	PhaseChunk  Phase = "chunk"
	PhaseIndex  Phase = "index"
	PhaseUpsert Phase = "upsert"
)
