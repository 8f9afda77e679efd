// ABOUTME: Progress observer interface decoupling the pipeline from any UI
// ABOUTME: Observers are called synchronously with a fraction and a phase
package core

import "github.com/harper/ragdoc/internal/models"

// ProgressObserver receives progress updates from chunking and ingestion
type ProgressObserver interface {
	OnProgress(fraction float64, phase models.Phase)
}

// ObserverFunc adapts a plain function to ProgressObserver
type ObserverFunc func(fraction float64, phase models.Phase)

// OnProgress calls f
func (f ObserverFunc) OnProgress(fraction float64, phase models.Phase) {
	f(fraction, phase)
}

type nopObserver struct{}

func (nopObserver) OnProgress(float64, models.Phase) {}

// NopObserver ignores all progress
func NopObserver() ProgressObserver { return nopObserver{} }
