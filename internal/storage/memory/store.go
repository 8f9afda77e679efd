// ABOUTME: In-process vector store used by tests and throwaway runs
// ABOUTME: Brute-force cosine search over records held in a map
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/vecmath"
)

// Store holds one collection in memory
type Store struct {
	mu         sync.RWMutex
	collection string
	dimension  int
	exists     bool
	records    map[string]models.Record
	order      []string
}

// NewStore creates an empty store for collection
func NewStore(collection string) *Store {
	return &Store{collection: collection}
}

// Collection returns the collection name
func (s *Store) Collection() string {
	return s.collection
}

// EnsureCollection creates the collection if missing and checks its dimension
func (s *Store) EnsureCollection(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("collection dimension must be positive, got %d", dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exists {
		if s.dimension != dimension {
			return fmt.Errorf("collection %q has dimension %d, want %d", s.collection, s.dimension, dimension)
		}
		return nil
	}
	s.exists = true
	s.dimension = dimension
	s.records = make(map[string]models.Record)
	s.order = nil
	return nil
}

// Upsert inserts or replaces records by ID
func (s *Store) Upsert(_ context.Context, records []models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		return fmt.Errorf("collection %q does not exist", s.collection)
	}
	for _, r := range records {
		if err := r.Vector.ValidateDimension(s.dimension); err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
	}
	for _, r := range records {
		if _, ok := s.records[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		r.Vector = append(models.Vector(nil), r.Vector...)
		s.records[r.ID] = r
	}
	return nil
}

// Search returns up to limit records ranked by cosine similarity to vector
func (s *Store) Search(_ context.Context, vector models.Vector, limit int) ([]models.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.exists || len(s.order) == 0 {
		return nil, nil
	}

	scored := make([]vecmath.Scored, len(s.order))
	for i, id := range s.order {
		scored[i] = vecmath.Scored{Index: i, Score: vecmath.Cosine(vector, s.records[id].Vector)}
	}

	top := vecmath.TopK(scored, limit)
	results := make([]models.SearchResult, len(top))
	for i, sc := range top {
		r := s.records[s.order[sc.Index]]
		results[i] = models.SearchResult{
			ID:         r.ID,
			ChunkIndex: r.ChunkIndex,
			Text:       r.Text,
			Source:     r.Source,
			Score:      sc.Score,
		}
	}
	return results, nil
}

// Count returns the number of stored records
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// DeleteCollection drops every record and forgets the dimension
func (s *Store) DeleteCollection(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = false
	s.dimension = 0
	s.records = nil
	s.order = nil
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}
