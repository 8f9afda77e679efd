// ABOUTME: Charm KV-backed vector store, synced across machines via Charm Cloud
// ABOUTME: Stores chunk records as JSON and ranks them by brute-force cosine similarity
package charm

import (
	"context"
	"fmt"
	"sort"

	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/vecmath"
)

// collectionInfo is stored under CollectionKey
type collectionInfo struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
}

// ChunkStore stores one collection in Charm KV
type ChunkStore struct {
	client     *Client
	collection string
}

// NewChunkStore creates a store for collection on top of client
func NewChunkStore(client *Client, collection string) (*ChunkStore, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	return &ChunkStore{client: client, collection: collection}, nil
}

// Collection returns the collection name
func (s *ChunkStore) Collection() string {
	return s.collection
}

// Client exposes the KV client for manual sync
func (s *ChunkStore) Client() *Client {
	return s.client
}

func (s *ChunkStore) info() (collectionInfo, bool, error) {
	var info collectionInfo
	found, err := s.client.GetJSON(CollectionKey(s.collection), &info)
	return info, found, err
}

// EnsureCollection creates the collection if missing and checks its dimension
func (s *ChunkStore) EnsureCollection(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("collection dimension must be positive, got %d", dimension)
	}
	info, found, err := s.info()
	if err != nil {
		return err
	}
	if found {
		if info.Dimension != dimension {
			return fmt.Errorf("collection %q has dimension %d, want %d", s.collection, info.Dimension, dimension)
		}
		return nil
	}
	return s.client.SetJSONBatch(map[string]any{
		CollectionKey(s.collection): collectionInfo{Name: s.collection, Dimension: dimension},
	})
}

// Upsert stores records as JSON and syncs once
func (s *ChunkStore) Upsert(_ context.Context, records []models.Record) error {
	info, found, err := s.info()
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("collection %q does not exist", s.collection)
	}

	entries := make(map[string]any, len(records))
	for _, r := range records {
		if err := r.Vector.ValidateDimension(info.Dimension); err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
		entries[ChunkKey(s.collection, r.ID)] = r
	}
	return s.client.SetJSONBatch(entries)
}

// records loads every chunk of the collection in key order
func (s *ChunkStore) records(ctx context.Context) ([]models.Record, error) {
	keys, err := s.client.ListKeys(ChunkKeyPrefix(s.collection))
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	out := make([]models.Record, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var r models.Record
		found, err := s.client.GetJSON(key, &r)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, r)
		}
	}
	return out, nil
}

// Search returns up to limit chunks ranked by cosine similarity to vector
func (s *ChunkStore) Search(ctx context.Context, vector models.Vector, limit int) ([]models.SearchResult, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	return rank(records, vector, limit), nil
}

// rank scores records against vector and keeps the best limit
func rank(records []models.Record, vector models.Vector, limit int) []models.SearchResult {
	scored := make([]vecmath.Scored, len(records))
	for i, r := range records {
		scored[i] = vecmath.Scored{Index: i, Score: vecmath.Cosine(vector, r.Vector)}
	}
	top := vecmath.TopK(scored, limit)

	results := make([]models.SearchResult, len(top))
	for i, sc := range top {
		r := records[sc.Index]
		results[i] = models.SearchResult{
			ID:         r.ID,
			ChunkIndex: r.ChunkIndex,
			Text:       r.Text,
			Source:     r.Source,
			Score:      sc.Score,
		}
	}
	return results
}

// Count returns the number of chunks in the collection
func (s *ChunkStore) Count(_ context.Context) (int, error) {
	keys, err := s.client.ListKeys(ChunkKeyPrefix(s.collection))
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// DeleteCollection removes the collection metadata and every chunk
func (s *ChunkStore) DeleteCollection(_ context.Context) error {
	keys, err := s.client.ListKeys(ChunkKeyPrefix(s.collection))
	if err != nil {
		return err
	}
	keys = append(keys, CollectionKey(s.collection))
	return s.client.DeleteBatch(keys)
}

// Sync pushes and pulls changes regardless of the auto-sync setting
func (s *ChunkStore) Sync() error {
	return s.client.Sync()
}

// Close closes the KV database
func (s *ChunkStore) Close() error {
	return s.client.Close()
}
