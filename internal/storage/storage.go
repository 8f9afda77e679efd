// ABOUTME: VectorStore abstraction over the Qdrant, SQLite, Charm, and in-memory backends
// ABOUTME: Open picks the backend named in configuration
package storage

import (
	"context"
	"fmt"

	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/storage/charm"
	"github.com/harper/ragdoc/internal/storage/memory"
	"github.com/harper/ragdoc/internal/storage/qdrant"
	"github.com/harper/ragdoc/internal/storage/sqlite"
)

// VectorStore persists embedded chunks for one collection and answers
// similarity queries against them
type VectorStore interface {
	// Collection returns the collection name
	Collection() string
	// EnsureCollection creates the collection if missing. An existing
	// collection with a different dimension is an error.
	EnsureCollection(ctx context.Context, dimension int) error
	// Upsert writes records, replacing any with the same ID
	Upsert(ctx context.Context, records []models.Record) error
	// Search returns at most limit records, most similar first
	Search(ctx context.Context, vector models.Vector, limit int) ([]models.SearchResult, error)
	// Count returns the number of stored records
	Count(ctx context.Context) (int, error)
	// DeleteCollection drops the collection and its records
	DeleteCollection(ctx context.Context) error
	Close() error
}

// Syncer is implemented by stores that replicate to a remote
type Syncer interface {
	Sync() error
}

var (
	_ VectorStore = (*qdrant.Store)(nil)
	_ VectorStore = (*sqlite.ChunkStore)(nil)
	_ VectorStore = (*charm.ChunkStore)(nil)
	_ VectorStore = (*memory.Store)(nil)
	_ Syncer      = (*charm.ChunkStore)(nil)
)

// Open returns the backend selected by cfg.Store
func Open(_ context.Context, cfg *config.Config) (VectorStore, error) {
	switch cfg.Store {
	case config.StoreQdrant:
		return qdrant.NewStore(qdrant.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.Collection,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqlite.NewChunkStore(db, cfg.Collection), nil
	case config.StoreCharm:
		if err := charm.ValidateCollection(cfg.Collection); err != nil {
			return nil, err
		}
		client, err := charm.NewClient(&charm.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: cfg.AutoSync,
		})
		if err != nil {
			return nil, err
		}
		store, err := charm.NewChunkStore(client, cfg.Collection)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return store, nil
	case config.StoreMemory:
		return memory.NewStore(cfg.Collection), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
