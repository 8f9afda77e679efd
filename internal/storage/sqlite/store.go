// ABOUTME: SQLite-backed vector store for offline use
// ABOUTME: Persists chunks with BLOB vectors and ranks them by brute-force cosine similarity
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/vecmath"
)

// ChunkStore stores one collection's chunks in a SQLite database
type ChunkStore struct {
	db         *DB
	collection string
}

// NewChunkStore creates a store for collection backed by db
func NewChunkStore(db *DB, collection string) *ChunkStore {
	return &ChunkStore{db: db, collection: collection}
}

// Collection returns the collection name
func (s *ChunkStore) Collection() string {
	return s.collection
}

// dimension returns the collection's dimension, or 0 if it does not exist
func (s *ChunkStore) dimension(ctx context.Context) (int, error) {
	var dim int
	err := s.db.QueryRowContext(ctx, "SELECT dimension FROM collections WHERE name = ?", s.collection).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading collection %q: %w", s.collection, err)
	}
	return dim, nil
}

// EnsureCollection creates the collection if missing and checks its dimension
func (s *ChunkStore) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("collection dimension must be positive, got %d", dimension)
	}
	existing, err := s.dimension(ctx)
	if err != nil {
		return err
	}
	if existing != 0 {
		if existing != dimension {
			return fmt.Errorf("collection %q has dimension %d, want %d", s.collection, existing, dimension)
		}
		return nil
	}
	_, err = s.db.ExecContext(ctx, "INSERT INTO collections (name, dimension) VALUES (?, ?)", s.collection, dimension)
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", s.collection, err)
	}
	return nil
}

// Upsert inserts or replaces records in a single transaction
func (s *ChunkStore) Upsert(ctx context.Context, records []models.Record) error {
	dim, err := s.dimension(ctx)
	if err != nil {
		return err
	}
	if dim == 0 {
		return fmt.Errorf("collection %q does not exist", s.collection)
	}
	for _, r := range records {
		if err := r.Vector.ValidateDimension(dim); err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
	}

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, collection, chunk_index, source, text, vector)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			chunk_index = excluded.chunk_index,
			source = excluded.source,
			text = excluded.text,
			vector = excluded.vector
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ID, s.collection, r.ChunkIndex, nullString(r.Source), r.Text, vectorToBlob(r.Vector)); err != nil {
			return fmt.Errorf("upserting record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// Search returns up to limit chunks ranked by cosine similarity to vector
func (s *ChunkStore) Search(ctx context.Context, vector models.Vector, limit int) ([]models.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chunk_index, source, text, vector
		FROM chunks
		WHERE collection = ?
		ORDER BY rowid ASC
	`, s.collection)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var (
		results []models.SearchResult
		scored  []vecmath.Scored
	)
	for rows.Next() {
		var (
			r      models.SearchResult
			source sql.NullString
			blob   []byte
		)
		if err := rows.Scan(&r.ID, &r.ChunkIndex, &source, &r.Text, &blob); err != nil {
			return nil, err
		}
		if source.Valid {
			r.Source = source.String
		}
		scored = append(scored, vecmath.Scored{Index: len(results), Score: vecmath.Cosine(vector, blobToVector(blob))})
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	top := vecmath.TopK(scored, limit)
	out := make([]models.SearchResult, len(top))
	for i, sc := range top {
		out[i] = results[sc.Index]
		out[i].Score = sc.Score
	}
	return out, nil
}

// Count returns the number of chunks in the collection
func (s *ChunkStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE collection = ?", s.collection).Scan(&n)
	return n, err
}

// DeleteCollection removes the collection and all of its chunks
func (s *ChunkStore) DeleteCollection(ctx context.Context) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE collection = ?", s.collection); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", s.collection); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return tx.Commit()
}

// Close closes the underlying database
func (s *ChunkStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
