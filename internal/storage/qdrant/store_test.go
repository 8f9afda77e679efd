// ABOUTME: Tests for the Qdrant store against a fake REST server
// ABOUTME: Verifies request shapes, collection creation, payload mapping, and 404 handling
package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/harper/ragdoc/internal/models"
)

// fakeQdrant implements just enough of the REST API for one collection
type fakeQdrant struct {
	mu        sync.Mutex
	exists    bool
	size      int
	distance  string
	points    map[string]point
	apiKey    string
	waitParam string
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.apiKey = r.Header.Get("api-key")
	notFound := func() {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":{"error":"Not found: Collection doesn't exist!"}}`))
	}
	ok := func(result any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "result": result})
	}

	path := strings.TrimPrefix(r.URL.Path, "/collections/documents")
	switch {
	case path == "" && r.Method == http.MethodGet:
		if !f.exists {
			notFound()
			return
		}
		ok(map[string]any{"config": map[string]any{"params": map[string]any{
			"vectors": map[string]any{"size": f.size, "distance": f.distance},
		}}})
	case path == "" && r.Method == http.MethodPut:
		var body struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.exists, f.size, f.distance = true, body.Vectors.Size, body.Vectors.Distance
		f.points = make(map[string]point)
		ok(true)
	case path == "" && r.Method == http.MethodDelete:
		if !f.exists {
			notFound()
			return
		}
		f.exists, f.points = false, nil
		ok(true)
	case path == "/points" && r.Method == http.MethodPut:
		if !f.exists {
			notFound()
			return
		}
		f.waitParam = r.URL.Query().Get("wait")
		var body struct {
			Points []point `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Points {
			f.points[p.ID] = p
		}
		ok(map[string]any{"status": "completed"})
	case path == "/points/search" && r.Method == http.MethodPost:
		if !f.exists {
			notFound()
			return
		}
		var body struct {
			Limit int `json:"limit"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		var hits []map[string]any
		for id, p := range f.points {
			hits = append(hits, map[string]any{"id": id, "score": 0.9, "payload": p.Payload})
			if len(hits) == body.Limit {
				break
			}
		}
		ok(hits)
	case path == "/points/count" && r.Method == http.MethodPost:
		if !f.exists {
			notFound()
			return
		}
		ok(map[string]any{"count": len(f.points)})
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":{"error":"unexpected request"}}`))
	}
}

func newTestStore(t *testing.T) (*Store, *fakeQdrant) {
	t.Helper()
	fake := &fakeQdrant{}
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	s, err := NewStore(Config{URL: ts.URL + "/", APIKey: "secret", Collection: "documents"})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s, fake
}

func TestStore_EnsureCollection(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)

	if err := s.EnsureCollection(ctx, 768); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	if !fake.exists || fake.size != 768 || fake.distance != "Cosine" {
		t.Errorf("collection = exists:%v size:%d distance:%s, want 768/Cosine", fake.exists, fake.size, fake.distance)
	}
	if fake.apiKey != "secret" {
		t.Errorf("api-key header = %q, want secret", fake.apiKey)
	}

	if err := s.EnsureCollection(ctx, 768); err != nil {
		t.Errorf("EnsureCollection() on existing collection error = %v", err)
	}
	if err := s.EnsureCollection(ctx, 384); err == nil {
		t.Error("EnsureCollection() with a different dimension should fail")
	}
}

func TestStore_UpsertSearchCount(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)

	if err := s.EnsureCollection(ctx, 2); err != nil {
		t.Fatal(err)
	}
	records := []models.Record{
		{ID: "6f1c1d4e-0000-4000-8000-000000000001", ChunkIndex: 3, Text: "Cats purr.", Source: "pets.pdf", Vector: models.Vector{1, 0}},
	}
	if err := s.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if fake.waitParam != "true" {
		t.Errorf("wait = %q, want true", fake.waitParam)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	results, err := s.Search(ctx, models.Vector{1, 0}, 7)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() returned %d results, want 1", len(results))
	}
	got := results[0]
	if got.ID != records[0].ID || got.Text != "Cats purr." || got.Source != "pets.pdf" || got.ChunkIndex != 3 {
		t.Errorf("Search() result = %+v", got)
	}
	if got.Score != 0.9 {
		t.Errorf("Score = %v, want 0.9", got.Score)
	}
}

func TestStore_RejectsWrongDimension(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	if err := s.EnsureCollection(ctx, 3); err != nil {
		t.Fatal(err)
	}
	err := s.Upsert(ctx, []models.Record{{ID: "a", Vector: models.Vector{1}}})
	if err == nil {
		t.Error("Upsert() should reject a vector of the wrong dimension")
	}
}

func TestStore_MissingCollection(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	results, err := s.Search(ctx, models.Vector{1, 0}, 5)
	if err != nil || len(results) != 0 {
		t.Errorf("Search() on missing collection = %v, %v; want empty, nil", results, err)
	}
	n, err := s.Count(ctx)
	if err != nil || n != 0 {
		t.Errorf("Count() on missing collection = %d, %v; want 0, nil", n, err)
	}
	if err := s.DeleteCollection(ctx); err != nil {
		t.Errorf("DeleteCollection() on missing collection error = %v", err)
	}
	err = s.Upsert(ctx, []models.Record{{ID: "a", Vector: models.Vector{1, 0}}})
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Upsert() on missing collection error = %v", err)
	}
}

func TestStore_DeleteCollection(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)
	if err := s.EnsureCollection(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCollection(ctx); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	if fake.exists {
		t.Error("collection still exists after delete")
	}
}

func TestCheck_ErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":{"error":"Wrong input: vector dimension error"}}`))
	}))
	defer ts.Close()

	s, err := NewStore(Config{URL: ts.URL, Collection: "documents"})
	if err != nil {
		t.Fatal(err)
	}
	err = s.EnsureCollection(context.Background(), 2)
	if err == nil || !strings.Contains(err.Error(), "vector dimension error") {
		t.Errorf("EnsureCollection() error = %v, want server message", err)
	}
}

func TestNewStore_Validation(t *testing.T) {
	if _, err := NewStore(Config{Collection: "documents"}); err == nil {
		t.Error("NewStore() should require a URL")
	}
	if _, err := NewStore(Config{URL: "http://localhost:6333"}); err == nil {
		t.Error("NewStore() should require a collection")
	}
}
