// ABOUTME: Qdrant vector store over the REST API
// ABOUTME: Creates cosine collections on demand, upserts chunk points, and runs top-K searches
package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/harper/ragdoc/internal/models"
)

// Config configures a Store
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	MaxRetries int
}

// Store is a VectorStore backed by one Qdrant collection
type Store struct {
	client     *resty.Client
	collection string
	dimension  int
}

// point is the wire form of a stored chunk
type point struct {
	ID      string         `json:"id"`
	Vector  models.Vector  `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type searchHit struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// apiError is Qdrant's error envelope
type apiError struct {
	Status json.RawMessage `json:"status"`
}

// NewStore builds a client for cfg.Collection on the server at cfg.URL
func NewStore(cfg Config) (*Store, error) {
	base := strings.TrimRight(cfg.URL, "/")
	if base == "" {
		return nil, errors.New("qdrant url is required")
	}
	if cfg.Collection == "" {
		return nil, errors.New("qdrant collection is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryCondition)
	if cfg.APIKey != "" {
		client.SetHeader("api-key", cfg.APIKey)
	}

	return &Store{client: client, collection: cfg.Collection}, nil
}

// retryCondition retries network failures and transient server statuses
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// Collection returns the collection name
func (s *Store) Collection() string {
	return s.collection
}

func (s *Store) path(suffix string) string {
	return "/collections/" + s.collection + suffix
}

// EnsureCollection creates the collection (Cosine distance) if it does not
// exist and checks the dimension of an existing one
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("collection dimension must be positive, got %d", dimension)
	}

	existing, err := s.fetchDimension(ctx)
	if err != nil {
		return err
	}
	if existing != 0 {
		if existing != dimension {
			return fmt.Errorf("collection %q has dimension %d, want %d", s.collection, existing, dimension)
		}
		s.dimension = dimension
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	resp, err := s.client.R().SetContext(ctx).SetBody(body).Put(s.path(""))
	if err := check(resp, err, "create collection"); err != nil {
		return err
	}
	s.dimension = dimension
	return nil
}

// fetchDimension returns the collection's vector size, or 0 if it does not exist
func (s *Store) fetchDimension(ctx context.Context) (int, error) {
	var info collectionInfo
	resp, err := s.client.R().SetContext(ctx).SetResult(&info).Get(s.path(""))
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return 0, nil
	}
	if err := check(resp, err, "get collection"); err != nil {
		return 0, err
	}
	return info.Result.Config.Params.Vectors.Size, nil
}

// Upsert writes records as points and waits for them to be indexed
func (s *Store) Upsert(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	if s.dimension == 0 {
		dim, err := s.fetchDimension(ctx)
		if err != nil {
			return err
		}
		if dim == 0 {
			return fmt.Errorf("collection %q does not exist", s.collection)
		}
		s.dimension = dim
	}

	points := make([]point, 0, len(records))
	for _, r := range records {
		if err := r.Vector.ValidateDimension(s.dimension); err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
		payload := map[string]any{
			"text":        r.Text,
			"chunk_index": r.ChunkIndex,
		}
		if r.Source != "" {
			payload["source"] = r.Source
		}
		points = append(points, point{ID: r.ID, Vector: r.Vector, Payload: payload})
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("wait", "true").
		SetBody(map[string]any{"points": points}).
		Put(s.path("/points"))
	return check(resp, err, "upsert points")
}

// Search returns up to limit chunks by cosine similarity. A missing
// collection yields no results.
func (s *Store) Search(ctx context.Context, vector models.Vector, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	var out struct {
		Result []searchHit `json:"result"`
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"vector":       vector,
			"limit":        limit,
			"with_payload": true,
		}).
		SetResult(&out).
		Post(s.path("/points/search"))
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if err := check(resp, err, "search"); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(out.Result))
	for _, hit := range out.Result {
		results = append(results, toResult(hit))
	}
	return results, nil
}

func toResult(hit searchHit) models.SearchResult {
	r := models.SearchResult{
		ID:    fmt.Sprint(hit.ID),
		Score: hit.Score,
	}
	if text, ok := hit.Payload["text"].(string); ok {
		r.Text = text
	}
	if source, ok := hit.Payload["source"].(string); ok {
		r.Source = source
	}
	// JSON numbers decode as float64
	if idx, ok := hit.Payload["chunk_index"].(float64); ok {
		r.ChunkIndex = int(idx)
	}
	return r
}

// Count returns the exact number of points, 0 for a missing collection
func (s *Store) Count(ctx context.Context) (int, error) {
	var out struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"exact": true}).
		SetResult(&out).
		Post(s.path("/points/count"))
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return 0, nil
	}
	if err := check(resp, err, "count points"); err != nil {
		return 0, err
	}
	return out.Result.Count, nil
}

// DeleteCollection drops the collection; a missing one is not an error
func (s *Store) DeleteCollection(ctx context.Context) error {
	resp, err := s.client.R().SetContext(ctx).Delete(s.path(""))
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		s.dimension = 0
		return nil
	}
	if err := check(resp, err, "delete collection"); err != nil {
		return err
	}
	s.dimension = 0
	return nil
}

// Close is a no-op; the HTTP client holds no resources worth releasing
func (s *Store) Close() error {
	return nil
}

// check turns transport failures and error statuses into errors
func check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("qdrant: %s: %w", op, err)
	}
	if resp.StatusCode() < 400 {
		return nil
	}
	var apiErr apiError
	if jsonErr := json.Unmarshal(resp.Body(), &apiErr); jsonErr == nil && len(apiErr.Status) > 0 {
		var detail struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(apiErr.Status, &detail) == nil && detail.Error != "" {
			return fmt.Errorf("qdrant: %s (%d): %s", op, resp.StatusCode(), detail.Error)
		}
	}
	return fmt.Errorf("qdrant: %s failed with status %d", op, resp.StatusCode())
}
