// ABOUTME: Charm KV client wrapper for cloud-synced chunk storage
// ABOUTME: SSH-key authenticated KV with optional sync after every batch of writes
package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
)

// Key prefixes for stored entities
const (
	ChunkPrefix      = "chunk:"
	CollectionPrefix = "collection:"
)

// keySep separates the parts of a key, so collection names may not contain it
const keySep = ":"

// ErrInvalidCollection is returned for collection names that cannot be keyed
var ErrInvalidCollection = errors.New("invalid collection name")

// Config holds charm client configuration
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// DefaultConfig returns default configuration for charm client
func DefaultConfig() *Config {
	return &Config{
		Host:     "cloud.charm.sh",
		DBName:   "ragdoc",
		AutoSync: true,
	}
}

// Client wraps charm KV for storage operations
type Client struct {
	kv     *kv.KV
	config *Config
	mu     sync.Mutex
}

// NewClient opens the KV database named in cfg
func NewClient(cfg *Config) (*Client, error) {
	if cfg.DBName == "" {
		return nil, fmt.Errorf("charm database name is required")
	}
	// kv reads the server host from the environment
	if cfg.Host != "" {
		if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
			return nil, fmt.Errorf("setting CHARM_HOST: %w", err)
		}
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{
		kv:     db,
		config: cfg,
	}

	// Pull remote data on startup
	if cfg.AutoSync {
		_ = db.Sync()
	}

	return c, nil
}

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		err := c.kv.Close()
		c.kv = nil
		return err
	}
	return nil
}

// syncIfEnabled pushes local writes to the cloud
func (c *Client) syncIfEnabled() error {
	if c.config.AutoSync {
		return c.kv.Sync()
	}
	return nil
}

// ID returns the charm user ID
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// Reset wipes the local copy of the database. Cloud data is untouched.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}

// AuthorizedKeys lists the SSH keys linked to the charm account
func (c *Client) AuthorizedKeys() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.AuthorizedKeys()
}

// SetJSONBatch marshals and stores every entry, then syncs once
func (c *Client) SetJSONBatch(entries map[string]any) error {
	encoded := make(map[string][]byte, len(entries))
	for key, value := range entries {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		encoded[key] = data
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, data := range encoded {
		if err := c.kv.Set([]byte(key), data); err != nil {
			return fmt.Errorf("failed to set key %s: %w", key, err)
		}
	}
	return c.syncIfEnabled()
}

// GetJSON retrieves and unmarshals a JSON value. found is false for a missing key.
func (c *Client) GetJSON(key string, dest any) (found bool, err error) {
	c.mu.Lock()
	data, err := c.kv.Get([]byte(key))
	c.mu.Unlock()
	if err != nil || data == nil {
		// kv reports a missing key as an error
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return true, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// DeleteBatch removes every key, then syncs once
func (c *Client) DeleteBatch(keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if err := c.kv.Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}
	return c.syncIfEnabled()
}

// ListKeys returns all keys with the given prefix
func (c *Client) ListKeys(prefix string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var result []string
	for _, key := range keys {
		keyStr := string(key)
		if strings.HasPrefix(keyStr, prefix) {
			result = append(result, keyStr)
		}
	}
	return result, nil
}

// Sync manually triggers a sync with the cloud
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// ValidateCollection rejects empty names and names containing the key separator.
// "docs:archive" would otherwise fall under the chunk prefix of "docs".
func ValidateCollection(collection string) error {
	if strings.TrimSpace(collection) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCollection)
	}
	if strings.Contains(collection, keySep) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidCollection, collection, keySep)
	}
	return nil
}

// ChunkKey generates the key for a chunk record in a collection
func ChunkKey(collection, id string) string {
	return ChunkPrefix + collection + keySep + id
}

// ChunkKeyPrefix is the key prefix shared by every chunk in a collection
func ChunkKeyPrefix(collection string) string {
	return ChunkPrefix + collection + keySep
}

// CollectionKey generates the key holding a collection's metadata
func CollectionKey(collection string) string {
	return CollectionPrefix + collection
}
