package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/atinyakov/rivone/internal/models"
)

// Cache keeps the last catalog listing on disk so it can be shown offline.
type Cache struct {
	Tracks    []models.Track `json:"tracks"`
	FetchedAt time.Time      `json:"fetched_at"`

	path string
	mu   sync.Mutex
}

// NewCache returns a cache stored at path.
func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Load reads the cache file. A missing file yields an empty cache.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		c.Tracks = []models.Track{}
		c.FetchedAt = time.Time{}
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, c)
}

// Store replaces the cached listing and writes it to disk.
func (c *Cache) Store(tracks []models.Track, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Tracks = tracks
	c.FetchedAt = at

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}

// Remove drops a track from the cached listing without touching disk.
func (c *Cache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := models.IndexOf(c.Tracks, id)
	if i < 0 {
		return false
	}
	c.Tracks = models.Remove(c.Tracks, i)
	return true
}
