// Package cache provides on-disk caching for shop API page responses.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spiffcs/storefront/internal/constants"
	"github.com/spiffcs/storefront/internal/log"
	"github.com/spiffcs/storefront/internal/model"
)

// Version should be incremented when the entry format changes so old
// entries are ignored.
const Version = 1

// Key identifies a cached page. Pages from different API hosts never share
// an entry.
type Key struct {
	BaseURL string
	Page    int
}

// Entry is a cached page with its fetch time.
type Entry struct {
	Page     model.Page `json:"page"`
	BaseURL  string     `json:"baseUrl"`
	CachedAt time.Time  `json:"cachedAt"`
	Version  int        `json:"version"`
}

// Stats summarizes the cache contents.
type Stats struct {
	Total int
	Valid int
	Bytes int64
	// Oldest is the fetch time of the oldest entry, zero when empty.
	Oldest time.Time
}

// Cacher defines the page cache operations used by the HTTP client.
type Cacher interface {
	Get(key Key) (*model.Page, bool)
	Set(key Key, page *model.Page) error
	Clear() error
	Stats() (*Stats, error)
}

// Ensure Cache implements Cacher interface.
var _ Cacher = (*Cache)(nil)

// Cache stores pages as JSON files, one per base URL and page number.
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long an entry stays valid. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithDir overrides the cache directory.
func WithDir(dir string) Option {
	return func(c *Cache) {
		c.dir = dir
	}
}

// New creates a cache in the user cache dir unless WithDir is given.
func New(opts ...Option) (*Cache, error) {
	c := &Cache{ttl: constants.PageCacheTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	if c.dir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		c.dir = filepath.Join(cacheDir, "storefront", "pages")
	}
	if err := os.MkdirAll(c.dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return c, nil
}

// Dir returns the directory entries are stored in.
func (c *Cache) Dir() string {
	return c.dir
}

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// fileName hashes the base URL so any scheme, host or path is a safe name.
func (c *Cache) fileName(key Key) string {
	sum := sha256.Sum256([]byte(strings.TrimRight(key.BaseURL, "/")))
	return fmt.Sprintf("page_%s_%d.json", hex.EncodeToString(sum[:6]), key.Page)
}

// Get returns a cached page if present, of the current version and younger
// than the TTL.
func (c *Cache) Get(key Key) (*model.Page, bool) {
	if key.Page < constants.FirstPage {
		return nil, false
	}

	name := c.fileName(key)
	raw, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}

	if entry.Version != Version {
		log.Debug("cache version mismatch", "cached", entry.Version, "current", Version, "key", name)
		return nil, false
	}

	if c.now().Sub(entry.CachedAt) > c.ttl {
		return nil, false
	}

	return &entry.Page, true
}

// Set stores a page.
func (c *Cache) Set(key Key, page *model.Page) error {
	if key.Page < constants.FirstPage || page == nil {
		return nil
	}

	entry := Entry{
		Page:     *page,
		BaseURL:  key.BaseURL,
		CachedAt: c.now(),
		Version:  Version,
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(c.dir, c.fileName(key)), raw, 0600)
}

// Clear removes all cached entries
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

// Stats counts entries and how many are still within the TTL.
func (c *Cache) Stats() (*Stats, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	now := c.now()

	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "page_") {
			continue
		}
		path := filepath.Join(c.dir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		stats.Total++
		stats.Bytes += int64(len(raw))

		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.Version == Version && now.Sub(entry.CachedAt) <= c.ttl {
			stats.Valid++
		}
		if stats.Oldest.IsZero() || entry.CachedAt.Before(stats.Oldest) {
			stats.Oldest = entry.CachedAt
		}
	}

	return stats, nil
}
