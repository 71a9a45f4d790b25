package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// entry is the on-disk form of a cached model response.
type entry struct {
	Key       string    `json:"key"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
	TTL       int       `json:"ttl"`
}

// Cache is a file-based cache for model responses, keyed by the full
// request (provider, model, prompt). A disabled cache misses on every
// Get and drops every Put.
type Cache struct {
	dir        string
	ttlSeconds int
	enabled    bool
}

// New creates a Cache rooted at dir. An empty dir selects the platform
// default cache directory.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if dir == "" {
		d, err := defaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{dir: dir, ttlSeconds: ttlSeconds, enabled: true}, nil
}

// Get returns the cached response for key, or ("", false) on a miss or
// expired entry. Expired entries are removed on read.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	path := c.entryPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return "", false
	}
	if c.ttlSeconds > 0 && time.Since(e.CreatedAt) > time.Duration(c.ttlSeconds)*time.Second {
		os.Remove(path)
		return "", false
	}
	return e.Response, true
}

// Put stores a response under key.
func (c *Cache) Put(key, response string) error {
	if !c.enabled {
		return nil
	}
	e := entry{
		Key:       hashKey(key),
		Response:  response,
		CreatedAt: time.Now(),
		TTL:       c.ttlSeconds,
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return os.WriteFile(c.entryPath(key), data, 0o644)
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled || c.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			os.Remove(filepath.Join(c.dir, e.Name()))
		}
	}
	return nil
}

// Stats describes the cache contents.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// Stats walks the cache directory and reports entry counts and sizes.
func (c *Cache) Stats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if !c.enabled || c.dir == "" {
		return stats, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, de := range entries {
		if filepath.Ext(de.Name()) != ".json" {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		data, err := os.ReadFile(filepath.Join(c.dir, de.Name()))
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		if c.ttlSeconds > 0 && time.Since(e.CreatedAt) > time.Duration(c.ttlSeconds)*time.Second {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string { return c.dir }

// Enabled reports whether caching is active.
func (c *Cache) Enabled() bool { return c.enabled }

// BuildKey derives the cache key for an analysis request. The prompt
// already embeds the code and severity threshold, so provider, model
// and prompt together uniquely identify a response.
func BuildKey(provider, model, prompt string) string {
	return hashKey(fmt.Sprintf("%s:%s:%s", provider, model, prompt))
}

func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, hashKey(key)+".json")
}

func defaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "scorn"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "scorn"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "scorn", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "scorn", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "scorn"), nil
	}
}
