package cache

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/dshills/patchdiff/internal/violation"
)

// schemaVersion is bumped whenever Entry changes shape.
const schemaVersion uint16 = 1

const entryExt = ".mp"

// Entry is a parsed report stored on disk.
type Entry struct {
	Schema    uint16             `msgpack:"schema"`
	Key       string             `msgpack:"key"`
	CreatedAt time.Time          `msgpack:"createdAt"`
	TTL       int                `msgpack:"ttl"`
	Files     []string           `msgpack:"files"`
	Records   []violation.Record `msgpack:"records"`
}

// Cache stores parsed violation reports keyed by the hash of their inputs,
// so re-running a diff against an unchanged base report skips parsing.
type Cache struct {
	mu         sync.RWMutex
	dir        string
	ttlSeconds int
	enabled    bool
}

// New creates a new Cache. If dir is empty, uses the default cache directory.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if dir == "" {
		d, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{
		dir:        dir,
		ttlSeconds: ttlSeconds,
		enabled:    true,
	}, nil
}

// Get returns the cached collection for key. Misses, expired entries and
// entries written by another schema version all report false.
func (c *Cache) Get(key string) (violation.Collection, bool) {
	if c == nil || !c.enabled {
		return nil, false
	}
	c.mu.RLock()
	entry, err := c.read(c.entryPath(key))
	c.mu.RUnlock()
	if err != nil || entry.Schema != schemaVersion {
		return nil, false
	}
	if c.expired(entry) {
		c.mu.Lock()
		os.Remove(c.entryPath(key))
		c.mu.Unlock()
		return nil, false
	}

	b := violation.NewBuilder()
	for _, f := range entry.Files {
		b.Touch(f)
	}
	if err := b.AddAll(entry.Records); err != nil {
		return nil, false
	}
	return b.Build(), true
}

// Put stores a collection in the cache.
func (c *Cache) Put(key string, coll violation.Collection) error {
	if c == nil || !c.enabled {
		return nil
	}
	entry := Entry{
		Schema:    schemaVersion,
		Key:       HashKey(key),
		CreatedAt: time.Now(),
		TTL:       c.ttlSeconds,
		Files:     coll.Paths(),
		Records:   coll.Records(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.entryPath(key)
	f, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(&entry); err != nil {
		f.Close()
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return os.Rename(f.Name(), path)
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if c == nil || !c.enabled || c.dir == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	var errs []error
	for _, e := range entries {
		if filepath.Ext(e.Name()) == entryExt {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Stats returns cache statistics.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	Records    int    `json:"records"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if !c.enabled || c.dir == "" {
		return stats, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != entryExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		entry, err := c.read(filepath.Join(c.dir, e.Name()))
		if err != nil {
			continue
		}
		stats.Records += len(entry.Records)
		if c.expired(entry) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// BuildCacheKey creates a cache key from the report format, the source root
// used for path normalization and a digest of the report contents.
func BuildCacheKey(format, sourceRoot, contentDigest string) string {
	return HashKey(fmt.Sprintf("%s:%s:%s", format, sourceRoot, contentDigest))
}

// DigestReader returns the hex SHA-256 of everything read from r.
func DigestReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func (c *Cache) read(path string) (Entry, error) {
	var entry Entry
	f, err := os.Open(path)
	if err != nil {
		return entry, err
	}
	defer f.Close()
	err = msgpack.NewDecoder(f).Decode(&entry)
	return entry, err
}

func (c *Cache) expired(entry Entry) bool {
	return c.ttlSeconds > 0 && time.Since(entry.CreatedAt) > time.Duration(c.ttlSeconds)*time.Second
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, HashKey(key)+entryExt)
}

func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "patchdiff"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "patchdiff"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "patchdiff", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "patchdiff", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "patchdiff"), nil
	}
}
