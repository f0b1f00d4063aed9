// Package emitcache provides an incremental cache for emission passes.
//
// Watch-mode rebuilds re-report every discovered module, but most stubs
// come out byte-identical between passes. The cache records the content
// hash of each stub written, letting a later pass skip writes whose
// destination already holds identical content.
//
// The cache is intentionally conservative: a schema-version or
// options-hash mismatch discards it entirely and the next pass writes
// everything from scratch. It assumes backends retain what was written;
// deleting the destination directory also deletes the cache file, which
// guarantees a fresh pass.
package emitcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// SchemaVersion is bumped when the cache format or the stub rendering
// format changes. A mismatch forces a full rewrite.
const SchemaVersion = 1

// Cache records what was written by the last successful pass. It is
// safe for concurrent use; the write pipeline records entries from
// multiple goroutines.
type Cache struct {
	// V is the schema version. Must match SchemaVersion or the cache
	// is invalid.
	V int `json:"v"`

	// OptionsHash fingerprints the emission options (bases, public
	// path, mode). Any change invalidates every entry.
	OptionsHash string `json:"optionsHash"`

	// Stubs maps destination paths to the SHA-256 hex digest of the
	// content last written there.
	Stubs map[string]string `json:"stubs"`

	mu sync.Mutex
}

// New creates an empty cache with the current schema version.
func New(optionsHash string) *Cache {
	return &Cache{
		V:           SchemaVersion,
		OptionsHash: optionsHash,
		Stubs:       make(map[string]string),
	}
}

// CachePath returns the cache file path inside the destination
// directory.
func CachePath(destinationBase string) string {
	return filepath.Join(destinationBase, ".assetstub-cache")
}

// Load reads and parses a cache file from disk, checking it against
// the given options hash. Returns nil if the file doesn't exist, is
// invalid, or was produced by different options — callers treat nil as
// "cache miss" and write everything.
func Load(path, optionsHash string) *Cache {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}
	if c.V != SchemaVersion || c.OptionsHash != optionsHash {
		return nil
	}
	if c.Stubs == nil {
		c.Stubs = make(map[string]string)
	}
	return &c
}

// Save writes the cache to disk atomically (write to temp, rename).
// A failed save just means the next pass won't benefit from caching.
func Save(path string, c *Cache) error {
	c.mu.Lock()
	data, err := json.Marshal(c, jsontext.WithIndent("  "))
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing cache temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming cache file: %w", err)
	}

	return nil
}

// Delete removes the cache file from disk. Errors are ignored (file
// may not exist).
func Delete(path string) {
	os.Remove(path)
}

// Unchanged reports whether dest already holds content according to
// the cache.
func (c *Cache) Unchanged(dest string, content []byte) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Stubs[dest] == hashContent(content)
}

// Record notes that dest now holds content.
func (c *Cache) Record(dest string, content []byte) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Stubs[dest] = hashContent(content)
}

// Len returns the number of recorded destinations.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Stubs)
}

// HashOptions fingerprints the option values that affect stub content
// or placement.
func HashOptions(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:])
}

func hashContent(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
