// Package cache persists serialized member records across analysis runs, so
// synthesized members survive incremental re-analysis without being rebuilt
// from source.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Cache is a JSON-backed store of member records keyed by
// "<class fullname>.<member name>".
type Cache struct {
	path    string
	records map[string]map[string]any
}

// New creates a cache backed by the file at path. Nothing is read until
// Load.
func New(path string) *Cache {
	return &Cache{path: path, records: map[string]map[string]any{}}
}

// Load reads the cache file. A missing file is not an error; a corrupt file
// is discarded and replaced by an empty cache.
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.records = map[string]map[string]any{}
			return nil
		}
		return fmt.Errorf("reading cache file %s: %w", c.path, err)
	}
	if len(data) == 0 {
		c.records = map[string]map[string]any{}
		return nil
	}
	if err := json.Unmarshal(data, &c.records); err != nil {
		// Corrupted cache: start fresh rather than failing the run.
		c.records = map[string]map[string]any{}
	}
	return nil
}

// Save writes the cache file, creating parent directories as needed. Output
// is deterministic: encoding/json emits map keys sorted.
func (c *Cache) Save() error {
	data, err := json.MarshalIndent(c.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating cache directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing cache file %s: %w", c.path, err)
	}
	return nil
}

// Put stores the record for one member of a class.
func (c *Cache) Put(classFQN, member string, rec map[string]any) {
	c.records[classFQN+"."+member] = rec
}

// Get returns the stored record for one member of a class.
func (c *Cache) Get(classFQN, member string) (map[string]any, bool) {
	rec, ok := c.records[classFQN+"."+member]
	return rec, ok
}

// Records returns all stored records ordered by key.
func (c *Cache) Records() []map[string]any {
	keys := make([]string, 0, len(c.records))
	for k := range c.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]map[string]any, len(keys))
	for i, k := range keys {
		out[i] = c.records[k]
	}
	return out
}

// Len reports the number of stored records.
func (c *Cache) Len() int { return len(c.records) }
