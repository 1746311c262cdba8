package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DiskCache persists embedding vectors across runs so re-indexing a novel
// does not re-embed unchanged chunks. One JSON file per key; expiry is
// checked on read and stale files are removed lazily.
type DiskCache struct {
	dir        string
	defaultTTL time.Duration
}

func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, defaultTTL: ttl}
}

type diskRecord struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (d *DiskCache) Get(key string) ([]byte, bool) {
	path := d.keyPath(key)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var rec diskRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		// Unreadable records count as misses and get rewritten on Set.
		return nil, false
	}
	if time.Now().After(rec.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false
	}
	return rec.Data, true
}

// Set stores a vector under key. A zero ttl uses the cache default.
func (d *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = d.defaultTTL
	}
	raw, err := json.Marshal(diskRecord{Data: value, ExpiresAt: time.Now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("marshal cache record: %w", err)
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(d.keyPath(key), raw, 0644); err != nil {
		return fmt.Errorf("write cache record: %w", err)
	}
	return nil
}

func (d *DiskCache) Delete(key string) error {
	return os.Remove(d.keyPath(key))
}

// Clear removes the whole cache directory
func (d *DiskCache) Clear() error {
	return os.RemoveAll(d.dir)
}

func (d *DiskCache) keyPath(key string) string {
	return filepath.Join(d.dir, key+".json")
}
