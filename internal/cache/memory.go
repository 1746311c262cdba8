package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache holds serialized embedding vectors in process memory. It is
// the hot layer: lookups during a single indexing or verification run hit
// here before any disk read.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates a memory cache whose expired entries are swept
// every cleanupInterval.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := m.store.Get(key)
	if !found {
		return nil, false
	}
	return val.([]byte), true
}

// Set stores a vector under key. A zero ttl uses the cache default.
func (m *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	m.store.Set(key, value, ttl)
	return nil
}

func (m *MemoryCache) Delete(key string) error {
	m.store.Delete(key)
	return nil
}

func (m *MemoryCache) Clear() error {
	m.store.Flush()
	return nil
}
