package cache

import "time"

// memorySweepInterval paces expired-entry cleanup in the hot layer
const memorySweepInterval = 10 * time.Minute

// LayeredCache fronts the disk cache with a memory cache. Batch runs verify
// many claims against the same book, so the same chunk and query texts
// recur; the hot layer absorbs those repeats while the disk layer keeps
// vectors across process restarts.
type LayeredCache struct {
	hot  Cache
	cold Cache
}

func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		hot:  NewMemoryCache(memoryTTL, memorySweepInterval),
		cold: NewDiskCache(diskDir, diskTTL),
	}
}

// Get checks the hot layer first and promotes disk hits into memory.
func (l *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := l.hot.Get(key); found {
		return val, true
	}
	if val, found := l.cold.Get(key); found {
		_ = l.hot.Set(key, val, 0)
		return val, true
	}
	return nil, false
}

// Set writes through to both layers
func (l *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := l.hot.Set(key, value, ttl); err != nil {
		return err
	}
	return l.cold.Set(key, value, ttl)
}

func (l *LayeredCache) Delete(key string) error {
	_ = l.hot.Delete(key)
	return l.cold.Delete(key)
}

func (l *LayeredCache) Clear() error {
	_ = l.hot.Clear()
	return l.cold.Clear()
}
