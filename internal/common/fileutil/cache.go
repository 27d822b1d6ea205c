package fileutil

import (
	"os"
	"sync"
	"time"
)

// Cache is a process-local cache for values parsed from files, keyed by
// file path and invalidated when the file's modification time changes.
type Cache[T any] struct {
	name     string
	capacity int
	ttl      time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry[T]
}

type cacheEntry[T any] struct {
	data     T
	modTime  time.Time
	size     int64
	loadedAt time.Time
}

// NewCache creates a cache with the given name, capacity and TTL.
func NewCache[T any](name string, capacity int, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		name:     name,
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]cacheEntry[T]),
	}
}

// Name returns the cache name.
func (c *Cache[T]) Name() string {
	return c.name
}

// Size returns the number of cached entries.
func (c *Cache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Store caches data for the given file path using the file info for
// staleness tracking.
func (c *Cache[T]) Store(filePath string, data T, fi os.FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.capacity {
		c.evictLocked()
	}
	c.entries[filePath] = cacheEntry[T]{
		data:     data,
		modTime:  fi.ModTime(),
		size:     fi.Size(),
		loadedAt: time.Now(),
	}
}

// Load returns the cached data for the given file path, if present and not
// expired. It does not consult the filesystem.
func (c *Cache[T]) Load(filePath string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[filePath]
	if !ok || c.expired(entry) {
		var zero T
		return zero, false
	}
	return entry.data, true
}

// LoadLatest returns the cached data for the file if it is still current,
// otherwise it invokes the loader and caches the result.
func (c *Cache[T]) LoadLatest(filePath string, loader func() (T, error)) (T, error) {
	fi, err := os.Stat(filePath)
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	entry, ok := c.entries[filePath]
	c.mu.Unlock()

	if ok && !c.expired(entry) && entry.modTime.Equal(fi.ModTime()) && entry.size == fi.Size() {
		return entry.data, nil
	}

	data, err := loader()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Store(filePath, data, fi)
	return data, nil
}

// Invalidate removes the cached entry for the given file path.
func (c *Cache[T]) Invalidate(filePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, filePath)
}

func (c *Cache[T]) expired(entry cacheEntry[T]) bool {
	return c.ttl > 0 && time.Since(entry.loadedAt) > c.ttl
}

// evictLocked drops expired entries first; if none are expired it drops the
// oldest entry. Caller must hold the mutex.
func (c *Cache[T]) evictLocked() {
	var (
		oldestKey  string
		oldestTime time.Time
		evicted    bool
	)
	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
			evicted = true
			continue
		}
		if oldestKey == "" || entry.loadedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.loadedAt
		}
	}
	if !evicted && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
