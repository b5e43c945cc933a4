package cache

import (
	"slices"
	"sync"
)

// Cache is a generic thread-safe cache with an optional soft limit.
// When the cache exceeds softLimit, least recently used entries are evicted.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	entries   map[K]*cacheEntry[V]
	softLimit int
	tick      int64 // Monotonic access counter
	onEvict   func(K, V)
}

// cacheEntry holds a cached value with its access time.
type cacheEntry[V any] struct {
	value V
	atime int64
}

// New creates a new cache with the given soft limit.
// A softLimit of 0 means unlimited. onEvict, if not nil, receives every
// value removed by Delete, DeleteFunc, Clear or soft-limit eviction. Values
// overwritten by Set are not passed to it.
func New[K comparable, V any](softLimit int, onEvict func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		entries:   make(map[K]*cacheEntry[V]),
		softLimit: softLimit,
		onEvict:   onEvict,
	}
}

// Get retrieves a value from the cache.
// Returns (value, true) if found, (zero, false) otherwise.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	c.tick++
	entry.atime = c.tick
	return entry.value, true
}

// Set stores a value and returns the value it replaced, if any.
// If the cache exceeds softLimit after insertion, oldest entries are evicted.
func (c *Cache[K, V]) Set(key K, value V) (old V, replaced bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		old, replaced = e.value, true
	}

	c.tick++
	c.entries[key] = &cacheEntry[V]{value: value, atime: c.tick}

	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest(key)
	}
	return old, replaced
}

// Delete removes an entry from the cache.
// Returns true if the entry was found and removed.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	delete(c.entries, key)
	c.evicted(key, e.value)
	return true
}

// DeleteFunc removes every entry for which del returns true and reports how
// many were removed.
func (c *Cache[K, V]) DeleteFunc(del func(K, V) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if del(k, e.value) {
			delete(c.entries, k)
			c.evicted(k, e.value)
			n++
		}
	}
	return n
}

// Clear removes all entries from the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		c.evicted(k, e.value)
	}
	c.entries = make(map[K]*cacheEntry[V])
	c.tick = 0
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Capacity returns the soft limit of the cache.
func (c *Cache[K, V]) Capacity() int {
	return c.softLimit
}

// Keys returns a snapshot of the keys currently cached.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// evicted passes a removed entry to the callback.
// Caller must hold c.mu.
func (c *Cache[K, V]) evicted(key K, value V) {
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}

// evictOldest removes the least recently used entries until a quarter of
// the soft limit is free. keep is never evicted.
// Caller must hold c.mu.
func (c *Cache[K, V]) evictOldest(keep K) {
	targetSize := max(1, c.softLimit*3/4)
	toEvict := len(c.entries) - targetSize
	if toEvict <= 0 {
		return
	}

	type entry struct {
		key   K
		atime int64
	}
	entries := make([]entry, 0, len(c.entries))
	for key, e := range c.entries {
		if key != keep {
			entries = append(entries, entry{key: key, atime: e.atime})
		}
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.atime < b.atime:
			return -1
		case a.atime > b.atime:
			return 1
		}
		return 0
	})

	for i := 0; i < toEvict && i < len(entries); i++ {
		k := entries[i].key
		v := c.entries[k].value
		delete(c.entries, k)
		c.evicted(k, v)
	}
}
