// Package cache holds GPU texture handles keyed by viewer and pyramid level.
//
// # Cache[K, V]
//
// A small thread-safe map with an optional soft limit. When the limit is
// exceeded the least recently used quarter is evicted and every evicted
// value is passed to the eviction callback.
//
//	c := cache.New[string, int](100, nil)
//	c.Set("key", 42)
//	value, ok := c.Get("key")
//
// # TextureCache[H, F]
//
// Stores one texture handle per (viewer, level) pair together with the
// fingerprint of the display parameters that produced it. A query whose
// fingerprint differs from the stored one evicts the entry: the texture is
// stale and must be rebuilt. Handles leave the cache through the release
// callback so the owner can free the GPU resource.
//
//	tc := cache.NewTextureCache[*Texture, Fingerprint](func(t *Texture) { t.Destroy() })
//	if h, ok := tc.Query(viewer, level, fp); ok {
//		// reuse h
//	}
//
// # Thread Safety
//
// Both types are safe for concurrent use. Callbacks run with the cache lock
// held and must not call back into the cache.
package cache
