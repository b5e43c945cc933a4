package cache

import "sync/atomic"

// ViewerID identifies one consumer of a shared pyramid, such as a map
// layer shown in a particular window.
type ViewerID uint64

// Key addresses one cached texture.
type Key struct {
	Viewer ViewerID
	// Level is the pyramid level threshold the texture was built from.
	Level int
}

type textureEntry[H, F comparable] struct {
	handle H
	fp     F
}

// TextureCache maps (viewer, level) to a texture handle and the fingerprint
// of the display parameters it was built with. It is unbounded; entries
// leave it on fingerprint mismatch, replacement, RemoveViewer or Clear.
//
// Handles must be comparable without panicking (pointers or small structs).
type TextureCache[H, F comparable] struct {
	entries *Cache[Key, textureEntry[H, F]]
	release func(H)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewTextureCache returns an empty cache. release, if not nil, is called
// exactly once for every handle that leaves the cache.
func NewTextureCache[H, F comparable](release func(H)) *TextureCache[H, F] {
	tc := &TextureCache[H, F]{release: release}
	tc.entries = New[Key, textureEntry[H, F]](0, func(_ Key, e textureEntry[H, F]) {
		tc.drop(e.handle)
	})
	return tc
}

func (tc *TextureCache[H, F]) drop(h H) {
	tc.evictions.Add(1)
	if tc.release != nil {
		tc.release(h)
	}
}

// Query returns the handle stored for (viewer, level) if its fingerprint
// equals fp. A stored entry with a different fingerprint is evicted and
// reported as a miss.
func (tc *TextureCache[H, F]) Query(viewer ViewerID, level int, fp F) (H, bool) {
	key := Key{Viewer: viewer, Level: level}
	e, ok := tc.entries.Get(key)
	if ok && e.fp == fp {
		tc.hits.Add(1)
		return e.handle, true
	}
	if ok {
		tc.entries.Delete(key)
	}
	tc.misses.Add(1)
	var zero H
	return zero, false
}

// Store records handle for (viewer, level). A different handle previously
// stored under the same key is released.
func (tc *TextureCache[H, F]) Store(viewer ViewerID, level int, handle H, fp F) {
	old, replaced := tc.entries.Set(Key{Viewer: viewer, Level: level}, textureEntry[H, F]{handle: handle, fp: fp})
	if replaced && old.handle != handle {
		tc.drop(old.handle)
	}
}

// RemoveViewer evicts every entry of viewer and returns how many there were.
func (tc *TextureCache[H, F]) RemoveViewer(viewer ViewerID) int {
	return tc.entries.DeleteFunc(func(k Key, _ textureEntry[H, F]) bool {
		return k.Viewer == viewer
	})
}

// Clear evicts all entries.
func (tc *TextureCache[H, F]) Clear() {
	tc.entries.Clear()
}

// Len returns the number of cached textures.
func (tc *TextureCache[H, F]) Len() int {
	return tc.entries.Len()
}

// Keys returns a snapshot of the cached keys.
func (tc *TextureCache[H, F]) Keys() []Key {
	return tc.entries.Keys()
}

// Stats returns cache statistics.
func (tc *TextureCache[H, F]) Stats() Stats {
	return Stats{
		Len:       tc.entries.Len(),
		Hits:      tc.hits.Load(),
		Misses:    tc.misses.Load(),
		Evictions: tc.evictions.Load(),
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Hits is the number of queries answered from the cache.
	Hits uint64
	// Misses is the number of queries that found no usable entry.
	Misses uint64
	// Evictions is the number of handles released.
	Evictions uint64
}

// HitRate returns the cache hit rate (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
