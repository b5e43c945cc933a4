package cache

import (
	"testing"
)

type tex struct{ id int }

type fingerprint struct {
	key  bool
	mode int
}

func newTestCache() (*TextureCache[*tex, fingerprint], *[]*tex) {
	var released []*tex
	tc := NewTextureCache[*tex, fingerprint](func(t *tex) { released = append(released, t) })
	return tc, &released
}

func TestTextureCacheHit(t *testing.T) {
	tc, released := newTestCache()
	h := &tex{1}
	fp := fingerprint{mode: 1}

	if _, ok := tc.Query(1, 400, fp); ok {
		t.Fatal("empty cache should miss")
	}
	tc.Store(1, 400, h, fp)
	got, ok := tc.Query(1, 400, fp)
	if !ok || got != h {
		t.Fatalf("Query = (%v, %v), want stored handle", got, ok)
	}
	if _, ok := tc.Query(2, 400, fp); ok {
		t.Error("other viewer should miss")
	}
	if _, ok := tc.Query(1, 800, fp); ok {
		t.Error("other level should miss")
	}
	if len(*released) != 0 {
		t.Errorf("released %d handles, want 0", len(*released))
	}

	s := tc.Stats()
	if s.Hits != 1 || s.Misses != 3 || s.Len != 1 {
		t.Errorf("Stats = %+v", s)
	}
	if s.HitRate() != 0.25 {
		t.Errorf("HitRate() = %v, want 0.25", s.HitRate())
	}
}

func TestTextureCacheFingerprintMismatchEvicts(t *testing.T) {
	tc, released := newTestCache()
	h := &tex{1}
	tc.Store(1, 400, h, fingerprint{mode: 1})

	if _, ok := tc.Query(1, 400, fingerprint{mode: 2}); ok {
		t.Fatal("mismatched fingerprint should miss")
	}
	if tc.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after mismatch", tc.Len())
	}
	if len(*released) != 1 || (*released)[0] != h {
		t.Errorf("released = %v, want [h]", *released)
	}
	// The original fingerprint no longer hits either.
	if _, ok := tc.Query(1, 400, fingerprint{mode: 1}); ok {
		t.Error("evicted entry should not come back")
	}
	if tc.Stats().Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", tc.Stats().Evictions)
	}
}

func TestTextureCacheStoreReplaces(t *testing.T) {
	tc, released := newTestCache()
	a, b := &tex{1}, &tex{2}
	fp := fingerprint{}

	tc.Store(1, 0, a, fp)
	tc.Store(1, 0, a, fp)
	if len(*released) != 0 {
		t.Fatal("storing the same handle again should not release it")
	}
	tc.Store(1, 0, b, fingerprint{key: true})
	if len(*released) != 1 || (*released)[0] != a {
		t.Fatalf("released = %v, want [a]", *released)
	}
	if got, ok := tc.Query(1, 0, fingerprint{key: true}); !ok || got != b {
		t.Error("replacement not returned")
	}
}

func TestTextureCacheRemoveViewer(t *testing.T) {
	tc, released := newTestCache()
	fp := fingerprint{}
	tc.Store(1, 0, &tex{1}, fp)
	tc.Store(1, 500, &tex{2}, fp)
	tc.Store(2, 500, &tex{3}, fp)

	if n := tc.RemoveViewer(1); n != 2 {
		t.Errorf("RemoveViewer = %d, want 2", n)
	}
	if tc.Len() != 1 || len(*released) != 2 {
		t.Errorf("Len = %d released = %d, want 1 and 2", tc.Len(), len(*released))
	}
	if _, ok := tc.Query(2, 500, fp); !ok {
		t.Error("other viewer's entry should survive")
	}
	if keys := tc.Keys(); len(keys) != 1 || keys[0] != (Key{Viewer: 2, Level: 500}) {
		t.Errorf("Keys() = %v", keys)
	}

	tc.Clear()
	if tc.Len() != 0 || len(*released) != 3 {
		t.Errorf("after Clear: Len = %d released = %d", tc.Len(), len(*released))
	}
}

func TestTextureCacheNilRelease(t *testing.T) {
	tc := NewTextureCache[*tex, int](nil)
	tc.Store(1, 0, &tex{}, 1)
	tc.Store(1, 0, &tex{}, 2)
	tc.Query(1, 0, 3)
	tc.Clear()
	if tc.Stats().Evictions != 2 {
		t.Errorf("Evictions = %d, want 2", tc.Stats().Evictions)
	}
}
