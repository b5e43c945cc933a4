package pixel

import "github.com/gogpu/maptex/internal/parallel"

// minBandRows is the smallest number of rows handed to one worker.
const minBandRows = 64

// ColorKey makes pixels of one RGB color fully transparent.
// The zero value is disabled.
type ColorKey struct {
	Enabled bool
	R, G, B uint8
}

// Key returns an enabled color key for the given color.
func Key(r, g, b uint8) ColorKey {
	return ColorKey{Enabled: true, R: r, G: g, B: b}
}

// Matches reports whether an RGB triple equals the key color.
func (k ColorKey) Matches(r, g, b uint8) bool {
	return k.Enabled && k.R == r && k.G == g && k.B == b
}

// Apply clears the alpha of every matching pixel in place.
func (k ColorKey) Apply(buf []byte) {
	if !k.Enabled {
		return
	}
	for i := 0; i+3 < len(buf); i += 4 {
		if k.Matches(buf[i], buf[i+1], buf[i+2]) {
			buf[i+3] = 0
		}
	}
}

// Pipeline is the full pixel transform applied before upload:
// color key, then value interpretation, then color map.
type Pipeline struct {
	Key            ColorKey
	Interpretation ValueInterpretation
	ColorMap       ColorMap
}

// IsIdentity reports whether Apply leaves every buffer unchanged.
func (p Pipeline) IsIdentity() bool {
	return !p.Key.Enabled && p.Interpretation.IsRaw() && p.ColorMap.IsIdentity()
}

// Apply transforms a packed RGBA8 buffer in place.
func (p Pipeline) Apply(buf []byte) {
	if p.IsIdentity() {
		return
	}
	p.Key.Apply(buf)
	p.Interpretation.Apply(buf)
	p.ColorMap.Apply(buf)
}

// ApplyRows transforms a packed RGBA8 buffer of the given row length
// (in bytes), splitting it into row bands executed on pool. A nil pool runs
// inline. ApplyRows returns once every band is done.
func (p Pipeline) ApplyRows(pool *parallel.WorkerPool, buf []byte, rowBytes int) {
	if p.IsIdentity() || rowBytes <= 0 {
		return
	}
	rows := len(buf) / rowBytes
	pool.ForEachBand(rows, minBandRows, func(lo, hi int) {
		p.Apply(buf[lo*rowBytes : hi*rowBytes])
	})
}
