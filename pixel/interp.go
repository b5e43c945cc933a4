// Package pixel implements the per-pixel transforms applied to map rasters
// before upload: transparent color keying, value interpretation
// (thresholding into occupancy categories) and color mapping.
//
// All transforms operate in place on tightly packed, non-premultiplied RGBA8
// buffers. They are pure per-pixel maps without cross-pixel state, so a
// buffer may be split into arbitrary row bands and processed in any order.
package pixel

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects how pixel intensity is interpreted.
type Mode uint8

const (
	// ModeRaw leaves pixels unchanged.
	ModeRaw Mode = iota

	// ModeTrinary collapses intensity into free, occupied and unknown.
	ModeTrinary

	// ModeScale maps mid-range intensity onto a continuous 0-99 scale.
	// Mid-range pixels that are not fully opaque are unknown.
	ModeScale
)

// Occupancy values written into R=G=B by value interpretation.
const (
	ValueFree     uint8 = 0
	ValueOccupied uint8 = 100
	ValueUnknown  uint8 = 255
)

var modeNames = [...]string{
	ModeRaw:     "raw",
	ModeTrinary: "trinary",
	ModeScale:   "scale",
}

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// ParseMode parses a mode name as produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return ModeRaw, fmt.Errorf("pixel: unknown mode %q", s)
}

// ValueInterpretation turns pixel intensity into occupancy values.
//
// The occupancy probability of a pixel is p = 1 - avg(R,G,B)/255, so dark
// pixels are occupied. Negate flips this so that bright pixels are occupied.
//
//	p > Occupied -> ValueOccupied
//	p < Free     -> ValueFree
//	otherwise    -> ValueUnknown in ModeTrinary or for non-opaque pixels,
//	                round(99*(p-Free)/(Occupied-Free)) in ModeScale
//
// The value is replicated into R, G and B; alpha is passed through.
// The scale formula is exact: with the default thresholds an opaque
// mid-gray of 128 maps to 66.
//
// ValueInterpretation is comparable and used as part of texture fingerprints.
type ValueInterpretation struct {
	Mode     Mode
	Free     float64
	Occupied float64
	Negate   bool
}

// DefaultInterpretation returns trinary interpretation with the usual
// occupancy-grid thresholds.
func DefaultInterpretation() ValueInterpretation {
	return ValueInterpretation{
		Mode:     ModeTrinary,
		Free:     0.196,
		Occupied: 0.65,
	}
}

// IsRaw reports whether the interpretation leaves pixels unchanged.
func (v ValueInterpretation) IsRaw() bool {
	return v.Mode == ModeRaw
}

// Occupancy returns the occupancy probability of an RGB triple in [0, 1].
func (v ValueInterpretation) Occupancy(r, g, b uint8) float64 {
	p := (float64(r) + float64(g) + float64(b)) / (3 * 255)
	if !v.Negate {
		p = 1 - p
	}
	return p
}

// Value returns the occupancy value of one pixel.
// In ModeRaw the red channel is returned unchanged.
func (v ValueInterpretation) Value(r, g, b, a uint8) uint8 {
	if v.Mode == ModeRaw {
		return r
	}

	p := v.Occupancy(r, g, b)
	switch {
	case p > v.Occupied:
		return ValueOccupied
	case p < v.Free:
		return ValueFree
	case v.Mode == ModeTrinary || a != 255:
		return ValueUnknown
	}

	span := v.Occupied - v.Free
	if span <= 0 {
		return ValueFree
	}
	s := math.Round(99 * (p - v.Free) / span)
	//nolint:gosec // G115: s is clamped to [0,99]
	return uint8(min(max(s, 0), 99))
}

// Apply rewrites every pixel of a packed RGBA8 buffer in place.
func (v ValueInterpretation) Apply(buf []byte) {
	if v.Mode == ModeRaw {
		return
	}
	for i := 0; i+3 < len(buf); i += 4 {
		val := v.Value(buf[i], buf[i+1], buf[i+2], buf[i+3])
		buf[i] = val
		buf[i+1] = val
		buf[i+2] = val
	}
}
