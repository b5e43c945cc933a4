package pyramid

import (
	"fmt"
	"image"
	"math"
	"slices"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// FullResolution is the threshold of the level holding the original raster.
const FullResolution = 0

// DefaultLadder is the default descending list of long-edge thresholds.
var DefaultLadder = []int{8000, 4000, 2000, 1000, 500}

// Level is one resolution of a pyramid.
type Level struct {
	// Threshold is the ladder entry the level was built for, or
	// FullResolution for the original raster.
	Threshold int

	// Raster holds the level pixels. Its long edge never exceeds Threshold.
	Raster *Raster
}

// IsFull reports whether the level is the original raster.
func (l Level) IsFull() bool {
	return l.Threshold == FullResolution
}

// Pyramid is a SourceImage plus downscaled copies along a size ladder.
//
// A level is built for every ladder threshold below the long edge of the
// original, each one downscaled from its immediately larger sibling.
// Levels are never upsampled.
//
// Thread safety: Pyramid is immutable after New and safe for concurrent use.
type Pyramid struct {
	src *SourceImage

	// levels is ordered by decreasing resolution; levels[0] is the original.
	levels []Level
}

// Option configures pyramid construction.
type Option func(*options)

type options struct {
	ladder    []int
	resampler xdraw.Interpolator
}

func defaultOptions() options {
	return options{
		ladder:    DefaultLadder,
		resampler: xdraw.ApproxBiLinear,
	}
}

// WithLadder sets the long-edge thresholds. Non-positive and duplicate
// entries are dropped and the rest is sorted in descending order.
func WithLadder(sizes ...int) Option {
	return func(o *options) {
		o.ladder = NormalizeLadder(sizes)
	}
}

// WithResampler sets the interpolator used to build levels.
// A nil interpolator keeps the default (approximate bilinear).
func WithResampler(r xdraw.Interpolator) Option {
	return func(o *options) {
		if r != nil {
			o.resampler = r
		}
	}
}

// NormalizeLadder returns the positive, unique entries of sizes sorted in
// descending order.
func NormalizeLadder(sizes []int) []int {
	out := make([]int, 0, len(sizes))
	for _, s := range sizes {
		if s > 0 && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	slices.Reverse(out)
	return out
}

// Resampler returns the interpolator registered under name.
// Known names: nearest, approx-bilinear, bilinear, catmull-rom.
func Resampler(name string) (xdraw.Interpolator, error) {
	switch strings.ToLower(name) {
	case "nearest":
		return xdraw.NearestNeighbor, nil
	case "", "approx-bilinear":
		return xdraw.ApproxBiLinear, nil
	case "bilinear":
		return xdraw.BiLinear, nil
	case "catmull-rom":
		return xdraw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("pyramid: unknown resampler %q", name)
	}
}

// New builds a pyramid for src. The source becomes the full-resolution
// level and is not copied.
//
// New panics if src is nil.
func New(src *SourceImage, opts ...Option) *Pyramid {
	if src == nil {
		panic("pyramid: nil source image")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pyramid{
		src:    src,
		levels: []Level{{Threshold: FullResolution, Raster: src.Raster}},
	}

	w, h := src.Width(), src.Height()
	long := src.LongEdge()
	for _, t := range o.ladder {
		if t >= long {
			continue
		}
		// Sizes derive from the original so that rounding does not
		// accumulate down the chain; the long edge lands exactly on t.
		dw := max(1, w*t/long)
		dh := max(1, h*t/long)
		prev := p.levels[len(p.levels)-1].Raster
		p.levels = append(p.levels, Level{
			Threshold: t,
			Raster:    downscale(prev, dw, dh, o.resampler),
		})
	}

	return p
}

// downscale resamples src into a new dw x dh raster.
func downscale(src *Raster, dw, dh int, interp xdraw.Interpolator) *Raster {
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	interp.Scale(dst, dst.Rect, src.img, src.img.Rect, xdraw.Src, nil)
	unpremultiply(dst.Pix)
	return newRaster(&image.NRGBA{Pix: dst.Pix, Stride: dst.Stride, Rect: dst.Rect})
}

// Source returns the original image.
func (p *Pyramid) Source() *SourceImage {
	return p.src
}

// Full returns the full-resolution level.
func (p *Pyramid) Full() Level {
	return p.levels[0]
}

// Levels returns all levels ordered by decreasing resolution.
func (p *Pyramid) Levels() []Level {
	return slices.Clone(p.levels)
}

// Level returns the level built for threshold.
func (p *Pyramid) Level(threshold int) (Level, bool) {
	for _, l := range p.levels {
		if l.Threshold == threshold {
			return l, true
		}
	}
	return Level{}, false
}

// RequiredLongEdge returns the long edge, in source pixels, needed to show
// the image at a display size of w x h pixels without upsampling. The
// source long edge is scaled by the larger of the two axis ratios and
// capped at the source long edge.
func (p *Pyramid) RequiredLongEdge(w, h float64) int {
	sw, sh := float64(p.src.Width()), float64(p.src.Height())
	scale := max(w/sw, h/sh)
	if scale <= 0 || math.IsNaN(scale) {
		return 0
	}
	long := p.src.LongEdge()
	need := scale * float64(long)
	if need >= float64(long) {
		// Also catches +Inf and sizes too large for an int.
		return long
	}
	// The epsilon absorbs float error when the ratio was derived from an
	// exact pixel size.
	return int(math.Ceil(need - 1e-9))
}

// LevelFor returns the smallest level whose long edge covers a display
// size of w x h pixels, or the full-resolution level if none does.
//
// Selection is monotonic: a larger display size never yields a smaller
// level, so smooth zooming does not flicker between resolutions.
func (p *Pyramid) LevelFor(w, h float64) Level {
	need := p.RequiredLongEdge(w, h)
	for i := len(p.levels) - 1; i > 0; i-- {
		if p.levels[i].Raster.LongEdge() >= need {
			return p.levels[i]
		}
	}
	return p.levels[0]
}

// Stats describes the memory held by a pyramid.
type Stats struct {
	// Levels is the number of levels including the original.
	Levels int

	// Bytes is the pixel memory of all levels.
	Bytes int

	// DerivedBytes is the pixel memory of the downscaled levels only.
	DerivedBytes int
}

// Stats returns level count and memory usage.
func (p *Pyramid) Stats() Stats {
	s := Stats{Levels: len(p.levels)}
	for i, l := range p.levels {
		n := l.Raster.ByteSize()
		s.Bytes += n
		if i > 0 {
			s.DerivedBytes += n
		}
	}
	return s
}
