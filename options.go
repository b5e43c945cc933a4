package maptex

import (
	"log/slog"
	"slices"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/maptex/pyramid"
)

// DefaultCropThreshold is the long edge, in pixels, above which both the
// destination and the selected level must lie before an image is cropped.
const DefaultCropThreshold = 6000

// Option configures an Engine during creation.
//
// Example:
//
//	eng := maptex.NewEngine(up,
//	    maptex.WithLadder(4000, 1000, 250),
//	    maptex.WithCropThreshold(4096),
//	)
type Option func(*config)

// config holds the engine configuration.
type config struct {
	ladder        []int
	cropThreshold int
	resampler     xdraw.Interpolator
	workers       int
	logger        *slog.Logger
}

// defaultConfig returns the default engine configuration.
func defaultConfig() config {
	return config{
		ladder:        slices.Clone(pyramid.DefaultLadder),
		cropThreshold: DefaultCropThreshold,
		resampler:     xdraw.ApproxBiLinear,
		workers:       1,
	}
}

// WithLadder sets the pyramid long-edge thresholds used by Engine.Pyramid.
// Non-positive and duplicate entries are dropped. An empty ladder builds
// pyramids holding only the original raster.
func WithLadder(sizes ...int) Option {
	return func(c *config) {
		c.ladder = pyramid.NormalizeLadder(sizes)
	}
}

// WithCropThreshold sets the crop threshold. Zero or less disables
// cropping.
func WithCropThreshold(px int) Option {
	return func(c *config) {
		c.cropThreshold = px
	}
}

// WithResampler sets the interpolator used to build pyramid levels.
// Use [pyramid.Resampler] to look one up by name.
func WithResampler(r xdraw.Interpolator) Option {
	return func(c *config) {
		if r != nil {
			c.resampler = r
		}
	}
}

// WithWorkers sets how many goroutines the pixel pipeline may use inside
// one Update call. Values of 1 or less process pixels on the calling
// goroutine.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithLogger sets the engine logger. By default the engine logs through
// the package logger (see [SetLogger]).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}
