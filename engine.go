package maptex

import (
	"image"
	"log/slog"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/maptex/cache"
	"github.com/gogpu/maptex/cropgeom"
	"github.com/gogpu/maptex/internal/parallel"
	"github.com/gogpu/maptex/pyramid"
)

// State is the texture state of one viewer.
type State uint8

const (
	// StateEmpty means no texture is bound: paint nothing.
	StateEmpty State = iota

	// StateBound means a texture is bound and up to date.
	StateBound
)

// String returns the state name.
func (s State) String() string {
	if s == StateBound {
		return "bound"
	}
	return "empty"
}

// ViewState is the per-viewer texture bookkeeping. The zero value is an
// empty view. A ViewState belongs to exactly one viewer and is mutated only
// by Engine.Update and Engine.Release.
type ViewState struct {
	state  State
	viewer ViewerID

	// Last applied parameters.
	src     *pyramid.Pyramid
	size    vec.Vec2
	uv      rect.Rect
	fp      Fingerprint
	level   int
	cropped bool

	handle TextureHandle

	// owned is set when handle is not held by the texture cache and must
	// be destroyed by the view.
	owned bool
}

// State returns the current state.
func (v *ViewState) State() State { return v.state }

// Handle returns the bound texture, or nil.
func (v *ViewState) Handle() TextureHandle { return v.handle }

// Level returns the pyramid level of the bound texture.
func (v *ViewState) Level() int { return v.level }

// Stats counts engine activity.
type Stats struct {
	// Frames is the number of Update calls.
	Frames int

	// NoOps is the number of frames that reused the bound texture.
	NoOps int

	// CacheHits is the number of frames served by the texture cache.
	CacheHits int

	// Uploads is the number of textures uploaded.
	Uploads int

	// UploadErrors is the number of failed uploads.
	UploadErrors int

	// Crops is the number of cropped uploads.
	Crops int

	// Empty is the number of frames with nothing to paint.
	Empty int

	// PixelsProcessed is the number of pixels run through the pipeline or
	// uploaded.
	PixelsProcessed int

	// Cache is the texture cache state.
	Cache cache.Stats
}

// Engine turns display requests into textures. It owns the texture cache
// shared by all viewers.
//
// Engine is not safe for concurrent use: call Update for every viewer from
// the same goroutine, once per frame.
type Engine struct {
	cfg      config
	uploader Uploader
	cache    *cache.TextureCache[TextureHandle, Fingerprint]
	pool     *parallel.WorkerPool
	stats    Stats

	// sources is the pyramid each viewer's cached textures come from.
	sources map[ViewerID]*pyramid.Pyramid
}

// NewEngine returns an engine uploading through up.
//
// NewEngine panics if up is nil.
func NewEngine(up Uploader, opts ...Option) *Engine {
	if up == nil {
		panic("maptex: nil uploader")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		cfg:      cfg,
		uploader: up,
		cache:    cache.NewTextureCache[TextureHandle, Fingerprint](destroyHandle),
		sources:  make(map[ViewerID]*pyramid.Pyramid),
	}
	if cfg.workers > 1 {
		e.pool = parallel.NewWorkerPool(cfg.workers)
	}
	propagateLogger(up, e.logger())
	return e
}

// logger returns the engine logger, falling back to the package logger.
func (e *Engine) logger() *slog.Logger {
	if e.cfg.logger != nil {
		return e.cfg.logger
	}
	return Logger()
}

// Pyramid builds a pyramid for src with the engine ladder and resampler.
func (e *Engine) Pyramid(src *pyramid.SourceImage) *pyramid.Pyramid {
	p := pyramid.New(src,
		pyramid.WithLadder(e.cfg.ladder...),
		pyramid.WithResampler(e.cfg.resampler),
	)
	s := p.Stats()
	e.logger().Info("maptex: pyramid built",
		"width", src.Width(), "height", src.Height(),
		"levels", s.Levels, "derivedBytes", s.DerivedBytes)
	return p
}

// CropThreshold returns the configured crop threshold.
func (e *Engine) CropThreshold() int {
	return e.cfg.cropThreshold
}

// Update brings view up to date with req and returns what to paint.
//
// A zero-size request or one whose visible crop is empty leaves the view
// empty; the returned Frame then has a nil Handle. Upload failures are
// logged and also yield an empty frame.
func (e *Engine) Update(view *ViewState, p *pyramid.Pyramid, req DisplayRequest) Frame {
	e.stats.Frames++
	log := e.logger()

	rw, rh := req.Rect.URx-req.Rect.LLx, req.Rect.URy-req.Rect.LLy
	if !(req.PixelSize.X > 0 && req.PixelSize.Y > 0 && rw > 0 && rh > 0) {
		return e.empty(view, req.Viewer)
	}

	level := p.LevelFor(req.PixelSize.X, req.PixelSize.Y)
	lw, lh := level.Raster.Width(), level.Raster.Height()
	pose := req.pose()

	uv := cropgeom.FullUV
	visible := req.Rect
	px := level.Raster.Bounds()
	cropped := false

	destLong := max(req.PixelSize.X, req.PixelSize.Y)
	if req.clips() && cropgeom.ShouldCrop(destLong, float64(level.Raster.LongEdge()), e.cfg.cropThreshold) {
		res, ok := cropgeom.Compute(cropgeom.Input{
			Placement:   req.Rect,
			Angle:       pose.Angle,
			Pivot:       pose.Pivot,
			Translation: pose.Translation,
			Viewport:    req.Viewport,
			// Points per level pixel, recomputed every frame.
			Quantum: vec.Vec2{X: rw / float64(lw), Y: rh / float64(lh)},
		})
		if !ok {
			log.Debug("maptex: nothing visible", "viewer", req.Viewer)
			return e.empty(view, req.Viewer)
		}
		if !res.IsFull() {
			px = cropgeom.PixelRect(res.UV, lw, lh)
			if px.Empty() {
				return e.empty(view, req.Viewer)
			}
			// Snap UV to the pixels actually uploaded.
			uv = rect.Rect{
				LLx: float64(px.Min.X) / float64(lw),
				LLy: float64(px.Min.Y) / float64(lh),
				URx: float64(px.Max.X) / float64(lw),
				URy: float64(px.Max.Y) / float64(lh),
			}
			visible = rect.Rect{
				LLx: req.Rect.LLx + uv.LLx*rw,
				LLy: req.Rect.LLy + uv.LLy*rh,
				URx: req.Rect.LLx + uv.URx*rw,
				URy: req.Rect.LLy + uv.URy*rh,
			}
			cropped = true
		}
	}

	frame := Frame{
		UV:   uv,
		Rect: visible,
		CenterUV: vec.Vec2{
			X: (pose.Pivot.X - visible.LLx) / (visible.URx - visible.LLx),
			Y: (pose.Pivot.Y - visible.LLy) / (visible.URy - visible.LLy),
		},
		Level:   level.Threshold,
		Cropped: cropped,
	}

	if src, ok := e.sources[req.Viewer]; !ok || src != p {
		// Cached textures of the viewer show another map.
		if n := e.cache.RemoveViewer(req.Viewer); n > 0 {
			log.Debug("maptex: map changed", "viewer", req.Viewer, "evicted", n)
		}
		e.sources[req.Viewer] = p
	}

	if view.state == StateBound &&
		view.src == p &&
		view.viewer == req.Viewer &&
		view.level == level.Threshold &&
		view.cropped == cropped &&
		view.size == req.PixelSize &&
		view.uv == uv &&
		view.fp == req.Fingerprint {
		e.stats.NoOps++
		frame.Handle = view.handle
		return frame
	}

	if !cropped {
		if h, ok := e.cache.Query(req.Viewer, level.Threshold, req.Fingerprint); ok {
			e.stats.CacheHits++
			log.Debug("maptex: cache hit", "viewer", req.Viewer, "level", level.Threshold)
			e.bind(view, p, req, frame, h, false)
			frame.Handle = h
			return frame
		}
	}

	h, err := e.upload(level.Raster, px, req.Fingerprint)
	if err != nil {
		e.stats.UploadErrors++
		log.Warn("maptex: upload failed",
			"viewer", req.Viewer, "level", level.Threshold,
			"width", px.Dx(), "height", px.Dy(), "err", err)
		return e.empty(view, req.Viewer)
	}

	if cropped {
		e.stats.Crops++
	} else {
		e.cache.Store(req.Viewer, level.Threshold, h, req.Fingerprint)
	}
	log.Debug("maptex: uploaded",
		"viewer", req.Viewer, "level", level.Threshold,
		"width", px.Dx(), "height", px.Dy(), "cropped", cropped)

	e.bind(view, p, req, frame, h, cropped)
	frame.Handle = h
	return frame
}

// upload runs the pipeline over the px part of r and uploads the result.
func (e *Engine) upload(r *pyramid.Raster, px image.Rectangle, fp Fingerprint) (TextureHandle, error) {
	pl := fp.Pipeline()

	var buf []byte
	img := r.Image()
	if pl.IsIdentity() && px == r.Bounds() && img.Stride == 4*px.Dx() {
		// Uploaders never modify or retain the buffer.
		buf = img.Pix[:4*px.Dx()*px.Dy()]
	} else {
		buf, px = r.Pixels(px)
		pl.ApplyRows(e.pool, buf, 4*px.Dx())
	}
	e.stats.PixelsProcessed += px.Dx() * px.Dy()

	h, err := e.uploader.Upload(px.Dx(), px.Dy(), buf, fp.Filter)
	if err != nil {
		return nil, err
	}
	e.stats.Uploads++
	return h, nil
}

// bind makes h the bound texture of view. owned marks textures the view
// must destroy itself.
func (e *Engine) bind(view *ViewState, p *pyramid.Pyramid, req DisplayRequest, f Frame, h TextureHandle, owned bool) {
	if view.owned && view.handle != nil && view.handle != h {
		destroyHandle(view.handle)
	}
	*view = ViewState{
		state:   StateBound,
		viewer:  req.Viewer,
		src:     p,
		size:    req.PixelSize,
		uv:      f.UV,
		fp:      req.Fingerprint,
		level:   f.Level,
		cropped: f.Cropped,
		handle:  h,
		owned:   owned,
	}
}

// empty unbinds view and returns an empty frame.
func (e *Engine) empty(view *ViewState, viewer ViewerID) Frame {
	e.stats.Empty++
	if view.owned && view.handle != nil {
		destroyHandle(view.handle)
	}
	*view = ViewState{viewer: viewer}
	return Frame{}
}

// Release tears down view: its own texture is destroyed and every cached
// texture of its viewer is evicted. The view is empty afterwards.
func (e *Engine) Release(view *ViewState) {
	if view.owned && view.handle != nil {
		destroyHandle(view.handle)
	}
	n := e.cache.RemoveViewer(view.viewer)
	delete(e.sources, view.viewer)
	e.logger().Info("maptex: viewer released", "viewer", view.viewer, "cached", n)
	*view = ViewState{}
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.Cache = e.cache.Stats()
	return s
}

// Close destroys every cached texture and stops the worker pool. Views
// still holding cropped textures must be released separately.
func (e *Engine) Close() {
	e.cache.Clear()
	clear(e.sources)
	if e.pool != nil {
		e.pool.Close()
	}
}
