// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpubind

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/gpucontext"
	"seehuhn.de/go/geom/rect"

	"github.com/gogpu/maptex"
	"github.com/gogpu/maptex/cropgeom"
)

// Binding errors.
var (
	// ErrInvalidDrawContext is returned when no gpucontext.TextureDrawer is
	// given.
	ErrInvalidDrawContext = errors.New("gpubind: dc must implement gpucontext.TextureDrawer")

	// ErrInvalidRenderer is returned when the drawer has no
	// gpucontext.TextureCreator.
	ErrInvalidRenderer = errors.New("gpubind: drawer has no gpucontext.TextureCreator")

	// ErrRotationUnsupported is returned when painting a rotated quad.
	ErrRotationUnsupported = errors.New("gpubind: rotated quads are not supported")

	// ErrScaleUnsupported is returned when a quad would draw the texture at
	// anything but its native size, or only part of it.
	ErrScaleUnsupported = errors.New("gpubind: scaled quads are not supported")

	// ErrTintUnsupported is returned when painting a tinted quad.
	ErrTintUnsupported = errors.New("gpubind: tinted quads are not supported")
)

// sizeTolerance is the drawer pixel mismatch accepted between a quad and
// its texture.
const sizeTolerance = 0.5

// textureDestroyer is implemented by GPU textures that can be destroyed.
type textureDestroyer interface {
	Destroy()
}

// Texture is a maptex texture handle backed by a GPU texture.
type Texture struct {
	gpu       gpucontext.Texture
	filter    maptex.FilterMode
	destroyed bool
}

// GPU returns the underlying GPU texture.
func (t *Texture) GPU() gpucontext.Texture { return t.gpu }

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.gpu.Width() }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.gpu.Height() }

// Filter returns the sampling filter requested at upload.
func (t *Texture) Filter() maptex.FilterMode { return t.filter }

// Destroy releases the GPU texture. Calling Destroy twice is a no-op.
func (t *Texture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	if d, ok := t.gpu.(textureDestroyer); ok {
		d.Destroy()
	}
}

// Uploader implements maptex.Uploader on a gpucontext.TextureDrawer.
type Uploader struct {
	dc     gpucontext.TextureDrawer
	logger *slog.Logger
}

// NewUploader returns an uploader creating textures through dc.
func NewUploader(dc gpucontext.TextureDrawer) (*Uploader, error) {
	if dc == nil {
		return nil, ErrInvalidDrawContext
	}
	return &Uploader{dc: dc}, nil
}

// SetLogger sets the uploader logger. NewEngine calls it with the engine
// logger.
func (u *Uploader) SetLogger(l *slog.Logger) {
	u.logger = l
}

func (u *Uploader) log() *slog.Logger {
	if u.logger != nil {
		return u.logger
	}
	return maptex.Logger()
}

// Upload creates a GPU texture from non-premultiplied RGBA8 pixels.
func (u *Uploader) Upload(w, h int, rgba []byte, filter maptex.FilterMode) (maptex.TextureHandle, error) {
	if w <= 0 || h <= 0 || len(rgba) < w*h*4 {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", maptex.ErrInvalidTexture, w, h, len(rgba))
	}
	creator := u.dc.TextureCreator()
	if creator == nil {
		return nil, ErrInvalidRenderer
	}

	tex, err := creator.NewTextureFromRGBA(w, h, rgba[:w*h*4])
	if err != nil {
		return nil, fmt.Errorf("gpubind: NewTextureFromRGBA failed: %w", err)
	}

	// Pixels are straight alpha.
	if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
		pt.SetPremultiplied(false)
	}

	u.log().Debug("gpubind: texture created", "width", w, "height", h, "filter", filter)
	return &Texture{gpu: tex, filter: filter}, nil
}

// Painter implements maptex.Painter on a gpucontext.TextureDrawer.
type Painter struct {
	dc    gpucontext.TextureDrawer
	scale float64
}

// NewPainter returns a painter drawing through dc. scale converts points to
// drawer pixels; zero or less means 1.
func NewPainter(dc gpucontext.TextureDrawer, scale float64) *Painter {
	if scale <= 0 {
		scale = 1
	}
	return &Painter{dc: dc, scale: scale}
}

// Paint draws the texture at the quad origin moved by the pose translation.
//
// DrawTexture places a texture unscaled, so the quad must map the whole
// texture onto exactly its size in drawer pixels, without rotation or tint.
func (p *Painter) Paint(h maptex.TextureHandle, q maptex.Quad) error {
	tex, ok := h.(*Texture)
	if !ok {
		return fmt.Errorf("%w: %T", maptex.ErrForeignTexture, h)
	}
	if tex.destroyed {
		return maptex.ErrTextureDestroyed
	}
	if p.dc == nil {
		return ErrInvalidDrawContext
	}

	x, y := q.Rect.LLx, q.Rect.LLy
	if q.Pose != nil {
		if q.Pose.Angle != 0 {
			return ErrRotationUnsupported
		}
		x += q.Pose.Translation.X
		y += q.Pose.Translation.Y
	}
	if q.Tinted() {
		return ErrTintUnsupported
	}
	if q.UV != cropgeom.FullUV && q.UV != (rect.Rect{}) {
		return fmt.Errorf("%w: UV %+v", ErrScaleUnsupported, q.UV)
	}
	w := (q.Rect.URx - q.Rect.LLx) * p.scale
	hgt := (q.Rect.URy - q.Rect.LLy) * p.scale
	if math.Abs(w-float64(tex.Width())) > sizeTolerance || math.Abs(hgt-float64(tex.Height())) > sizeTolerance {
		return fmt.Errorf("%w: %gx%g pixels for a %dx%d texture",
			ErrScaleUnsupported, w, hgt, tex.Width(), tex.Height())
	}
	return p.dc.DrawTexture(tex.gpu, float32(x*p.scale), float32(y*p.scale))
}
