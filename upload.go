package maptex

import (
	"image/color"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/maptex/cropgeom"
)

// TextureHandle is an opaque uploaded texture. Handles must be comparable;
// pointer types are typical. A handle implementing Destroy() is destroyed
// once the engine no longer references it.
type TextureHandle any

// textureDestroyer is implemented by handles that own GPU resources.
type textureDestroyer interface {
	Destroy()
}

// destroyHandle releases h if it owns resources.
func destroyHandle(h TextureHandle) {
	if d, ok := h.(textureDestroyer); ok {
		d.Destroy()
	}
}

// Uploader turns processed pixels into textures.
type Uploader interface {
	// Upload creates a w x h texture from tightly packed non-premultiplied
	// RGBA8 pixels. Upload must not modify rgba or retain it after
	// returning.
	Upload(w, h int, rgba []byte, filter FilterMode) (TextureHandle, error)
}

// Painter draws an uploaded texture.
type Painter interface {
	// Paint draws the UV part of the texture into Quad.Rect posed by
	// Quad.Pose and multiplied by Quad.Tint.
	Paint(h TextureHandle, q Quad) error
}

// Quad is one textured rectangle to paint.
type Quad struct {
	// Rect is the unrotated destination in points.
	Rect rect.Rect

	// UV is the part of the texture mapped onto Rect, in [0, 1].
	UV rect.Rect

	// Pose rotates and translates Rect. Nil means no pose.
	Pose *Pose

	// Tint multiplies every texel. The zero value means no tint.
	Tint color.NRGBA
}

// Tinted reports whether Tint changes any texel. The zero value and opaque
// white are no tint.
func (q Quad) Tinted() bool {
	return q.Tint != (color.NRGBA{}) && q.Tint != (color.NRGBA{R: 255, G: 255, B: 255, A: 255})
}

// Frame is the result of one Engine.Update call.
type Frame struct {
	// Handle is the texture to paint, or nil to paint nothing.
	Handle TextureHandle

	// UV is the part of the source image held by Handle, in [0, 1].
	UV rect.Rect

	// Rect is the unrotated destination of Handle in points. It equals the
	// request rectangle unless the texture is cropped.
	Rect rect.Rect

	// CenterUV is the pose pivot in the UV space of Rect.
	CenterUV vec.Vec2

	// Level is the pyramid level threshold the texture was built from.
	Level int

	// Cropped reports whether Handle holds a crop of the level.
	Cropped bool
}

// Empty reports whether there is nothing to paint.
func (f Frame) Empty() bool {
	return f.Handle == nil
}

// Quad returns the quad that paints the whole texture of f. The texture
// always covers its full UV range, so UV is [0, 1] for cropped frames too.
func (f Frame) Quad(pose *Pose, tint color.NRGBA) Quad {
	return Quad{
		Rect: f.Rect,
		UV:   cropgeom.FullUV,
		Pose: pose,
		Tint: tint,
	}
}
