// Package pyramid holds decoded map rasters and their precomputed
// downscaled levels.
//
// A Pyramid is built once when a map is loaded and is immutable afterwards.
// It is safe for concurrent read access and is shared by every view of the
// same map.
package pyramid

import (
	"errors"
	"image"

	xdraw "golang.org/x/image/draw"
)

// Common errors for raster construction.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("pyramid: invalid dimensions")

	// ErrDataTooSmall is returned when a pixel buffer is smaller than
	// width*height*4 bytes.
	ErrDataTooSmall = errors.New("pyramid: data buffer too small")
)

// Raster is a read-only, non-premultiplied RGBA8 image.
//
// Thread safety: Raster is safe for concurrent read access. Callers must
// not modify the pixels returned by Image.
type Raster struct {
	img *image.NRGBA
}

func newRaster(img *image.NRGBA) *Raster {
	return &Raster{img: img}
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int {
	return r.img.Rect.Dx()
}

// Height returns the raster height in pixels.
func (r *Raster) Height() int {
	return r.img.Rect.Dy()
}

// LongEdge returns the larger of width and height.
func (r *Raster) LongEdge() int {
	return max(r.Width(), r.Height())
}

// Bounds returns the raster rectangle, always anchored at the origin.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width(), r.Height())
}

// ByteSize returns the size of the pixel data in bytes.
func (r *Raster) ByteSize() int {
	return r.Width() * r.Height() * 4
}

// Image returns the underlying image. It must be treated as read-only.
func (r *Raster) Image() *image.NRGBA {
	return r.img
}

// Pixels returns a tightly packed RGBA8 copy of the pixels inside rect.
// The rectangle is clipped to the raster bounds. Returns nil and an empty
// rectangle if nothing remains after clipping.
func (r *Raster) Pixels(rect image.Rectangle) ([]byte, image.Rectangle) {
	rect = rect.Intersect(r.Bounds())
	if rect.Empty() {
		return nil, image.Rectangle{}
	}

	w, h := rect.Dx(), rect.Dy()
	rowBytes := w * 4
	out := make([]byte, rowBytes*h)
	for y := range h {
		src := r.img.PixOffset(rect.Min.X, rect.Min.Y+y)
		copy(out[y*rowBytes:(y+1)*rowBytes], r.img.Pix[src:src+rowBytes])
	}
	return out, rect
}

// SourceImage is the decoded full-resolution raster of a map.
type SourceImage struct {
	*Raster
	hasAlpha bool
}

// NewSourceImage converts a decoded image into a SourceImage.
// The pixels are copied, so img may be reused by the caller.
func NewSourceImage(img image.Image) (*SourceImage, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrInvalidDimensions
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch src := img.(type) {
	case *image.NRGBA:
		for y := range b.Dy() {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:], src.Pix[off:off+b.Dx()*4])
		}
	case *image.Gray:
		for y := range b.Dy() {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := dst.Pix[y*dst.Stride:]
			for x, v := range src.Pix[off : off+b.Dx()] {
				row[x*4] = v
				row[x*4+1] = v
				row[x*4+2] = v
				row[x*4+3] = 255
			}
		}
	default:
		xdraw.Draw(dst, dst.Rect, img, b.Min, xdraw.Src)
	}

	return &SourceImage{Raster: newRaster(dst), hasAlpha: !isOpaque(img, dst)}, nil
}

// NewSourceImageRGBA wraps a packed, non-premultiplied RGBA8 buffer without
// copying. The caller must not modify pix afterwards.
func NewSourceImageRGBA(pix []byte, width, height int, hasAlpha bool) (*SourceImage, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if len(pix) < width*height*4 {
		return nil, ErrDataTooSmall
	}
	img := &image.NRGBA{
		Pix:    pix[:width*height*4],
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	return &SourceImage{Raster: newRaster(img), hasAlpha: hasAlpha}, nil
}

// HasAlpha reports whether the source carries any non-opaque pixel.
func (s *SourceImage) HasAlpha() bool {
	return s.hasAlpha
}

func isOpaque(src image.Image, converted *image.NRGBA) bool {
	if o, ok := src.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return converted.Opaque()
}

// unpremultiply converts premultiplied RGBA pixels to straight alpha in
// place, so the slice can be reinterpreted as NRGBA.
func unpremultiply(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		a := uint32(pix[i+3])
		switch a {
		case 255:
			continue
		case 0:
			pix[i], pix[i+1], pix[i+2] = 0, 0, 0
		default:
			pix[i] = byte((uint32(pix[i])*255 + a/2) / a)
			pix[i+1] = byte((uint32(pix[i+1])*255 + a/2) / a)
			pix[i+2] = byte((uint32(pix[i+2])*255 + a/2) / a)
		}
	}
}
