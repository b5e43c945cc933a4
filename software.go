package maptex

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/maptex/cropgeom"
)

var (
	// ErrInvalidTexture is returned when an upload has no pixels.
	ErrInvalidTexture = errors.New("maptex: invalid texture dimensions")

	// ErrForeignTexture is returned when a painter is handed a texture it
	// did not create.
	ErrForeignTexture = errors.New("maptex: texture from a different uploader")

	// ErrTextureDestroyed is returned when painting a destroyed texture.
	ErrTextureDestroyed = errors.New("maptex: texture destroyed")
)

// SoftwareTexture is a texture held in main memory.
type SoftwareTexture struct {
	img       *image.NRGBA
	filter    FilterMode
	owner     *SoftwareUploader
	destroyed bool
}

// Image returns the texture pixels.
func (t *SoftwareTexture) Image() *image.NRGBA { return t.img }

// Width returns the texture width in pixels.
func (t *SoftwareTexture) Width() int { return t.img.Rect.Dx() }

// Height returns the texture height in pixels.
func (t *SoftwareTexture) Height() int { return t.img.Rect.Dy() }

// Filter returns the sampling filter the texture was uploaded with.
func (t *SoftwareTexture) Filter() FilterMode { return t.filter }

// Destroyed reports whether Destroy was called.
func (t *SoftwareTexture) Destroyed() bool { return t.destroyed }

// Destroy releases the texture. Calling Destroy twice is a no-op.
func (t *SoftwareTexture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	if t.owner != nil {
		t.owner.destroyed(t)
	}
	t.img = &image.NRGBA{Rect: t.img.Rect}
}

// SoftwareUploader uploads textures into main memory. It backs headless
// rendering and tests.
//
// SoftwareUploader is safe for concurrent use.
type SoftwareUploader struct {
	mu    sync.Mutex
	stats UploadStats
}

// UploadStats counts uploader activity.
type UploadStats struct {
	// Uploads is the number of successful uploads.
	Uploads int

	// Live is the number of textures not yet destroyed.
	Live int

	// Bytes is the pixel memory of live textures.
	Bytes int
}

// NewSoftwareUploader returns an empty uploader.
func NewSoftwareUploader() *SoftwareUploader {
	return &SoftwareUploader{}
}

// Upload copies rgba into a new SoftwareTexture.
func (u *SoftwareUploader) Upload(w, h int, rgba []byte, filter FilterMode) (TextureHandle, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTexture, w, h)
	}
	n := w * h * 4
	if len(rgba) < n {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrInvalidTexture, len(rgba), n)
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, rgba[:n])

	u.mu.Lock()
	u.stats.Uploads++
	u.stats.Live++
	u.stats.Bytes += n
	u.mu.Unlock()

	return &SoftwareTexture{img: img, filter: filter, owner: u}, nil
}

func (u *SoftwareUploader) destroyed(t *SoftwareTexture) {
	u.mu.Lock()
	u.stats.Live--
	u.stats.Bytes -= len(t.img.Pix)
	u.mu.Unlock()
}

// Stats returns a snapshot of the upload counters.
func (u *SoftwareUploader) Stats() UploadStats {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stats
}

// SoftwarePainter paints SoftwareTextures into an image.
type SoftwarePainter struct {
	dst   draw.Image
	scale float64
}

// NewSoftwarePainter returns a painter drawing into dst. scale is the
// number of dst pixels per point; zero or less means 1.
func NewSoftwarePainter(dst draw.Image, scale float64) *SoftwarePainter {
	if scale <= 0 {
		scale = 1
	}
	return &SoftwarePainter{dst: dst, scale: scale}
}

// Paint composites the texture over the destination image.
func (p *SoftwarePainter) Paint(h TextureHandle, q Quad) error {
	tex, ok := h.(*SoftwareTexture)
	if !ok {
		return fmt.Errorf("%w: %T", ErrForeignTexture, h)
	}
	if tex.destroyed {
		return ErrTextureDestroyed
	}

	sr := cropgeom.PixelRect(q.UV, tex.Width(), tex.Height())
	rw, rh := q.Rect.URx-q.Rect.LLx, q.Rect.URy-q.Rect.LLy
	if sr.Empty() || !(rw > 0 && rh > 0) {
		return nil
	}

	var src image.Image = tex.img
	if q.Tinted() {
		src = tinted(tex.img, sr, q.Tint)
	}

	var pose Pose
	if q.Pose != nil {
		pose = *q.Pose
	}
	m := cropgeom.Transform(pose.Angle, pose.Pivot, pose.Translation)

	// Texture pixel s lands on point Rect.LL + k*(s - sr.Min), which is
	// then posed by m and scaled to destination pixels.
	kx, ky := rw/float64(sr.Dx()), rh/float64(sr.Dy())
	a := vec.Vec2{X: q.Rect.LLx - kx*float64(sr.Min.X), Y: q.Rect.LLy - ky*float64(sr.Min.Y)}
	s := p.scale
	s2d := f64.Aff3{
		s * m[0] * kx, s * m[2] * ky, s * (m[0]*a.X + m[2]*a.Y + m[4]),
		s * m[1] * kx, s * m[3] * ky, s * (m[1]*a.X + m[3]*a.Y + m[5]),
	}

	var interp xdraw.Interpolator = xdraw.ApproxBiLinear
	if tex.filter == FilterNearest {
		interp = xdraw.NearestNeighbor
	}
	interp.Transform(p.dst, s2d, src, sr, xdraw.Over, nil)
	return nil
}

// tinted returns the sr part of img multiplied by tint.
func tinted(img *image.NRGBA, sr image.Rectangle, tint color.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(sr)
	for y := sr.Min.Y; y < sr.Max.Y; y++ {
		si := img.PixOffset(sr.Min.X, y)
		di := out.PixOffset(sr.Min.X, y)
		for x := 0; x < sr.Dx()*4; x += 4 {
			s := img.Pix[si+x : si+x+4 : si+x+4]
			d := out.Pix[di+x : di+x+4 : di+x+4]
			d[0] = mul8(s[0], tint.R)
			d[1] = mul8(s[1], tint.G)
			d[2] = mul8(s[2], tint.B)
			d[3] = mul8(s[3], tint.A)
		}
	}
	return out
}

// mul8 multiplies two 8-bit fractions with rounding.
func mul8(a, b uint8) uint8 {
	//nolint:gosec // G115: result is in [0,255]
	return uint8((uint16(a)*uint16(b) + 127) / 255)
}
