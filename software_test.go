package maptex

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/maptex/cropgeom"
)

func solid(w, h int, c color.NRGBA) []byte {
	buf := make([]byte, w*h*4)
	for i := 0; i < len(buf); i += 4 {
		buf[i], buf[i+1], buf[i+2], buf[i+3] = c.R, c.G, c.B, c.A
	}
	return buf
}

func TestSoftwareUploader(t *testing.T) {
	up := NewSoftwareUploader()

	if _, err := up.Upload(0, 4, nil, FilterLinear); !errors.Is(err, ErrInvalidTexture) {
		t.Errorf("zero width error = %v, want ErrInvalidTexture", err)
	}
	if _, err := up.Upload(2, 2, make([]byte, 15), FilterLinear); !errors.Is(err, ErrInvalidTexture) {
		t.Errorf("short buffer error = %v, want ErrInvalidTexture", err)
	}

	buf := solid(2, 3, color.NRGBA{R: 9, A: 255})
	h, err := up.Upload(2, 3, buf, FilterNearest)
	if err != nil {
		t.Fatal(err)
	}
	buf[0] = 0
	tex := h.(*SoftwareTexture)
	if tex.Width() != 2 || tex.Height() != 3 || tex.Filter() != FilterNearest {
		t.Errorf("texture %dx%d %v", tex.Width(), tex.Height(), tex.Filter())
	}
	if tex.Image().Pix[0] != 9 {
		t.Error("Upload must copy the buffer")
	}
	if s := up.Stats(); s.Uploads != 1 || s.Live != 1 || s.Bytes != 24 {
		t.Errorf("Stats = %+v", s)
	}

	tex.Destroy()
	tex.Destroy()
	if s := up.Stats(); s.Live != 0 || s.Bytes != 0 {
		t.Errorf("after Destroy Stats = %+v", s)
	}
}

func TestSoftwarePainterScales(t *testing.T) {
	up := NewSoftwareUploader()
	red := color.NRGBA{R: 255, A: 255}
	h, _ := up.Upload(2, 2, solid(2, 2, red), FilterNearest)

	dst := image.NewRGBA(image.Rect(0, 0, 6, 6))
	p := NewSoftwarePainter(dst, 2)
	q := Quad{Rect: square(2), UV: cropgeom.FullUV}
	if err := p.Paint(h, q); err != nil {
		t.Fatal(err)
	}
	if got := dst.RGBAAt(3, 3); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("inside pixel = %v, want red", got)
	}
	if got := dst.RGBAAt(5, 5); got.A != 0 {
		t.Errorf("outside pixel = %v, want transparent", got)
	}
}

func TestSoftwarePainterRotates(t *testing.T) {
	up := NewSoftwareUploader()
	// Left column red, right column blue.
	buf := solid(2, 1, color.NRGBA{R: 255, A: 255})
	buf[4], buf[6] = 0, 255
	h, _ := up.Upload(2, 1, buf, FilterNearest)

	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	p := NewSoftwarePainter(dst, 1)
	q := Quad{
		Rect: rect.Rect{LLx: 0, LLy: 5, URx: 20, URy: 15},
		UV:   cropgeom.FullUV,
		Pose: &Pose{Angle: math.Pi / 2, Pivot: vec.Vec2{X: 10, Y: 10}},
	}
	if err := p.Paint(h, q); err != nil {
		t.Fatal(err)
	}
	// A quarter turn maps the left half onto the top half.
	if got := dst.RGBAAt(10, 3); got.R != 255 || got.B != 0 {
		t.Errorf("top pixel = %v, want red", got)
	}
	if got := dst.RGBAAt(10, 17); got.B != 255 || got.R != 0 {
		t.Errorf("bottom pixel = %v, want blue", got)
	}
}

func TestSoftwarePainterTint(t *testing.T) {
	up := NewSoftwareUploader()
	h, _ := up.Upload(1, 1, solid(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255}), FilterNearest)

	dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
	p := NewSoftwarePainter(dst, 0)
	q := Quad{Rect: square(1), UV: cropgeom.FullUV, Tint: color.NRGBA{R: 255, G: 0, B: 255, A: 255}}
	if err := p.Paint(h, q); err != nil {
		t.Fatal(err)
	}
	if got := dst.RGBAAt(0, 0); got != (color.RGBA{R: 255, B: 255, A: 255}) {
		t.Errorf("pixel = %v, want magenta", got)
	}
}

func TestSoftwarePainterErrors(t *testing.T) {
	p := NewSoftwarePainter(image.NewRGBA(image.Rect(0, 0, 1, 1)), 1)
	if err := p.Paint("not a texture", Quad{}); !errors.Is(err, ErrForeignTexture) {
		t.Errorf("foreign error = %v", err)
	}

	h, _ := NewSoftwareUploader().Upload(1, 1, make([]byte, 4), FilterLinear)
	h.(*SoftwareTexture).Destroy()
	if err := p.Paint(h, Quad{Rect: square(1), UV: cropgeom.FullUV}); !errors.Is(err, ErrTextureDestroyed) {
		t.Errorf("destroyed error = %v", err)
	}
}

func TestFrameQuad(t *testing.T) {
	f := Frame{Rect: square(3), UV: rect.Rect{LLx: 0.5, URx: 1, URy: 1}}
	q := f.Quad(nil, color.NRGBA{})
	if q.Rect != f.Rect || q.UV != cropgeom.FullUV {
		t.Errorf("Quad = %+v", q)
	}
	if !f.Empty() {
		t.Error("frame without handle should be empty")
	}
}

func TestParseFilterMode(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want FilterMode
	}{{"linear", FilterLinear}, {"NEAREST", FilterNearest}, {"", FilterLinear}} {
		got, err := ParseFilterMode(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFilterMode(%q) = %v, %v", tt.in, got, err)
		}
		if got.String() == "" {
			t.Error("empty String()")
		}
	}
	if _, err := ParseFilterMode("cubic"); err == nil {
		t.Error("ParseFilterMode(cubic) should fail")
	}
}
