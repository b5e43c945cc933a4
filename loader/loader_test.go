package loader

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := range 3 {
		for x := range 4 {
			//nolint:gosec // G115: small values
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 80), B: 7, A: 255})
		}
	}
	return img
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		encode func(io.Writer, image.Image) error
	}{
		{"png", "png", png.Encode},
		{"bmp", "bmp", bmp.Encode},
		{"tiff", "tiff", func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.encode(&buf, testImage()); err != nil {
				t.Fatal(err)
			}
			src, format, err := Decode(&buf)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if format != tt.format {
				t.Errorf("format = %q, want %q", format, tt.format)
			}
			if src.Width() != 4 || src.Height() != 3 {
				t.Errorf("size = %dx%d, want 4x3", src.Width(), src.Height())
			}
			if got := src.Image().NRGBAAt(2, 1); got != (color.NRGBA{R: 120, G: 80, B: 7, A: 255}) {
				t.Errorf("pixel = %v", got)
			}
		})
	}
}

func TestDecodeZstd(t *testing.T) {
	var raw bytes.Buffer
	if err := png.Encode(&raw, testImage()); err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	compressed := enc.EncodeAll(raw.Bytes(), nil)
	_ = enc.Close()

	src, err := LoadBytes(compressed)
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	if src.Width() != 4 || src.Height() != 3 {
		t.Errorf("size = %dx%d, want 4x3", src.Width(), src.Height())
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := LoadBytes(nil); !errors.Is(err, ErrEmptyData) {
		t.Errorf("LoadBytes(nil) error = %v, want ErrEmptyData", err)
	}
	if _, _, err := Decode(bytes.NewReader(nil)); !errors.Is(err, ErrEmptyData) {
		t.Errorf("Decode(empty) error = %v, want ErrEmptyData", err)
	}
	if _, err := LoadBytes([]byte("definitely not an image")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("LoadBytes(text) error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Load(missing) should fail")
	}
}

func TestLoadAndSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	if err := SavePNG(path, testImage()); err != nil {
		t.Fatal(err)
	}
	src, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if src.HasAlpha() {
		t.Error("opaque PNG reported alpha")
	}
}

func TestDecodePGM(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		w, h int
		want []uint8
	}{
		{
			"binary with comment",
			append([]byte("P5\n# map\n3 2\n255\n"), 0, 128, 255, 10, 20, 30),
			3, 2, []uint8{0, 128, 255, 10, 20, 30},
		},
		{"ascii rescaled", []byte("P2\n2 1\n15\n0 15\n"), 2, 1, []uint8{0, 255}},
		{"binary 16 bit", append([]byte("P5 1 1 65535\n"), 0x80, 0x00), 1, 1, []uint8{128}},
		{"ascii 16 bit", []byte("P2 2 1 1000 0 1000\n"), 2, 1, []uint8{0, 255}},
		{"binary maxval 127", append([]byte("P5 2 1 127\n"), 0, 127), 2, 1, []uint8{0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, format, err := Decode(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if format != "pgm" {
				t.Errorf("format = %q, want pgm", format)
			}
			if src.Width() != tt.w || src.Height() != tt.h {
				t.Fatalf("size = %dx%d, want %dx%d", src.Width(), src.Height(), tt.w, tt.h)
			}
			for i, v := range tt.want {
				got := src.Image().NRGBAAt(i%tt.w, i/tt.w)
				if got.R != v || got.G != v || got.B != v || got.A != 255 {
					t.Errorf("pixel %d = %v, want gray %d", i, got, v)
				}
			}
		})
	}
}

func TestDecodePGMInvalid(t *testing.T) {
	for _, data := range []string{
		"P5\n3 2\n255\n\x00\x01",
		"P2\n2 x\n255\n",
		"P2\n1 1\n70000\n1\n",
		"P2\n2 1\n255\n1 y\n",
		"P2\n2 1\n255\n1 -5\n",
		"P5 3037000500 3037000500 255\n\x00",
		"P5 16385 16384 255\n",
		"P5 9223372036854775807 2 255\n",
	} {
		if _, _, err := Decode(bytes.NewReader([]byte(data))); !errors.Is(err, ErrInvalidPGM) {
			t.Errorf("Decode(%q) error = %v, want ErrInvalidPGM", data, err)
		}
	}
}

func TestDecodePGMConfig(t *testing.T) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader([]byte("P5 640 480 255\n")))
	if err != nil {
		t.Fatal(err)
	}
	if format != "pgm" || cfg.Width != 640 || cfg.Height != 480 || cfg.ColorModel != color.GrayModel {
		t.Errorf("DecodeConfig = %+v, %q", cfg, format)
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
}
