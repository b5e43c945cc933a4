// Package loader decodes map images into pyramid source images.
//
// Supported formats are PNG, JPEG, BMP, TIFF, WebP and binary or ASCII PGM.
// Any of them may be wrapped in a zstd stream; compressed input is detected
// by its magic number. Map metadata files (YAML) reference an image and
// carry the thresholds used to interpret it, see [LoadMap].
package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	// Registered image decoders.
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/klauspost/compress/zstd"

	"github.com/gogpu/maptex/pyramid"
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when the image format is not supported.
	ErrUnsupportedFormat = errors.New("loader: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("loader: empty data")
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Load decodes the image file at path.
func Load(path string) (*pyramid.SourceImage, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("loader: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	return src, nil
}

// LoadBytes decodes an image held in memory.
func LoadBytes(data []byte) (*pyramid.SourceImage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	src, _, err := Decode(bytes.NewReader(data))
	return src, err
}

// Decode decodes an image from r, auto-detecting the format and zstd
// compression. It returns the format name as registered with the image
// package.
func Decode(r io.Reader) (*pyramid.SourceImage, string, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(zstdMagic))
	if len(magic) == 0 && err != nil {
		if errors.Is(err, io.EOF) {
			return nil, "", ErrEmptyData
		}
		return nil, "", fmt.Errorf("loader: read: %w", err)
	}

	var in io.Reader = br
	if bytes.Equal(magic, zstdMagic) {
		dec, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, "", fmt.Errorf("loader: zstd: %w", err)
		}
		defer dec.Close()
		in = dec
	}

	img, format, err := image.Decode(in)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupportedFormat
		}
		return nil, "", fmt.Errorf("loader: decode: %w", err)
	}

	src, err := pyramid.NewSourceImage(img)
	if err != nil {
		return nil, "", err
	}
	return src, format, nil
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("loader: create file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("loader: encode PNG: %w", err)
	}
	return f.Close()
}
