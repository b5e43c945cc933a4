package loader

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
)

// ErrInvalidPGM is returned for malformed PGM data.
var ErrInvalidPGM = errors.New("loader: invalid PGM")

// maxPGMPixels bounds width*height of a PGM image.
const maxPGMPixels = 1 << 28

func init() {
	image.RegisterFormat("pgm", "P5", decodePGM, decodePGMConfig)
	image.RegisterFormat("pgm", "P2", decodePGM, decodePGMConfig)
}

type pgmHeader struct {
	binary        bool
	width, height int
	maxval        int
}

// readPGMHeader parses the magic number, dimensions and maximum value.
// For binary files exactly one whitespace byte follows the maximum value.
func readPGMHeader(br *bufio.Reader) (pgmHeader, error) {
	var h pgmHeader
	magic, err := pgmToken(br)
	if err != nil {
		return h, err
	}
	switch magic {
	case "P5":
		h.binary = true
	case "P2":
	default:
		return h, fmt.Errorf("%w: magic %q", ErrInvalidPGM, magic)
	}

	var vals [3]int
	for i := range vals {
		tok, err := pgmToken(br)
		if err != nil {
			return h, err
		}
		v, err := strconv.Atoi(tok)
		if err != nil || v <= 0 {
			return h, fmt.Errorf("%w: header field %q", ErrInvalidPGM, tok)
		}
		vals[i] = v
	}
	h.width, h.height, h.maxval = vals[0], vals[1], vals[2]
	if h.width > maxPGMPixels/h.height {
		return h, fmt.Errorf("%w: %dx%d exceeds the pixel limit", ErrInvalidPGM, h.width, h.height)
	}
	if h.maxval > 65535 {
		return h, fmt.Errorf("%w: maxval %d", ErrInvalidPGM, h.maxval)
	}
	return h, nil
}

// pgmToken returns the next whitespace separated token, skipping '#'
// comments. The single whitespace byte ending the token is consumed.
func pgmToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			if len(tok) > 0 && errors.Is(err, io.EOF) {
				return string(tok), nil
			}
			return "", fmt.Errorf("%w: %w", ErrInvalidPGM, err)
		}
		switch {
		case c == '#' && len(tok) == 0:
			if _, err := br.ReadString('\n'); err != nil {
				return "", fmt.Errorf("%w: %w", ErrInvalidPGM, err)
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, c)
		}
	}
}

func decodePGMConfig(r io.Reader) (image.Config, error) {
	h, err := readPGMHeader(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, err
	}
	cm := color.GrayModel
	if h.maxval > 255 {
		cm = color.Gray16Model
	}
	return image.Config{ColorModel: cm, Width: h.width, Height: h.height}, nil
}

// decodePGM decodes a PGM image. Samples are rescaled from [0, maxval] to
// the full range of the returned *image.Gray or, for maxval above 255,
// *image.Gray16.
func decodePGM(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readPGMHeader(br)
	if err != nil {
		return nil, err
	}

	rect := image.Rect(0, 0, h.width, h.height)
	if h.maxval > 255 {
		img := image.NewGray16(rect)
		if h.binary {
			if _, err := io.ReadFull(br, img.Pix); err != nil {
				return nil, fmt.Errorf("%w: pixel data: %w", ErrInvalidPGM, err)
			}
			for i := 0; i < len(img.Pix); i += 2 {
				v := int(img.Pix[i])<<8 | int(img.Pix[i+1])
				s := rescale(v, h.maxval, 65535)
				img.Pix[i], img.Pix[i+1] = byte(s>>8), byte(s)
			}
			return img, nil
		}
		for i := 0; i < len(img.Pix); i += 2 {
			v, err := pgmSample(br)
			if err != nil {
				return nil, err
			}
			s := rescale(v, h.maxval, 65535)
			img.Pix[i], img.Pix[i+1] = byte(s>>8), byte(s)
		}
		return img, nil
	}

	img := image.NewGray(rect)
	if h.binary {
		if _, err := io.ReadFull(br, img.Pix); err != nil {
			return nil, fmt.Errorf("%w: pixel data: %w", ErrInvalidPGM, err)
		}
		if h.maxval != 255 {
			for i, v := range img.Pix {
				//nolint:gosec // G115: value is in [0,255]
				img.Pix[i] = uint8(rescale(int(v), h.maxval, 255))
			}
		}
		return img, nil
	}
	for i := range img.Pix {
		v, err := pgmSample(br)
		if err != nil {
			return nil, err
		}
		//nolint:gosec // G115: value is in [0,255]
		img.Pix[i] = uint8(rescale(v, h.maxval, 255))
	}
	return img, nil
}

// pgmSample reads one ASCII sample.
func pgmSample(br *bufio.Reader) (int, error) {
	tok, err := pgmToken(br)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: sample %q", ErrInvalidPGM, tok)
	}
	return v, nil
}

// rescale maps v from [0, maxval] to [0, full], clamping values above
// maxval.
func rescale(v, maxval, full int) int {
	return min(v, maxval) * full / maxval
}
