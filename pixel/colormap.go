package pixel

import (
	"fmt"
	"strings"
)

// ColorMap selects the lookup table that turns an occupancy value into the
// final display color.
type ColorMap uint8

const (
	// ColorMapRaw is the identity: pixels are uploaded as produced by
	// value interpretation.
	ColorMapRaw ColorMap = iota

	// ColorMapMap is the gray occupancy palette: free is white, occupied is
	// black, unknown is transparent.
	ColorMapMap

	// ColorMapCostmap is the cost palette: blue to red over 1-98, cyan at
	// 99, magenta at 100, transparent at 0 and for unknown.
	ColorMapCostmap

	// ColorMapHeat is a blue-green-red ramp over 0-100.
	ColorMapHeat

	colorMapCount
)

var colorMapNames = [colorMapCount]string{
	ColorMapRaw:     "raw",
	ColorMapMap:     "map",
	ColorMapCostmap: "costmap",
	ColorMapHeat:    "heat",
}

// String returns the lowercase name of the color map.
func (c ColorMap) String() string {
	if c < colorMapCount {
		return colorMapNames[c]
	}
	return fmt.Sprintf("ColorMap(%d)", c)
}

// ParseColorMap parses a color map name as produced by ColorMap.String.
func ParseColorMap(s string) (ColorMap, error) {
	for i, name := range colorMapNames {
		if strings.EqualFold(s, name) {
			return ColorMap(i), nil
		}
	}
	return ColorMapRaw, fmt.Errorf("pixel: unknown color map %q", s)
}

// palettes holds one 256-entry RGBA table per color map.
// ColorMapRaw has no table and is never looked up.
var palettes [colorMapCount][256][4]uint8

// unknownColor is the shared color for the unknown value: a gray green
// that is fully transparent.
var unknownColor = [4]uint8{0x70, 0x89, 0x86, 0}

func init() {
	palettes[ColorMapMap] = buildMapPalette()
	palettes[ColorMapCostmap] = buildCostmapPalette()
	palettes[ColorMapHeat] = buildHeatPalette()
}

// fillIllegal colors the values outside [0, 100] that are not unknown:
// 101-127 green, 128-254 red to yellow.
func fillIllegal(p *[256][4]uint8) {
	for i := 101; i <= 127; i++ {
		p[i] = [4]uint8{0, 255, 0, 255}
	}
	for i := 128; i <= 254; i++ {
		//nolint:gosec // G115: result is in [0,255]
		p[i] = [4]uint8{255, uint8((255 * (i - 128)) / (254 - 128)), 0, 255}
	}
	p[255] = unknownColor
}

func buildMapPalette() [256][4]uint8 {
	var p [256][4]uint8
	for i := 0; i <= 100; i++ {
		//nolint:gosec // G115: result is in [0,255]
		v := uint8(255 - (255*i)/100)
		p[i] = [4]uint8{v, v, v, 255}
	}
	fillIllegal(&p)
	return p
}

func buildCostmapPalette() [256][4]uint8 {
	var p [256][4]uint8
	p[0] = [4]uint8{0, 0, 0, 0}
	for i := 1; i <= 98; i++ {
		//nolint:gosec // G115: result is in [0,255]
		v := uint8((255 * i) / 100)
		p[i] = [4]uint8{v, 0, 255 - v, 255}
	}
	p[99] = [4]uint8{0, 255, 255, 255}
	p[100] = [4]uint8{255, 0, 255, 255}
	fillIllegal(&p)
	return p
}

func buildHeatPalette() [256][4]uint8 {
	var p [256][4]uint8
	for i := 0; i <= 100; i++ {
		t := float64(i) / 100
		g := 1 - 2*t
		if g < 0 {
			g = -g
		}
		p[i] = [4]uint8{
			uint8(255*t + 0.5),
			uint8(255*(1-g) + 0.5),
			uint8(255*(1-t) + 0.5),
			255,
		}
	}
	fillIllegal(&p)
	return p
}

// IsIdentity reports whether the color map leaves pixels unchanged.
func (c ColorMap) IsIdentity() bool {
	return c == ColorMapRaw || c >= colorMapCount
}

// Lookup returns the palette color of an occupancy value.
// For the identity map the value is returned as opaque gray.
func (c ColorMap) Lookup(v uint8) (r, g, b, a uint8) {
	if c.IsIdentity() {
		return v, v, v, 255
	}
	e := palettes[c][v]
	return e[0], e[1], e[2], e[3]
}

// Apply maps every pixel of a packed RGBA8 buffer through the palette in
// place. The red channel is the looked-up value; the output alpha is the
// palette alpha scaled by the input alpha.
func (c ColorMap) Apply(buf []byte) {
	if c.IsIdentity() {
		return
	}
	lut := &palettes[c]
	for i := 0; i+3 < len(buf); i += 4 {
		e := lut[buf[i]]
		buf[i] = e[0]
		buf[i+1] = e[1]
		buf[i+2] = e[2]
		buf[i+3] = byte((uint16(e[3])*uint16(buf[i+3]) + 127) / 255)
	}
}
