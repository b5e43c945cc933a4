package maptex

import (
	"fmt"
	"strings"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/maptex/cache"
	"github.com/gogpu/maptex/pixel"
)

// ViewerID identifies one logical viewer of a map, such as a panel or a
// magnifier lens. Each viewer owns exactly one ViewState.
type ViewerID = cache.ViewerID

// FilterMode is the texture sampling filter requested from the uploader.
type FilterMode uint8

const (
	// FilterLinear samples textures bilinearly.
	FilterLinear FilterMode = iota

	// FilterNearest samples the nearest texel, keeping grid cells sharp.
	FilterNearest
)

// String returns the lowercase name of the filter.
func (f FilterMode) String() string {
	switch f {
	case FilterLinear:
		return "linear"
	case FilterNearest:
		return "nearest"
	default:
		return fmt.Sprintf("FilterMode(%d)", f)
	}
}

// ParseFilterMode parses "linear" or "nearest".
func ParseFilterMode(s string) (FilterMode, error) {
	switch strings.ToLower(s) {
	case "linear", "":
		return FilterLinear, nil
	case "nearest":
		return FilterNearest, nil
	default:
		return FilterLinear, fmt.Errorf("maptex: unknown filter mode %q", s)
	}
}

// Fingerprint is the set of appearance parameters that change the uploaded
// pixels. Two requests with equal fingerprints can share a texture.
type Fingerprint struct {
	// TransparentKey makes pixels of one color fully transparent.
	TransparentKey pixel.ColorKey

	// Interpretation turns raw pixels into occupancy values.
	Interpretation pixel.ValueInterpretation

	// ColorMap turns occupancy values into display colors.
	ColorMap pixel.ColorMap

	// Filter is the sampling filter of the uploaded texture.
	Filter FilterMode
}

// Pipeline returns the pixel pipeline described by the fingerprint.
func (f Fingerprint) Pipeline() pixel.Pipeline {
	return pixel.Pipeline{
		Key:            f.TransparentKey,
		Interpretation: f.Interpretation,
		ColorMap:       f.ColorMap,
	}
}

// Pose places an image rotated by Angle radians about Pivot and then moved
// by Translation. Angles are clockwise on screen (y points down).
type Pose struct {
	Angle       float64
	Pivot       vec.Vec2
	Translation vec.Vec2
}

// DisplayRequest is what one viewer wants to show in the current frame.
type DisplayRequest struct {
	// Viewer owns the request.
	Viewer ViewerID

	// Rect is the unrotated destination rectangle of the whole image in
	// points.
	Rect rect.Rect

	// Pose optionally rotates and translates Rect. Nil means no pose.
	Pose *Pose

	// Viewport is the visible clip rectangle in points. A viewport without
	// area, such as the zero value, means no clipping: the texture is never
	// cropped.
	Viewport rect.Rect

	// PixelSize is the size of Rect in physical pixels.
	PixelSize vec.Vec2

	// Fingerprint describes the appearance of the texture.
	Fingerprint Fingerprint
}

// pose returns the request pose, defaulting to the identity about the
// center of Rect.
func (r *DisplayRequest) pose() Pose {
	if r.Pose != nil {
		return *r.Pose
	}
	return Pose{Pivot: vec.Vec2{
		X: (r.Rect.LLx + r.Rect.URx) / 2,
		Y: (r.Rect.LLy + r.Rect.URy) / 2,
	}}
}

// clips reports whether the request has a viewport to crop against.
func (r *DisplayRequest) clips() bool {
	return r.Viewport.URx > r.Viewport.LLx && r.Viewport.URy > r.Viewport.LLy
}
