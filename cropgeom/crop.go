// Package cropgeom computes the smallest part of a placed, rotated and
// translated image that covers the visible portion of a viewport.
//
// Rectangles use seehuhn.de/go/geom rect.Rect in a y-down coordinate system:
// LLx/LLy are the minimum coordinates and URx/URy the maximum ones. An image
// is placed unrotated at Placement, then rotated by Angle about Pivot and
// finally moved by Translation.
package cropgeom

import (
	"image"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// eps absorbs floating point noise when snapping to the quantum grid.
const eps = 1e-9

// Side is a bit set of rectangle sides.
type Side uint8

// Rectangle sides.
const (
	SideLeft Side = 1 << iota
	SideTop
	SideRight
	SideBottom
)

// Input describes one crop computation.
type Input struct {
	// Placement is the unrotated image rectangle in destination points.
	Placement rect.Rect

	// Angle is the rotation in radians about Pivot.
	Angle float64

	// Pivot is the rotation center in destination points.
	Pivot vec.Vec2

	// Translation is applied after the rotation.
	Translation vec.Vec2

	// Viewport is the visible clip rectangle in destination points.
	Viewport rect.Rect

	// Quantum is the size of one source pixel in destination points along
	// each axis. Clipped crop sides snap outward to multiples of it,
	// measured from the placement origin. A zero component disables
	// snapping on that axis.
	Quantum vec.Vec2
}

// Result is a computed crop.
type Result struct {
	// Visible is the crop in unrotated placement space. Painting it with the
	// same pose as the full image covers the visible region.
	Visible rect.Rect

	// UV is Visible relative to Placement, in [0, 1].
	UV rect.Rect

	// CenterUV is the pivot relative to Visible, in Visible's UV space.
	CenterUV vec.Vec2

	// Clipped lists the sides that were cut by the viewport.
	Clipped Side
}

// IsFull reports whether the crop covers the whole placement.
func (r Result) IsFull() bool {
	return r.Clipped == 0
}

// ShouldCrop reports whether cropping pays off: both the destination long
// edge and the source level long edge must exceed threshold. A threshold of
// zero or less disables cropping.
func ShouldCrop(destLong, levelLong float64, threshold int) bool {
	t := float64(threshold)
	return threshold > 0 && destLong > t && levelLong > t
}

// Transform returns the pose matrix: rotation by angle about pivot followed
// by translation.
func Transform(angle float64, pivot, translation vec.Vec2) matrix.Matrix {
	s, c := math.Sincos(angle)
	return matrix.Matrix{
		c, s,
		-s, c,
		pivot.X - c*pivot.X + s*pivot.Y + translation.X,
		pivot.Y - s*pivot.X - c*pivot.Y + translation.Y,
	}
}

// Apply maps p through m.
func Apply(m matrix.Matrix, p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Invert returns the inverse of an affine matrix. The second result is
// false for a singular matrix.
func Invert(m matrix.Matrix) (matrix.Matrix, bool) {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 || math.IsNaN(det) {
		return matrix.Matrix{}, false
	}
	inv := 1 / det
	return matrix.Matrix{
		m[3] * inv, -m[1] * inv,
		-m[2] * inv, m[0] * inv,
		(m[2]*m[5] - m[3]*m[4]) * inv,
		(m[1]*m[4] - m[0]*m[5]) * inv,
	}, true
}

// Bounds returns the axis-aligned bounding rectangle of r mapped through m.
func Bounds(m matrix.Matrix, r rect.Rect) rect.Rect {
	corners := [4]vec.Vec2{
		{X: r.LLx, Y: r.LLy},
		{X: r.URx, Y: r.LLy},
		{X: r.URx, Y: r.URy},
		{X: r.LLx, Y: r.URy},
	}
	out := rect.Rect{
		LLx: math.Inf(1), LLy: math.Inf(1),
		URx: math.Inf(-1), URy: math.Inf(-1),
	}
	for _, c := range corners {
		p := Apply(m, c)
		out.LLx = min(out.LLx, p.X)
		out.LLy = min(out.LLy, p.Y)
		out.URx = max(out.URx, p.X)
		out.URy = max(out.URy, p.Y)
	}
	return out
}

// Intersect returns the intersection of a and b. The second result is
// false if the intersection has no area.
func Intersect(a, b rect.Rect) (rect.Rect, bool) {
	r := rect.Rect{
		LLx: max(a.LLx, b.LLx),
		LLy: max(a.LLy, b.LLy),
		URx: min(a.URx, b.URx),
		URy: min(a.URy, b.URy),
	}
	return r, r.URx > r.LLx && r.URy > r.LLy
}

// Compute returns the smallest rectangle in placement space whose posed
// image covers everything of the image visible in the viewport. The second
// result is false if nothing is visible or the crop is degenerate.
func Compute(in Input) (Result, bool) {
	place := in.Placement
	if !(place.URx > place.LLx && place.URy > place.LLy) {
		return Result{}, false
	}

	pose := Transform(in.Angle, in.Pivot, in.Translation)
	visible, ok := Intersect(Bounds(pose, place), in.Viewport)
	if !ok {
		return Result{}, false
	}

	inv, ok := Invert(pose)
	if !ok {
		return Result{}, false
	}
	crop, ok := Intersect(Bounds(inv, visible), place)
	if !ok {
		return Result{}, false
	}

	var clipped Side
	if crop.LLx > place.LLx {
		clipped |= SideLeft
		crop.LLx = snapDown(crop.LLx, place.LLx, in.Quantum.X)
	}
	if crop.LLy > place.LLy {
		clipped |= SideTop
		crop.LLy = snapDown(crop.LLy, place.LLy, in.Quantum.Y)
	}
	if crop.URx < place.URx {
		clipped |= SideRight
		crop.URx = snapUp(crop.URx, place.LLx, in.Quantum.X)
	}
	if crop.URy < place.URy {
		clipped |= SideBottom
		crop.URy = snapUp(crop.URy, place.LLy, in.Quantum.Y)
	}
	crop, ok = Intersect(crop, place)
	if !ok {
		return Result{}, false
	}

	w, h := place.URx-place.LLx, place.URy-place.LLy
	cw, ch := crop.URx-crop.LLx, crop.URy-crop.LLy
	return Result{
		Visible: crop,
		UV: rect.Rect{
			LLx: (crop.LLx - place.LLx) / w,
			LLy: (crop.LLy - place.LLy) / h,
			URx: (crop.URx - place.LLx) / w,
			URy: (crop.URy - place.LLy) / h,
		},
		CenterUV: vec.Vec2{
			X: (in.Pivot.X - crop.LLx) / cw,
			Y: (in.Pivot.Y - crop.LLy) / ch,
		},
		Clipped: clipped,
	}, true
}

func snapDown(v, origin, q float64) float64 {
	if !(q > 0) {
		return v
	}
	return origin + math.Floor((v-origin)/q+eps)*q
}

func snapUp(v, origin, q float64) float64 {
	if !(q > 0) {
		return v
	}
	return origin + math.Ceil((v-origin)/q-eps)*q
}

// FullUV is the UV rectangle of an uncropped image.
var FullUV = rect.Rect{LLx: 0, LLy: 0, URx: 1, URy: 1}

// PixelRect converts a UV rectangle into the pixel rectangle of a w x h
// raster, rounding outward and clamping to the raster.
func PixelRect(uv rect.Rect, w, h int) image.Rectangle {
	fw, fh := float64(w), float64(h)
	r := image.Rect(
		int(math.Floor(uv.LLx*fw+eps)),
		int(math.Floor(uv.LLy*fh+eps)),
		int(math.Ceil(uv.URx*fw-eps)),
		int(math.Ceil(uv.URy*fh-eps)),
	)
	return r.Intersect(image.Rect(0, 0, w, h))
}
