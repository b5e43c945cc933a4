// Package maptex manages GPU textures for very large raster maps.
//
// # Overview
//
// A raster map (an occupancy grid, an aerial image) is decoded once into a
// [pyramid.SourceImage] and turned into a [pyramid.Pyramid] of downscaled
// levels. Every frame the UI describes what it wants to show in a
// [DisplayRequest] and hands it to [Engine.Update] together with the
// [ViewState] of that viewer. The engine picks the smallest pyramid level
// that does not upsample, crops it to the visible part of the viewport when
// the image is huge, runs the pixel pipeline and uploads the result. The
// returned [Frame] tells the painter what to draw.
//
// # Quick Start
//
//	import "github.com/gogpu/maptex"
//
//	eng := maptex.NewEngine(maptex.NewSoftwareUploader())
//	defer eng.Close()
//
//	p := eng.Pyramid(src)
//	var view maptex.ViewState
//
//	// Once per frame:
//	f := eng.Update(&view, p, maptex.DisplayRequest{
//	    Viewer:    1,
//	    Rect:      rect.Rect{URx: 800, URy: 800},
//	    Viewport:  rect.Rect{URx: 1920, URy: 1080},
//	    PixelSize: vec.Vec2{X: 800, Y: 800},
//	    Fingerprint: maptex.Fingerprint{
//	        Interpretation: pixel.DefaultInterpretation(),
//	        ColorMap:       pixel.ColorMapMap,
//	    },
//	})
//	if f.Handle != nil {
//	    painter.Paint(f.Handle, f.Quad(nil, color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
//	}
//
// # Caching
//
// Uncropped textures are cached per viewer and pyramid level together with
// the [Fingerprint] of the appearance parameters that produced them, so
// zooming back to a level visited before costs no pixel work. A request
// identical to the previous one for the same view is a no-op.
//
// # Architecture
//
// The module is organized into:
//   - pyramid: source raster and downscaled levels
//   - pixel: color key, value interpretation and color maps
//   - cropgeom: visible crop computation with quantization
//   - cache: texture cache keyed by viewer and level
//   - loader: image and map metadata loading
//   - gpubind: uploading and painting through gpucontext
//
// The engine is frame-synchronous and not safe for concurrent use. A
// Pyramid is immutable and may be shared by any number of viewers.
package maptex
