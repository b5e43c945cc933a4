// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpubind uploads and paints maptex textures through gpucontext.
//
// The package connects the engine to any host implementing
// gpucontext.TextureDrawer without depending on a concrete GPU backend.
//
// # Usage
//
//	up, err := gpubind.NewUploader(dc.AsTextureDrawer())
//	if err != nil {
//	    return err
//	}
//	eng := maptex.NewEngine(up)
//	painter := gpubind.NewPainter(dc.AsTextureDrawer(), 1)
//
//	f := eng.Update(&view, p, req)
//	if !f.Empty() {
//	    _ = painter.Paint(f.Handle, f.Quad(req.Pose, white))
//	}
//
// # Limitations
//
// gpucontext.TextureDrawer draws textures unscaled at a position. Painter
// therefore honors the destination origin and the pose translation only;
// rotated quads are rejected with [ErrRotationUnsupported]. Hosts needing
// rotation paint the [Texture.GPU] handle themselves.
package gpubind
