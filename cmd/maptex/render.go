package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/spf13/cobra"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/maptex"
	"github.com/gogpu/maptex/loader"
	"github.com/gogpu/maptex/pyramid"
)

var renderCmd = &cobra.Command{
	Use:   "render <map>",
	Short: "Render one frame of the map into a PNG file",
	Long: `render places the map centered in a viewport, optionally rotated and
panned, runs one engine update and paints the resulting texture.

The map is scaled so that its long edge is --size viewport pixels. When
both that size and the selected pyramid level exceed the crop threshold,
only the visible part is uploaded.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("output", "o", "", "output PNG file (required)")
	renderCmd.Flags().String("viewport", "1024x768", "viewport size WxH in pixels")
	renderCmd.Flags().Float64("size", 0, "long edge of the whole map in pixels (default: fit the viewport)")
	renderCmd.Flags().Float64("angle", 0, "rotation in degrees, clockwise")
	renderCmd.Flags().Float64Slice("pan", []float64{0, 0}, "translation dx,dy in pixels")
	addAppearanceFlags(renderCmd)
	_ = renderCmd.MarkFlagRequired("output")
}

// newEngine returns an engine uploading into memory.
func newEngine(opts []maptex.Option) (*maptex.Engine, *maptex.SoftwareUploader) {
	up := maptex.NewSoftwareUploader()
	return maptex.NewEngine(up, opts...), up
}

// placement centers a map of the given long edge in a vw x vh viewport.
func placement(src *pyramid.SourceImage, size, vw, vh float64) rect.Rect {
	long := float64(src.LongEdge())
	w := size * float64(src.Width()) / long
	h := size * float64(src.Height()) / long
	return rect.Rect{
		LLx: (vw - w) / 2,
		LLy: (vh - h) / 2,
		URx: (vw + w) / 2,
		URy: (vh + h) / 2,
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	output, _ := flags.GetString("output")
	vps, _ := flags.GetString("viewport")
	size, _ := flags.GetFloat64("size")
	angle, _ := flags.GetFloat64("angle")
	pan, _ := flags.GetFloat64Slice("pan")
	if len(pan) != 2 {
		return errors.New("--pan needs two values dx,dy")
	}

	vw, vh, err := parseSize(vps)
	if err != nil {
		return err
	}
	if vw < 1 || vh < 1 {
		return fmt.Errorf("viewport %s is empty", vps)
	}

	m, err := openMap(args[0])
	if err != nil {
		return err
	}
	fp, err := fingerprint(cmd, m)
	if err != nil {
		return err
	}
	opts, err := engineOptions()
	if err != nil {
		return err
	}
	eng, up := newEngine(opts)
	defer eng.Close()
	p := eng.Pyramid(m.src)

	if size <= 0 {
		size = min(vw, vh)
	}
	place := placement(m.src, size, vw, vh)
	req := maptex.DisplayRequest{
		Viewer: 1,
		Rect:   place,
		Pose: &maptex.Pose{
			Angle:       angle * math.Pi / 180,
			Pivot:       vec.Vec2{X: vw / 2, Y: vh / 2},
			Translation: vec.Vec2{X: pan[0], Y: pan[1]},
		},
		Viewport:    rect.Rect{URx: vw, URy: vh},
		PixelSize:   vec.Vec2{X: place.URx - place.LLx, Y: place.URy - place.LLy},
		Fingerprint: fp,
	}

	var view maptex.ViewState
	f := eng.Update(&view, p, req)

	canvas := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(vw)), int(math.Ceil(vh))))
	if !f.Empty() {
		painter := maptex.NewSoftwarePainter(canvas, 1)
		white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		if err := painter.Paint(f.Handle, f.Quad(req.Pose, white)); err != nil {
			return err
		}
	}
	if err := loader.SavePNG(output, canvas); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.Empty() {
		fmt.Fprintln(out, "nothing visible")
		return nil
	}
	tex := f.Handle.(*maptex.SoftwareTexture)
	fmt.Fprintf(out, "level=%s texture=%dx%d cropped=%v uv=[%.4f %.4f %.4f %.4f] uploaded=%d bytes\n",
		levelName(f.Level), tex.Width(), tex.Height(), f.Cropped,
		f.UV.LLx, f.UV.LLy, f.UV.URx, f.UV.URy, up.Stats().Bytes)
	return nil
}

func levelName(threshold int) string {
	if threshold == pyramid.FullResolution {
		return "full"
	}
	return fmt.Sprint(threshold)
}
