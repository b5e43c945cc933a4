package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/gogpu/maptex"
)

var zoomCmd = &cobra.Command{
	Use:   "zoom <map>",
	Short: "Simulate a zoom in and back out and report engine statistics",
	Long: `zoom drives the engine through a geometric sweep of map sizes from
--from to --to and back, rendering --repeat frames per step. The report
shows how many frames needed an upload and how many were served by the
texture cache or reused the bound texture.`,
	Args: cobra.ExactArgs(1),
	RunE: runZoom,
}

func init() {
	rootCmd.AddCommand(zoomCmd)

	zoomCmd.Flags().Float64("from", 256, "smallest long edge in pixels")
	zoomCmd.Flags().Float64("to", 8192, "largest long edge in pixels")
	zoomCmd.Flags().Int("steps", 20, "sizes per direction")
	zoomCmd.Flags().Int("repeat", 2, "frames per size")
	zoomCmd.Flags().String("viewport", "1920x1080", "viewport size WxH in pixels")
	addAppearanceFlags(zoomCmd)
}

// zoomSizes returns n sizes growing geometrically from lo to hi followed by
// the same sizes in reverse.
func zoomSizes(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	sizes := make([]float64, 0, 2*n)
	ratio := math.Pow(hi/lo, 1/float64(n-1))
	s := lo
	for range n {
		sizes = append(sizes, math.Round(s))
		s *= ratio
	}
	for i := n - 1; i >= 0; i-- {
		sizes = append(sizes, sizes[i])
	}
	return sizes
}

func runZoom(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	from, _ := flags.GetFloat64("from")
	to, _ := flags.GetFloat64("to")
	steps, _ := flags.GetInt("steps")
	repeat, _ := flags.GetInt("repeat")
	vps, _ := flags.GetString("viewport")
	if !(from > 0 && to >= from) {
		return errors.New("need 0 < --from <= --to")
	}

	vw, vh, err := parseSize(vps)
	if err != nil {
		return err
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

	var view maptex.ViewState
	defer eng.Release(&view)

	levels := 0
	last := -1
	for _, size := range zoomSizes(from, to, steps) {
		place := placement(m.src, size, vw, vh)
		req := maptex.DisplayRequest{
			Viewer:      1,
			Rect:        place,
			Viewport:    rect.Rect{URx: vw, URy: vh},
			PixelSize:   vec.Vec2{X: place.URx - place.LLx, Y: place.URy - place.LLy},
			Fingerprint: fp,
		}
		for range max(1, repeat) {
			f := eng.Update(&view, p, req)
			if f.Level != last {
				levels++
				last = f.Level
			}
		}
	}

	s := eng.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "frames:        %d\n", s.Frames)
	fmt.Fprintf(out, "no-ops:        %d\n", s.NoOps)
	fmt.Fprintf(out, "cache hits:    %d (rate %.2f)\n", s.CacheHits, s.Cache.HitRate())
	fmt.Fprintf(out, "uploads:       %d (%d cropped, %d failed)\n", s.Uploads, s.Crops, s.UploadErrors)
	fmt.Fprintf(out, "level changes: %d\n", levels)
	fmt.Fprintf(out, "pixels:        %d\n", s.PixelsProcessed)
	fmt.Fprintf(out, "cached:        %d textures, %d bytes live\n", s.Cache.Len, up.Stats().Bytes)
	return nil
}
