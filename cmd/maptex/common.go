package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/maptex"
	"github.com/gogpu/maptex/loader"
	"github.com/gogpu/maptex/pixel"
	"github.com/gogpu/maptex/pyramid"
)

// mapFile is a loaded map image with the interpretation it asks for.
type mapFile struct {
	src    *pyramid.SourceImage
	meta   *loader.Metadata
	interp pixel.ValueInterpretation
}

// openMap loads an image file or a map metadata file.
func openMap(path string) (*mapFile, error) {
	if loader.IsMetadata(path) {
		m, err := loader.LoadMap(path)
		if err != nil {
			return nil, err
		}
		return &mapFile{src: m.Source, meta: m.Meta, interp: m.Meta.Interpretation()}, nil
	}
	src, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	return &mapFile{src: src, interp: pixel.DefaultInterpretation()}, nil
}

// addAppearanceFlags registers the flags describing the texture fingerprint.
func addAppearanceFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "value interpretation (raw|trinary|scale); default from metadata")
	cmd.Flags().String("colormap", "map", "color map (raw|map|costmap|heat)")
	cmd.Flags().String("key", "", "transparent color key as RRGGBB")
	cmd.Flags().String("filter", "linear", "texture filter (linear|nearest)")
}

// fingerprint builds the texture fingerprint from the appearance flags.
func fingerprint(cmd *cobra.Command, m *mapFile) (maptex.Fingerprint, error) {
	fp := maptex.Fingerprint{Interpretation: m.interp}
	flags := cmd.Flags()

	if s, _ := flags.GetString("mode"); s != "" {
		mode, err := pixel.ParseMode(s)
		if err != nil {
			return fp, err
		}
		fp.Interpretation.Mode = mode
	}

	s, _ := flags.GetString("colormap")
	cm, err := pixel.ParseColorMap(s)
	if err != nil {
		return fp, err
	}
	fp.ColorMap = cm

	if s, _ := flags.GetString("key"); s != "" {
		k, err := parseColorKey(s)
		if err != nil {
			return fp, err
		}
		fp.TransparentKey = k
	}

	s, _ = flags.GetString("filter")
	if fp.Filter, err = maptex.ParseFilterMode(s); err != nil {
		return fp, err
	}
	return fp, nil
}

// parseColorKey parses RRGGBB with an optional leading '#'.
func parseColorKey(s string) (pixel.ColorKey, error) {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return pixel.ColorKey{}, fmt.Errorf("invalid color key %q: want RRGGBB", s)
	}
	//nolint:gosec // G115: masked to 8 bits
	return pixel.Key(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// parseSize parses WxH.
func parseSize(s string) (w, h float64, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q: want WxH", s)
	}
	if w, err = strconv.ParseFloat(ws, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if h, err = strconv.ParseFloat(hs, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return w, h, nil
}
