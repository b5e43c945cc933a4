package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/maptex/pixel"
	"github.com/gogpu/maptex/pyramid"
)

// ErrInvalidMetadata is returned for metadata that cannot describe a map.
var ErrInvalidMetadata = errors.New("loader: invalid map metadata")

// Flag is a boolean that also accepts 0 and 1, as written by common map
// servers.
type Flag bool

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Flag) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: flag must be a scalar", ErrInvalidMetadata, n.Line)
	}
	switch n.Value {
	case "0":
		*f = false
		return nil
	case "1":
		*f = true
		return nil
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return fmt.Errorf("%w: line %d: %q is not a flag", ErrInvalidMetadata, n.Line, n.Value)
	}
	*f = Flag(b)
	return nil
}

// MarshalYAML implements yaml.Marshaler, writing 0 or 1.
func (f Flag) MarshalYAML() (any, error) {
	if f {
		return 1, nil
	}
	return 0, nil
}

// Metadata describes an occupancy map image.
type Metadata struct {
	// Image is the map image path, relative to the metadata file.
	Image string `yaml:"image"`

	// Resolution is the size of one pixel in meters.
	Resolution float64 `yaml:"resolution"`

	// Origin is the pose of the lower-left pixel: x, y, yaw.
	Origin []float64 `yaml:"origin,omitempty"`

	// Negate inverts the occupancy of dark and light pixels.
	Negate Flag `yaml:"negate"`

	// OccupiedThresh is the occupancy above which a pixel is occupied.
	OccupiedThresh float64 `yaml:"occupied_thresh"`

	// FreeThresh is the occupancy below which a pixel is free.
	FreeThresh float64 `yaml:"free_thresh"`

	// Mode is trinary, scale or raw. Empty means trinary.
	Mode string `yaml:"mode,omitempty"`
}

// ReadMetadata parses map metadata YAML. Missing thresholds take the
// defaults of [pixel.DefaultInterpretation].
func ReadMetadata(r io.Reader) (*Metadata, error) {
	def := pixel.DefaultInterpretation()
	m := &Metadata{
		OccupiedThresh: def.Occupied,
		FreeThresh:     def.Free,
	}
	if err := yaml.NewDecoder(r).Decode(m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyData
		}
		return nil, fmt.Errorf("loader: parse metadata: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the fields needed to display the map.
func (m *Metadata) Validate() error {
	if m.Image == "" {
		return fmt.Errorf("%w: no image", ErrInvalidMetadata)
	}
	if m.Resolution < 0 {
		return fmt.Errorf("%w: negative resolution %v", ErrInvalidMetadata, m.Resolution)
	}
	if m.Origin != nil && len(m.Origin) != 3 {
		return fmt.Errorf("%w: origin needs 3 values, got %d", ErrInvalidMetadata, len(m.Origin))
	}
	if m.FreeThresh < 0 || m.OccupiedThresh > 1 || m.FreeThresh > m.OccupiedThresh {
		return fmt.Errorf("%w: thresholds free=%v occupied=%v", ErrInvalidMetadata, m.FreeThresh, m.OccupiedThresh)
	}
	if _, err := m.mode(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	return nil
}

func (m *Metadata) mode() (pixel.Mode, error) {
	if m.Mode == "" {
		return pixel.ModeTrinary, nil
	}
	return pixel.ParseMode(m.Mode)
}

// Interpretation returns the value interpretation the metadata describes.
func (m *Metadata) Interpretation() pixel.ValueInterpretation {
	mode, err := m.mode()
	if err != nil {
		mode = pixel.ModeTrinary
	}
	return pixel.ValueInterpretation{
		Mode:     mode,
		Free:     m.FreeThresh,
		Occupied: m.OccupiedThresh,
		Negate:   bool(m.Negate),
	}
}

// Write encodes m as YAML.
func (m *Metadata) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("loader: encode metadata: %w", err)
	}
	return enc.Close()
}

// Map is a decoded map image with its metadata.
type Map struct {
	Meta   *Metadata
	Source *pyramid.SourceImage
}

// LoadMap reads a metadata file and decodes the image it references.
func LoadMap(path string) (*Map, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("loader: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	meta, err := ReadMetadata(f)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}

	img := meta.Image
	if !filepath.IsAbs(img) {
		img = filepath.Join(filepath.Dir(path), img)
	}
	src, err := Load(img)
	if err != nil {
		return nil, err
	}
	return &Map{Meta: meta, Source: src}, nil
}

// IsMetadata reports whether path names a metadata file by extension.
func IsMetadata(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
