package loader

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/maptex/pixel"
)

const rosMap = `image: office.pgm
resolution: 0.050000
origin: [-10.0, -12.5, 0.0]
negate: 0
occupied_thresh: 0.65
free_thresh: 0.196
`

func TestReadMetadata(t *testing.T) {
	m, err := ReadMetadata(strings.NewReader(rosMap))
	if err != nil {
		t.Fatalf("ReadMetadata() error = %v", err)
	}
	if m.Image != "office.pgm" || m.Resolution != 0.05 || len(m.Origin) != 3 || m.Negate {
		t.Errorf("metadata = %+v", m)
	}
	got := m.Interpretation()
	want := pixel.ValueInterpretation{Mode: pixel.ModeTrinary, Free: 0.196, Occupied: 0.65}
	if got != want {
		t.Errorf("Interpretation() = %+v, want %+v", got, want)
	}
}

func TestReadMetadataVariants(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
		check   func(*testing.T, *Metadata)
	}{
		{
			name: "defaults",
			yaml: "image: a.png\n",
			check: func(t *testing.T, m *Metadata) {
				if m.Interpretation() != pixel.DefaultInterpretation() {
					t.Errorf("Interpretation() = %+v", m.Interpretation())
				}
			},
		},
		{
			name: "bool negate and scale",
			yaml: "image: a.png\nnegate: true\nmode: scale\n",
			check: func(t *testing.T, m *Metadata) {
				in := m.Interpretation()
				if !in.Negate || in.Mode != pixel.ModeScale {
					t.Errorf("Interpretation() = %+v", in)
				}
			},
		},
		{name: "empty", yaml: "", wantErr: ErrEmptyData},
		{name: "no image", yaml: "resolution: 1\n", wantErr: ErrInvalidMetadata},
		{name: "bad mode", yaml: "image: a.png\nmode: fuzzy\n", wantErr: ErrInvalidMetadata},
		{name: "bad negate", yaml: "image: a.png\nnegate: 2\n", wantErr: ErrInvalidMetadata},
		{name: "inverted thresholds", yaml: "image: a.png\nfree_thresh: 0.9\noccupied_thresh: 0.1\n", wantErr: ErrInvalidMetadata},
		{name: "short origin", yaml: "image: a.png\norigin: [1, 2]\n", wantErr: ErrInvalidMetadata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ReadMetadata(strings.NewReader(tt.yaml))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadMetadata() error = %v", err)
			}
			tt.check(t, m)
		})
	}
}

func TestMetadataWriteNegateAsInt(t *testing.T) {
	var buf bytes.Buffer
	m := &Metadata{Image: "a.pgm", Negate: true, FreeThresh: 0.2, OccupiedThresh: 0.6}
	if err := m.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "negate: 1\n") {
		t.Errorf("encoded metadata:\n%s", buf.String())
	}
}

func TestLoadMap(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "office.pgm"), append([]byte("P5\n2 2\n255\n"), 0, 100, 200, 255))
	yamlPath := filepath.Join(dir, "office.yaml")
	writeFile(t, yamlPath, []byte(rosMap))

	m, err := LoadMap(yamlPath)
	if err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if m.Source.Width() != 2 || m.Source.Height() != 2 {
		t.Errorf("size = %dx%d", m.Source.Width(), m.Source.Height())
	}
	if m.Meta.Resolution != 0.05 {
		t.Errorf("Resolution = %v", m.Meta.Resolution)
	}
	if !IsMetadata(yamlPath) || IsMetadata("office.pgm") {
		t.Error("IsMetadata mismatch")
	}
}
