package pixel

import "testing"

func occupancyGrid(mode Mode) ValueInterpretation {
	return ValueInterpretation{Mode: mode, Free: 0.196, Occupied: 0.65}
}

func TestValueInterpretationBoundaries(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		in   [4]uint8
		want [4]uint8
	}{
		{"white is free", ModeScale, [4]uint8{255, 255, 255, 255}, [4]uint8{0, 0, 0, 255}},
		{"dark is occupied", ModeScale, [4]uint8{60, 60, 60, 255}, [4]uint8{100, 100, 100, 255}},
		// p = 1 - 128/255 = 0.498; 99*(0.498-0.196)/0.454 = 65.86
		{"mid gray scales", ModeScale, [4]uint8{128, 128, 128, 255}, [4]uint8{66, 66, 66, 255}},
		{"translucent mid is unknown", ModeScale, [4]uint8{128, 128, 128, 100}, [4]uint8{255, 255, 255, 100}},
		{"trinary mid is unknown", ModeTrinary, [4]uint8{128, 128, 128, 255}, [4]uint8{255, 255, 255, 255}},
		{"trinary white is free", ModeTrinary, [4]uint8{255, 255, 255, 255}, [4]uint8{0, 0, 0, 255}},
		{"trinary black is occupied", ModeTrinary, [4]uint8{0, 0, 0, 255}, [4]uint8{100, 100, 100, 255}},
		{"translucent occupied keeps alpha", ModeTrinary, [4]uint8{0, 0, 0, 40}, [4]uint8{100, 100, 100, 40}},
		{"raw is unchanged", ModeRaw, [4]uint8{12, 34, 56, 78}, [4]uint8{12, 34, 56, 78}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := append([]byte(nil), tt.in[:]...)
			occupancyGrid(tt.mode).Apply(buf)
			got := [4]uint8{buf[0], buf[1], buf[2], buf[3]}
			if got != tt.want {
				t.Errorf("Apply(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValueInterpretationNegate(t *testing.T) {
	v := occupancyGrid(ModeTrinary)
	v.Negate = true

	if got := v.Value(255, 255, 255, 255); got != ValueOccupied {
		t.Errorf("negated white = %d, want %d", got, ValueOccupied)
	}
	if got := v.Value(0, 0, 0, 255); got != ValueFree {
		t.Errorf("negated black = %d, want %d", got, ValueFree)
	}
}

func TestValueInterpretationScaleRange(t *testing.T) {
	v := occupancyGrid(ModeScale)
	prev := -1
	// Walking from bright to dark must never decrease the value in the
	// scaled band and must stay within [0, 99].
	for c := 255; c >= 0; c-- {
		//nolint:gosec // G115: c is in [0,255]
		val := v.Value(uint8(c), uint8(c), uint8(c), 255)
		if val == ValueOccupied || val == ValueFree {
			continue
		}
		if val > 99 {
			t.Fatalf("gray %d scaled to %d, want <= 99", c, val)
		}
		if int(val) < prev {
			t.Fatalf("gray %d scaled to %d, below previous %d", c, val, prev)
		}
		prev = int(val)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeRaw, ModeTrinary, ModeScale} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", m.String(), got, err, m)
		}
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("ParseMode(bogus) should fail")
	}
	if got, _ := ParseMode("SCALE"); got != ModeScale {
		t.Errorf("ParseMode(SCALE) = %v, want %v", got, ModeScale)
	}
}
