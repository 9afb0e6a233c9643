// SPDX-License-Identifier: MIT
package spectrogram

import (
	"image/color"
	"testing"
)

func intensity(c color.RGBA) int {
	return int(c.R) + int(c.G) + int(c.B)
}

func TestHeatRampMonotone(t *testing.T) {
	ramp := NewHeatRamp()

	prev := intensity(ramp.At(0))
	for v := 1; v < 256; v++ {
		cur := intensity(ramp.At(uint8(v)))
		if cur < prev {
			t.Fatalf("Ramp intensity decreased at %d: %d -> %d", v, prev, cur)
		}
		prev = cur
	}
}

func TestHeatRampEndpoints(t *testing.T) {
	ramp := NewHeatRamp()

	if got := ramp.At(0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("Ramp at 0 = %v, want black", got)
	}
	if got := ramp.At(255); intensity(got) < 700 {
		t.Errorf("Ramp at 255 = %v, want near-white", got)
	}
}

func TestGrayRampLinear(t *testing.T) {
	ramp := NewGrayRamp()

	for _, v := range []uint8{0, 17, 128, 255} {
		c := ramp.At(v)
		if c.R != c.G || c.G != c.B {
			t.Errorf("Gray ramp at %d = %v, want equal channels", v, c)
		}
		if diff := int(c.R) - int(v); diff < -1 || diff > 1 {
			t.Errorf("Gray ramp at %d has channel %d, want %d +/- 1", v, c.R, v)
		}
	}
}

func TestMapColumnInvertsFrequencyAxis(t *testing.T) {
	ramp := NewGrayRamp()

	// Only the DC bin is hot; it must land on the bottom row.
	snapshot := make([]uint8, 8)
	snapshot[0] = 255

	dst := make([]color.RGBA, len(snapshot))
	MapColumn(snapshot, ramp, dst)

	bottom := dst[len(dst)-1]
	if bottom.R != 255 {
		t.Errorf("Bottom row = %v, want the DC bin's color", bottom)
	}
	for row := 0; row < len(dst)-1; row++ {
		if dst[row].R != 0 {
			t.Errorf("Row %d = %v, want black", row, dst[row])
		}
	}
}

func TestMapColumnDeterministic(t *testing.T) {
	ramp := NewHeatRamp()
	snapshot := []uint8{0, 10, 200, 255}

	a := make([]color.RGBA, len(snapshot))
	b := make([]color.RGBA, len(snapshot))
	MapColumn(snapshot, ramp, a)
	MapColumn(snapshot, ramp, b)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("MapColumn not deterministic at row %d: %v != %v", i, a[i], b[i])
		}
	}
}
