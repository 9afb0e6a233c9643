// SPDX-License-Identifier: MIT
package spectrogram

import (
	"bytes"
	"image"
	"image/png"
	"sync"
	"testing"
)

const (
	testWidth = 8
	testBins  = 16
)

// uniformSnapshot builds a snapshot where every bin carries the same
// value, so the whole mapped column shares one color.
func uniformSnapshot(v uint8) []uint8 {
	snap := make([]uint8, testBins)
	for i := range snap {
		snap[i] = v
	}
	return snap
}

func TestAppendColumnFIFOEviction(t *testing.T) {
	buf, err := NewBuffer(testWidth, testBins, NewGrayRamp())
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}

	// Append width+2 distinguishable columns C1..C(width+2).
	for i := 1; i <= testWidth+2; i++ {
		buf.AppendColumn(uniformSnapshot(uint8(i * 10)))
	}

	if buf.Count() != testWidth {
		t.Fatalf("Count = %d after overflow, want %d", buf.Count(), testWidth)
	}

	// The visible window must be C3..C(width+2).
	for i := 0; i < testWidth; i++ {
		col, err := buf.ColumnAt(i)
		if err != nil {
			t.Fatalf("ColumnAt(%d) failed: %v", i, err)
		}
		want := uint8((i + 3) * 10) // Gray ramp maps v to channel v
		if col[0].R != want {
			t.Errorf("Column %d has value %d, want %d (oldest columns must be evicted first)",
				i, col[0].R, want)
		}
	}
}

func TestAppendColumnNeverExceedsWidth(t *testing.T) {
	buf, err := NewBuffer(testWidth, testBins, nil)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}

	for i := 0; i < testWidth*3; i++ {
		buf.AppendColumn(uniformSnapshot(uint8(i)))
		if buf.Count() > testWidth {
			t.Fatalf("Count = %d exceeds width %d", buf.Count(), testWidth)
		}
	}
}

func TestAppendColumnWrongLengthPanics(t *testing.T) {
	buf, err := NewBuffer(testWidth, testBins, nil)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("AppendColumn accepted a snapshot of the wrong length")
		}
	}()
	buf.AppendColumn(make([]uint8, testBins+1))
}

func TestAppendColumnHotPath(t *testing.T) {
	buf, err := NewBuffer(testWidth, testBins, nil)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	snap := uniformSnapshot(128)

	buf.AppendColumn(snap)
	allocs := testing.AllocsPerRun(100, func() {
		buf.AppendColumn(snap)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in AppendColumn, got %.1f", allocs)
	}
}

func TestExportStillDimensionsAndContent(t *testing.T) {
	buf, err := NewBuffer(testWidth, testBins, NewGrayRamp())
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	buf.AppendColumn(uniformSnapshot(200))

	data, err := buf.ExportStill()
	if err != nil {
		t.Fatalf("ExportStill failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Exported still is not a decodable PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != testWidth || bounds.Dy() != testBins {
		t.Fatalf("Exported still is %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), testWidth, testBins)
	}

	// One column appended: it renders at the right edge, the rest black.
	r, _, _, _ := img.At(testWidth-1, 0).RGBA()
	if uint8(r>>8) != 200 {
		t.Errorf("Newest column value = %d, want 200", uint8(r>>8))
	}
	r, _, _, _ = img.At(0, 0).RGBA()
	if r != 0 {
		t.Errorf("Unfilled column value = %d, want 0", r)
	}
}

func TestExportStillDoesNotMutate(t *testing.T) {
	buf, err := NewBuffer(testWidth, testBins, NewGrayRamp())
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		buf.AppendColumn(uniformSnapshot(uint8(50 + i)))
	}

	first, err := buf.ExportStill()
	if err != nil {
		t.Fatalf("ExportStill failed: %v", err)
	}
	second, err := buf.ExportStill()
	if err != nil {
		t.Fatalf("ExportStill failed: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("Back-to-back exports of an unchanged buffer differ")
	}
	if buf.Count() != 3 {
		t.Errorf("Count changed to %d after export, want 3", buf.Count())
	}
}

func TestExportStillConcurrentWithAppendsIsColumnAtomic(t *testing.T) {
	buf, err := NewBuffer(testWidth, testBins, NewGrayRamp())
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}

	// Every appended column is uniform, so any exported column mixing
	// two frames' data would show as a non-uniform pixel column.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v := uint8(0)
		for {
			select {
			case <-stop:
				return
			default:
				v++
				buf.AppendColumn(uniformSnapshot(v))
			}
		}
	}()

	for i := 0; i < 50; i++ {
		data, err := buf.ExportStill()
		if err != nil {
			t.Fatalf("ExportStill failed: %v", err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("PNG decode failed: %v", err)
		}
		for x := 0; x < testWidth; x++ {
			first, _, _, _ := img.At(x, 0).RGBA()
			for y := 1; y < testBins; y++ {
				r, _, _, _ := img.At(x, y).RGBA()
				if r != first {
					t.Fatalf("Column %d is torn: row 0 = %d, row %d = %d", x, first, y, r)
				}
			}
		}
	}

	close(stop)
	wg.Wait()
}

func TestRenderRejectsWrongSizeTarget(t *testing.T) {
	buf, err := NewBuffer(testWidth, testBins, nil)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}

	if err := buf.Render(image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("Render accepted a target of the wrong size")
	}
	if err := buf.Render(image.NewRGBA(image.Rect(0, 0, testWidth, testBins))); err != nil {
		t.Errorf("Render rejected a correctly sized target: %v", err)
	}
}

func TestLiveSurfaceStaysCurrent(t *testing.T) {
	buf, err := NewBuffer(testWidth, testBins, NewGrayRamp())
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}

	live := buf.Live()
	if live.Count() != 0 {
		t.Fatalf("fresh surface count = %d, want 0", live.Count())
	}

	snapshot := make([]uint8, testBins)
	for i := range snapshot {
		snapshot[i] = 200
	}
	buf.AppendColumn(snapshot)

	// The view is a handle, not a copy: the append is visible.
	if live.Count() != 1 {
		t.Errorf("surface count after append = %d, want 1", live.Count())
	}
	col, err := live.ColumnAt(0)
	if err != nil {
		t.Fatalf("ColumnAt failed: %v", err)
	}
	if col[0].R != 200 {
		t.Errorf("surface column value = %d, want 200", col[0].R)
	}
}
