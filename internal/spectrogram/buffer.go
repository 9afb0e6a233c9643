// SPDX-License-Identifier: MIT
/*
Package spectrogram accumulates successive spectral snapshots into a
scrolling time-frequency image with strict FIFO eviction, and exports
the current contents as a PNG still.

Thread Safety:
- AppendColumn is single-caller (the analysis loop owns the buffer)
- ExportStill / Render / ColumnAt may run concurrently with appends;
  a column append is atomic from any reader's perspective (RWMutex)
*/
package spectrogram

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
)

// Buffer is a ring of color-mapped spectrogram columns. Width is the
// fixed number of visible time columns; height is the number of
// frequency bins. Once width columns have been appended, each new
// column evicts the oldest.
type Buffer struct {
	width  int
	height int
	ramp   *Ramp

	mu      sync.RWMutex
	columns [][]color.RGBA // Ring storage, width slots of height pixels
	head    int            // Next write slot
	count   int            // Valid columns, <= width
}

// NewBuffer creates a spectrogram buffer of width visible columns for
// snapshots of the given number of bins. A nil ramp selects the default
// heat ramp.
func NewBuffer(width, bins int, ramp *Ramp) (*Buffer, error) {
	if width <= 0 {
		return nil, fmt.Errorf("spectrogram: width must be positive, got %d", width)
	}
	if bins <= 0 {
		return nil, fmt.Errorf("spectrogram: bins must be positive, got %d", bins)
	}
	if ramp == nil {
		ramp = NewHeatRamp()
	}

	columns := make([][]color.RGBA, width)
	for i := range columns {
		columns[i] = make([]color.RGBA, bins)
	}

	return &Buffer{
		width:   width,
		height:  bins,
		ramp:    ramp,
		columns: columns,
	}, nil
}

// AppendColumn color-maps one snapshot and appends it as the newest
// column, evicting the oldest once the buffer is full. O(bins), no
// allocations; the evicted column's storage is reused in place. A
// snapshot of the wrong length is a contract violation and panics.
func (b *Buffer) AppendColumn(snapshot []uint8) {
	if len(snapshot) != b.height {
		panic(fmt.Sprintf("spectrogram: snapshot length %d, buffer requires %d", len(snapshot), b.height))
	}

	b.mu.Lock()
	MapColumn(snapshot, b.ramp, b.columns[b.head])
	b.head = (b.head + 1) % b.width
	if b.count < b.width {
		b.count++
	}
	b.mu.Unlock()
}

// Surface is the read-only view of the spectrogram grid handed to
// renderers: geometry queries plus snapshot reads, no appends.
type Surface interface {
	Width() int
	Height() int
	Count() int
	ColumnAt(i int) ([]color.RGBA, error)
	Render(dst *image.RGBA) error
}

// Live returns the buffer's read-only rendering view. The view stays
// current: columns appended after the call are visible through it.
func (b *Buffer) Live() Surface {
	return b
}

// Width returns the configured number of visible time columns.
func (b *Buffer) Width() int {
	return b.width
}

// Height returns the number of frequency bins (pixel rows).
func (b *Buffer) Height() int {
	return b.height
}

// Count returns the number of columns currently held, at most Width.
func (b *Buffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// ColumnAt copies the i-th oldest column (0 = oldest) into a new slice.
// Returns an error for out-of-range indices.
func (b *Buffer) ColumnAt(i int) ([]color.RGBA, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if i < 0 || i >= b.count {
		return nil, fmt.Errorf("spectrogram: column %d out of range [0, %d)", i, b.count)
	}

	src := b.columns[b.slot(i)]
	dst := make([]color.RGBA, b.height)
	copy(dst, src)
	return dst, nil
}

// Render draws the current grid into dst for continuous display,
// oldest column on the left, newest on the right. dst must be
// width x height. Slots not yet filled render black.
func (b *Buffer) Render(dst *image.RGBA) error {
	bounds := dst.Bounds()
	if bounds.Dx() != b.width || bounds.Dy() != b.height {
		return fmt.Errorf("spectrogram: render target %dx%d, buffer is %dx%d",
			bounds.Dx(), bounds.Dy(), b.width, b.height)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	b.draw(dst)
	return nil
}

// ExportStill encodes the buffer's current contents as a PNG. The
// buffer is not mutated and appends may proceed concurrently; the
// encoded image reflects the grid as of the moment of the call, with
// no partially written column.
func (b *Buffer) ExportStill() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))

	b.mu.RLock()
	b.draw(img)
	b.mu.RUnlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("spectrogram: png encode: %w", err)
	}
	return buf.Bytes(), nil
}

// draw paints the grid into img. Caller holds at least a read lock.
func (b *Buffer) draw(img *image.RGBA) {
	// Right-align the filled columns so the newest column is always at
	// the right edge, matching scroll direction.
	empty := b.width - b.count
	black := color.RGBA{0, 0, 0, 255}
	for x := 0; x < empty; x++ {
		for y := 0; y < b.height; y++ {
			img.SetRGBA(x, y, black)
		}
	}
	for i := 0; i < b.count; i++ {
		col := b.columns[b.slot(i)]
		x := empty + i
		for y := 0; y < b.height; y++ {
			img.SetRGBA(x, y, col[y])
		}
	}
}

// slot maps the i-th oldest column to its ring index. Caller holds at
// least a read lock.
func (b *Buffer) slot(i int) int {
	return (b.head - b.count + i + b.width) % b.width
}
