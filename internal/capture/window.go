// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"sync/atomic"

	"vocalscope/pkg/bitint"
)

// SignalWindow is the fixed-size sample window shared between the audio
// callback (single producer) and the analysis loop (reader). It is
// double-buffered: the producer fills one buffer while readers see the
// last completed one, and the roles swap atomically on every completed
// fill. Reads never block and never observe a half-written window.
type SignalWindow struct {
	size int

	// bufs are the two fixed backing buffers; only their contents ever
	// change, so pointers into the array stay valid for the window's
	// lifetime.
	bufs      [2][]float64
	fillIdx   int
	pos       int
	published atomic.Pointer[[]float64]
}

// NewSignalWindow creates a window of size samples (power of 2).
// Readers see an all-zero window until the first fill completes.
func NewSignalWindow(size int) (*SignalWindow, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("capture: window size must be a power of 2, got %d", size)
	}

	w := &SignalWindow{size: size}
	w.bufs[0] = make([]float64, size)
	w.bufs[1] = make([]float64, size)
	w.published.Store(&w.bufs[0])
	w.fillIdx = 1
	return w, nil
}

// Size returns the window length in samples.
func (w *SignalWindow) Size() int {
	return w.size
}

// Push feeds interleaved samples from the capture callback, taking the
// first channel of every frame (stride = channel count). When the fill
// buffer completes, it is published for readers and the previous read
// buffer becomes the new fill target.
//
// Performance Critical (audio callback):
// - No allocations, no locks; a single atomic store per completed fill
// - Single producer only
func (w *SignalWindow) Push(samples []float32, stride int) {
	if stride < 1 {
		stride = 1
	}
	fill := w.bufs[w.fillIdx]
	for i := 0; i < len(samples); i += stride {
		fill[w.pos] = float64(samples[i])
		w.pos++
		if w.pos == w.size {
			w.published.Store(&w.bufs[w.fillIdx])
			w.fillIdx = 1 - w.fillIdx
			w.pos = 0
			fill = w.bufs[w.fillIdx]
		}
	}
}

// CurrentWindow returns a copy of the most recently completed window.
// Never blocks; allocates the returned slice. Use CurrentWindowInto
// from per-tick code.
func (w *SignalWindow) CurrentWindow() []float64 {
	dst := make([]float64, w.size)
	copy(dst, *w.published.Load())
	return dst
}

// CurrentWindowInto copies the most recently completed window into dst
// without allocating. dst must have the window's exact length. Never
// blocks; a reader overlapping the producer's next swap may see data
// one fill stale, which the analysis contract tolerates.
func (w *SignalWindow) CurrentWindowInto(dst []float64) error {
	if len(dst) != w.size {
		return fmt.Errorf("capture: destination length %d does not match window size %d", len(dst), w.size)
	}
	copy(dst, *w.published.Load())
	return nil
}
