// SPDX-License-Identifier: MIT
/*
Package analysis turns a fixed-length window of time-domain samples into
a frequency-domain snapshot plus scalar vocal metrics (pitch, volume,
clarity).

Thread Safety:
- Analyze is single-caller; the analysis loop owns the analyzer
- Pre-allocates all buffers to avoid GC in the hot path
- Deterministic: the same window always yields the same result
*/
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"vocalscope/pkg/bitint"
)

// FloorDB is the loudness reported for a silent window. Volume is
// clamped here instead of producing -Inf on zero energy.
const FloorDB = -100.0

// Snapshot is one column of the spectrogram: per-bin magnitude
// quantized to 0-255 on a clamped dB scale, index 0 = DC. A Snapshot
// returned by Analyze aliases the analyzer's workspace and is only
// valid until the next Analyze call; copy it to retain it.
type Snapshot []uint8

// Metrics carries the scalar results of one analysis tick.
type Metrics struct {
	Pitch   float64 `json:"pitch"`   // Estimated fundamental in Hz, 0 when undetected
	Volume  float64 `json:"volume"`  // RMS loudness in dBFS, clamped to FloorDB
	Clarity float64 `json:"clarity"` // Harmonic purity in [0, 1], 0 when undeterminable
}

// workspace holds pre-allocated buffers for the per-tick calculations.
type workspace struct {
	input     []float64    // Windowed input samples
	fftOutput []complex128 // FFT complex results
	magnitude []float64    // Raw magnitudes
	window    []float64    // Window function coefficients
	acf       []float64    // Normalized autocorrelation by lag
	snapshot  []uint8      // Quantized magnitude column
}

// Analyzer computes the spectral snapshot and metrics for successive
// analysis windows. All buffers are allocated up front; Analyze itself
// performs no allocations.
type Analyzer struct {
	fftSize      int
	bins         int
	sampleRate   float64
	floorDB      float64
	refMagnitude float64
	fft          *fourier.FFT
	pitch        pitchDetector
	workspace    workspace
}

// NewAnalyzer creates an Analyzer for windows of fftSize samples at the
// given sample rate. fftSize must be a power of 2 and the pitch range
// must sit below the Nyquist frequency.
func NewAnalyzer(fftSize int, sampleRate float64, opts Options) (*Analyzer, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("analysis: fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("analysis: sample rate must be positive, got %f", sampleRate)
	}
	opts = opts.withDefaults()
	if opts.PitchMaxHz >= sampleRate/2 {
		return nil, fmt.Errorf("analysis: pitch range top %.1f Hz exceeds Nyquist", opts.PitchMaxHz)
	}

	windowCoeffs := make([]float64, fftSize)
	applyWindow(windowCoeffs, opts.Window)

	pitch, err := newPitchDetector(fftSize, sampleRate, opts)
	if err != nil {
		return nil, err
	}

	bins := fftSize/2 + 1

	return &Analyzer{
		fftSize:    fftSize,
		bins:       bins,
		sampleRate: sampleRate,
		floorDB:    opts.FloorDB,
		// 0 dB reference: full-scale sine under a Hann window lands
		// near N/4 in an unnormalized real FFT.
		refMagnitude: float64(fftSize) / 4.0,
		fft:          fourier.NewFFT(fftSize),
		pitch:        pitch,
		workspace: workspace{
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, bins),
			magnitude: make([]float64, bins),
			window:    windowCoeffs,
			acf:       make([]float64, pitch.maxLag+2),
			snapshot:  make([]uint8, bins),
		},
	}, nil
}

// Options tunes the analyzer. The zero value picks voice-range defaults.
type Options struct {
	Window       WindowFunc // FFT window function
	PitchMinHz   float64    // Lowest reportable pitch (default 60)
	PitchMaxHz   float64    // Highest reportable pitch (default 500)
	ClarityFloor float64    // Correlation peak below this reports pitch=0 (default 0.5)
	FloorDB      float64    // dB mapped to zero snapshot intensity (default -100)
}

func (o Options) withDefaults() Options {
	if o.PitchMinHz == 0 {
		o.PitchMinHz = 60
	}
	if o.PitchMaxHz == 0 {
		o.PitchMaxHz = 500
	}
	if o.ClarityFloor == 0 {
		o.ClarityFloor = 0.5
	}
	if o.FloorDB == 0 {
		o.FloorDB = FloorDB
	}
	return o
}

// Analyze computes the spectral snapshot and metrics for one window.
// The window length must equal the configured FFT size; anything else
// is a contract violation upstream and panics rather than degrading
// silently. A silent window yields an all-zero snapshot, volume at the
// silence floor, pitch 0, and clarity 0.
func (a *Analyzer) Analyze(window []float64) (Snapshot, Metrics) {
	if len(window) != a.fftSize {
		panic(fmt.Sprintf("analysis: window length %d, analyzer requires %d", len(window), a.fftSize))
	}

	// --- 1. Volume from raw RMS ---
	var sumSquares float64
	for _, s := range window {
		sumSquares += s * s
	}
	rms := math.Sqrt(sumSquares / float64(a.fftSize))
	volume := a.floorDB
	if rms > 0 {
		volume = 20 * math.Log10(rms)
		if volume < a.floorDB {
			volume = a.floorDB
		} else if volume > 0 {
			volume = 0
		}
	}

	// --- 2. Windowed FFT and magnitudes ---
	for i := range a.fftSize {
		a.workspace.input[i] = window[i] * a.workspace.window[i]
	}
	a.fft.Coefficients(a.workspace.fftOutput, a.workspace.input)
	for i, c := range a.workspace.fftOutput {
		a.workspace.magnitude[i] = cmplx.Abs(c)
	}

	// --- 3. Quantize the snapshot on a clamped dB scale ---
	span := -a.floorDB
	for i, mag := range a.workspace.magnitude {
		if mag <= 0 {
			a.workspace.snapshot[i] = 0
			continue
		}
		db := 20 * math.Log10(mag/a.refMagnitude)
		if db <= a.floorDB {
			a.workspace.snapshot[i] = 0
		} else if db >= 0 {
			a.workspace.snapshot[i] = 255
		} else {
			a.workspace.snapshot[i] = uint8((db + span) / span * 255)
		}
	}

	// --- 4. Pitch and clarity from the raw window ---
	pitch, clarity := a.pitch.detect(window, sumSquares, a.workspace.acf)

	return a.workspace.snapshot, Metrics{
		Pitch:   pitch,
		Volume:  volume,
		Clarity: clarity,
	}
}

// Bins returns the number of frequency bins per snapshot (fftSize/2+1).
func (a *Analyzer) Bins() int {
	return a.bins
}

// FFTSize returns the configured window length in samples.
func (a *Analyzer) FFTSize() int {
	return a.fftSize
}

// SampleRate returns the configured sample rate (Hz).
func (a *Analyzer) SampleRate() float64 {
	return a.sampleRate
}

// FrequencyForBin returns the center frequency (Hz) for a bin index,
// or 0 for out-of-range indices.
func (a *Analyzer) FrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= a.bins {
		return 0
	}
	return float64(binIndex) * (a.sampleRate / float64(a.fftSize))
}
