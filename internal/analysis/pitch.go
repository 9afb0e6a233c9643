// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
)

// pitchDetector estimates the fundamental frequency of a window by
// normalized autocorrelation over the lag range corresponding to the
// configured pitch range. The height of the best correlation peak
// doubles as the clarity metric: near 1 for a clean periodic signal,
// near 0 for noise.
type pitchDetector struct {
	sampleRate   float64
	minLag       int // Lag for PitchMaxHz (shortest period)
	maxLag       int // Lag for PitchMinHz (longest period)
	clarityFloor float64
}

func newPitchDetector(fftSize int, sampleRate float64, opts Options) (pitchDetector, error) {
	minLag := int(sampleRate / opts.PitchMaxHz)
	maxLag := int(math.Ceil(sampleRate / opts.PitchMinHz))

	if minLag < 2 {
		minLag = 2
	}
	// Keep at least half the window overlapping at the longest lag so
	// the correlation estimate stays meaningful.
	if maxLag > fftSize/2 {
		return pitchDetector{}, fmt.Errorf(
			"analysis: pitch floor %.1f Hz needs lag %d, window of %d supports at most %d",
			opts.PitchMinHz, maxLag, fftSize, fftSize/2)
	}

	return pitchDetector{
		sampleRate:   sampleRate,
		minLag:       minLag,
		maxLag:       maxLag,
		clarityFloor: opts.ClarityFloor,
	}, nil
}

// detect returns (pitch Hz, clarity). sumSquares is the window's total
// energy, already computed by the caller; acf is a scratch buffer of at
// least maxLag+2 entries. A window with no energy or no correlation
// peak above the clarity floor reports pitch 0. Clarity is the best
// normalized correlation in [0, 1], 0 for silence.
func (d pitchDetector) detect(window []float64, sumSquares float64, acf []float64) (float64, float64) {
	if sumSquares == 0 {
		return 0, 0
	}

	n := len(window)
	bestLag := 0
	bestCorr := 0.0

	for lag := d.minLag; lag <= d.maxLag; lag++ {
		var cross, energyA, energyB float64
		for i := 0; i < n-lag; i++ {
			a := window[i]
			b := window[i+lag]
			cross += a * b
			energyA += a * a
			energyB += b * b
		}

		norm := math.Sqrt(energyA * energyB)
		corr := 0.0
		if norm > 0 {
			corr = cross / norm
		}
		acf[lag] = corr

		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	if bestLag == 0 || bestCorr <= 0 {
		return 0, 0
	}

	clarity := bestCorr
	if clarity > 1 {
		clarity = 1
	}

	if bestCorr < d.clarityFloor {
		return 0, clarity
	}

	// Parabolic interpolation around the peak recovers sub-sample lag
	// precision; without it the pitch error equals one full lag step.
	refined := float64(bestLag)
	if bestLag > d.minLag && bestLag < d.maxLag {
		prev := acf[bestLag-1]
		next := acf[bestLag+1]
		denom := prev - 2*bestCorr + next
		if denom != 0 {
			delta := 0.5 * (prev - next) / denom
			if delta > -1 && delta < 1 {
				refined += delta
			}
		}
	}

	return d.sampleRate / refined, clarity
}
