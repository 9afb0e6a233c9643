// SPDX-License-Identifier: MIT
//
// Package utils provides synthetic signal generators shared by tests
// across the analysis, loop, and spectrogram packages.
package utils

import "math"

// GenerateSineWave returns a pure sine window of the given frequency,
// sampled at sampleRate, with samples in [-0.9, 0.9].
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

// GenerateComplexWave returns a 220Hz fundamental with two harmonics,
// approximating a voiced vowel.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*220*tm)*0.5 +
			math.Sin(2*math.Pi*440*tm)*0.3 +
			math.Sin(2*math.Pi*660*tm)*0.2
	}
	return buffer
}

// GenerateNoise returns deterministic pseudo-random noise in [-amp, amp]
// using a linear congruential generator, so tests are reproducible.
func GenerateNoise(size int, amp float64, seed uint32) []float64 {
	buffer := make([]float64, size)
	state := seed
	for i := range buffer {
		state = state*1664525 + 1013904223
		buffer[i] = (float64(state)/float64(math.MaxUint32)*2 - 1) * amp
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in
// magnitudes[startBin..endBin], clamping the range to valid indices.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
