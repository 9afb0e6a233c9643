// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"strings"
	"testing"

	"vocalscope/pkg/utils"
)

const (
	testFFTSize    = 2048
	testSampleRate = 44100.0
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	analyzer, err := NewAnalyzer(testFFTSize, testSampleRate, Options{})
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}
	return analyzer
}

func TestAnalyzeSilence(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	silence := make([]float64, testFFTSize)

	snapshot, metrics := analyzer.Analyze(silence)

	if metrics.Volume != FloorDB {
		t.Errorf("Silent window volume = %.2f, want floor %.2f", metrics.Volume, FloorDB)
	}
	if metrics.Pitch != 0 {
		t.Errorf("Silent window pitch = %.2f, want 0", metrics.Pitch)
	}
	if metrics.Clarity != 0 {
		t.Errorf("Silent window clarity = %.2f, want 0", metrics.Clarity)
	}
	for i, v := range snapshot {
		if v != 0 {
			t.Fatalf("Silent window snapshot bin %d = %d, want 0", i, v)
		}
	}
}

func TestAnalyzeSinePitch(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	for _, freq := range []float64{80, 110, 220, 330, 440} {
		window := utils.GenerateSineWave(testFFTSize, testSampleRate, freq)
		_, metrics := analyzer.Analyze(window)

		if metrics.Pitch == 0 {
			t.Errorf("Pitch undetected for %.0f Hz sine", freq)
			continue
		}
		relErr := math.Abs(metrics.Pitch-freq) / freq
		if relErr > 0.02 {
			t.Errorf("Pitch for %.0f Hz sine = %.2f Hz (%.2f%% off), want within 2%%",
				freq, metrics.Pitch, relErr*100)
		}
		if metrics.Clarity < 0.9 {
			t.Errorf("Clarity for %.0f Hz sine = %.2f, want >= 0.9", freq, metrics.Clarity)
		}
	}
}

func TestAnalyzeComplexWavePitch(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	// Harmonics should not pull the estimate away from the fundamental.
	window := utils.GenerateComplexWave(testFFTSize, testSampleRate)
	_, metrics := analyzer.Analyze(window)

	if math.Abs(metrics.Pitch-220)/220 > 0.02 {
		t.Errorf("Pitch for 220 Hz complex wave = %.2f Hz, want within 2%%", metrics.Pitch)
	}
}

func TestAnalyzeVolume(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	// A sine of amplitude 0.9 has RMS 0.9/sqrt(2).
	window := utils.GenerateSineWave(testFFTSize, testSampleRate, 220)
	_, metrics := analyzer.Analyze(window)

	want := 20 * math.Log10(0.9/math.Sqrt2)
	if math.Abs(metrics.Volume-want) > 0.5 {
		t.Errorf("Volume = %.2f dBFS, want %.2f +/- 0.5", metrics.Volume, want)
	}
}

func TestAnalyzeNoiseReportsNoPitch(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	window := utils.GenerateNoise(testFFTSize, 0.5, 12345)
	_, metrics := analyzer.Analyze(window)

	if metrics.Pitch != 0 {
		t.Errorf("Noise window pitch = %.2f, want 0 (undetected)", metrics.Pitch)
	}
	if metrics.Clarity >= 0.5 {
		t.Errorf("Noise window clarity = %.2f, want below the clarity floor", metrics.Clarity)
	}
	if metrics.Volume <= FloorDB {
		t.Errorf("Noise window volume = %.2f, want above the silence floor", metrics.Volume)
	}
}

func TestAnalyzeSnapshotPeakBin(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	freq := 440.0
	window := utils.GenerateSineWave(testFFTSize, testSampleRate, freq)
	snapshot, _ := analyzer.Analyze(window)

	peakBin := 0
	for i, v := range snapshot {
		if v > snapshot[peakBin] {
			peakBin = i
		}
	}

	wantBin := int(math.Round(freq / (testSampleRate / testFFTSize)))
	if peakBin < wantBin-1 || peakBin > wantBin+1 {
		t.Errorf("Snapshot peak at bin %d, want %d +/- 1", peakBin, wantBin)
	}
}

func TestAnalyzeSnapshotMonotoneInAmplitude(t *testing.T) {
	analyzer, err := NewAnalyzer(testFFTSize, testSampleRate, Options{})
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	quiet := utils.GenerateSineWave(testFFTSize, testSampleRate, 220)
	loud := make([]float64, testFFTSize)
	for i := range quiet {
		loud[i] = quiet[i]
		quiet[i] *= 0.1
	}

	quietSnap, _ := analyzer.Analyze(quiet)
	quietCopy := make([]uint8, len(quietSnap))
	copy(quietCopy, quietSnap)

	loudSnap, _ := analyzer.Analyze(loud)
	for i := range loudSnap {
		if loudSnap[i] < quietCopy[i] {
			t.Fatalf("Bin %d intensity decreased (%d -> %d) when amplitude increased",
				i, quietCopy[i], loudSnap[i])
		}
	}
}

func TestAnalyzeWrongLengthPanics(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Analyze accepted a window of the wrong length")
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, "window length") {
			t.Errorf("Unexpected panic value: %v", r)
		}
	}()
	analyzer.Analyze(make([]float64, testFFTSize/2))
}

func TestAnalyzeHotPath(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	window := utils.GenerateComplexWave(testFFTSize, testSampleRate)

	// Warm-up call so first-use allocations don't count.
	analyzer.Analyze(window)
	allocs := testing.AllocsPerRun(20, func() {
		analyzer.Analyze(window)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in Analyze hot path, got %.1f", allocs)
	}
}

func TestNewAnalyzerRejectsBadConfig(t *testing.T) {
	if _, err := NewAnalyzer(1000, testSampleRate, Options{}); err == nil {
		t.Error("Expected error for non power-of-2 size")
	}
	if _, err := NewAnalyzer(testFFTSize, -1, Options{}); err == nil {
		t.Error("Expected error for negative sample rate")
	}
	if _, err := NewAnalyzer(testFFTSize, testSampleRate, Options{PitchMaxHz: 30000}); err == nil {
		t.Error("Expected error for pitch range above Nyquist")
	}
	if _, err := NewAnalyzer(256, 48000, Options{}); err == nil {
		t.Error("Expected error when the window cannot hold the longest pitch period")
	}
}

func TestFrequencyForBin(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	if got := analyzer.FrequencyForBin(0); got != 0 {
		t.Errorf("DC bin frequency = %.2f, want 0", got)
	}
	binWidth := testSampleRate / testFFTSize
	if got := analyzer.FrequencyForBin(10); math.Abs(got-10*binWidth) > 1e-9 {
		t.Errorf("Bin 10 frequency = %.4f, want %.4f", got, 10*binWidth)
	}
	if got := analyzer.FrequencyForBin(-1); got != 0 {
		t.Errorf("Negative bin frequency = %.2f, want 0", got)
	}
	if got := analyzer.FrequencyForBin(analyzer.Bins()); got != 0 {
		t.Errorf("Out-of-range bin frequency = %.2f, want 0", got)
	}
}

func BenchmarkAnalyze(b *testing.B) {
	analyzer, err := NewAnalyzer(testFFTSize, testSampleRate, Options{})
	if err != nil {
		b.Fatalf("NewAnalyzer failed: %v", err)
	}
	window := utils.GenerateComplexWave(testFFTSize, testSampleRate)

	b.ReportAllocs()

	for b.Loop() {
		analyzer.Analyze(window)
	}
}
