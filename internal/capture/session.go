// SPDX-License-Identifier: MIT
/*
Package capture owns microphone input: device selection, the PortAudio
input stream, the double-buffered signal window the analysis loop reads
from, and optional WAV clip recording.

Thread Safety:
- The PortAudio callback is the single producer of the signal window
- Recording state uses an atomic flag so the callback never locks
- Pre-allocates all callback buffers to avoid GC in the hot path
*/
package capture

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
	"os"

	"vocalscope/internal/config"
	applog "vocalscope/internal/log"
)

// Session represents one "am I listening" lifetime: it owns the input
// stream handle and the signal window, created by Open and destroyed by
// Close. A failed Open leaves no partially-initialized state behind.
type Session struct {
	cfg     *config.Config
	device  *portaudio.DeviceInfo
	latency time.Duration
	stream  *portaudio.Stream
	window  *SignalWindow

	// Recording state and buffers.
	isRecording int32 // Atomic flag so the callback stays lock-free
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
	sampleScale float64
	clipPath    string
}

// Open resolves the input device and allocates the session's buffers.
// Fails with ErrInputUnavailable when no device or permission exists;
// in that case nothing is allocated and no stream is held.
func Open(cfg *config.Config) (*Session, error) {
	device, err := InputDevice(cfg.Audio.DeviceID)
	if err != nil {
		return nil, err
	}

	window, err := NewSignalWindow(cfg.Audio.WindowSize)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		device: device,
		window: window,
	}

	if cfg.Audio.LowLatency {
		s.latency = device.DefaultLowInputLatency
	} else {
		s.latency = device.DefaultHighInputLatency
	}

	applog.Infof("Capture: Session opened (device: %s, %.0f Hz, window: %d)",
		device.Name, cfg.Audio.SampleRate, cfg.Audio.WindowSize)

	return s, nil
}

// Window returns the session's signal window for the analysis loop.
func (s *Session) Window() *SignalWindow {
	return s.window
}

// Start opens and starts the input stream. The first callback marks the
// start of the hot path. Returns ErrSessionActive if already started.
func (s *Session) Start() error {
	if s.stream != nil {
		return ErrSessionActive
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   s.device,
			Channels: s.cfg.Audio.Channels,
			Latency:  s.latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // Capture only
			Device:   nil,
		},
		FramesPerBuffer: s.cfg.Audio.FramesPerBuffer,
		SampleRate:      s.cfg.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, s.processInput)
	if err != nil {
		return err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}
	s.stream = stream

	return nil
}

// Stop stops and releases the input stream. Idempotent; the signal
// window keeps its last contents so a final analysis pass and the
// spectrogram export remain possible after stopping.
func (s *Session) Stop() error {
	if s.stream == nil {
		return nil
	}

	if err := s.stream.Stop(); err != nil {
		return err
	}
	if err := s.stream.Close(); err != nil {
		return err
	}
	s.stream = nil

	return nil
}

// Close stops any active recording and releases the input stream.
func (s *Session) Close() error {
	if atomic.LoadInt32(&s.isRecording) == 1 {
		if err := s.StopRecording(); err != nil {
			return err
		}
	}
	return s.Stop()
}

// processInput is the PortAudio capture callback.
// Performance Critical:
// - Runs on the audio thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations, no locks
func (s *Session) processInput(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.window.Push(in, s.cfg.Audio.Channels)

	if atomic.LoadInt32(&s.isRecording) == 1 && s.wavEncoder != nil {
		s.writeRecording(in)
	}
}
