// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "vocalscope/internal/log"
)

// StartRecording begins writing the captured input to a WAV clip at
// filename. The clip doubles as the audio attachment for the external
// report request.
func (s *Session) StartRecording(filename string) error {
	if atomic.LoadInt32(&s.isRecording) == 1 {
		return ErrAlreadyRecording
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	s.outputFile = file
	s.clipPath = filename

	bitDepth := s.cfg.Recording.BitDepth
	s.wavEncoder = wav.NewEncoder(file, int(s.cfg.Audio.SampleRate),
		bitDepth, s.cfg.Audio.Channels, 1)
	s.sampleScale = float64(int(1)<<(bitDepth-1)) - 1

	s.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: s.cfg.Audio.Channels,
			SampleRate:  int(s.cfg.Audio.SampleRate),
		},
		SourceBitDepth: bitDepth,
		Data:           make([]int, s.cfg.Audio.FramesPerBuffer*s.cfg.Audio.Channels),
	}

	atomic.StoreInt32(&s.isRecording, 1)
	applog.Infof("Capture: Recording to %s (%d-bit)", filename, bitDepth)

	return nil
}

// StopRecording finalizes the WAV clip. Safe to call when not
// recording.
func (s *Session) StopRecording() error {
	if atomic.LoadInt32(&s.isRecording) == 0 {
		return nil
	}

	atomic.StoreInt32(&s.isRecording, 0)

	if s.wavEncoder != nil {
		if err := s.wavEncoder.Close(); err != nil {
			return err
		}
		s.wavEncoder = nil
	}

	if s.outputFile != nil {
		if err := s.outputFile.Close(); err != nil {
			return err
		}
		s.outputFile = nil
	}

	return nil
}

// ClipPath returns the path of the current or last recorded clip, empty
// when nothing was recorded.
func (s *Session) ClipPath() string {
	return s.clipPath
}

// ReadClip returns the bytes of the last recorded clip for the report
// request. Recording must be stopped first.
func (s *Session) ReadClip() ([]byte, error) {
	if atomic.LoadInt32(&s.isRecording) == 1 {
		return nil, fmt.Errorf("capture: stop recording before reading the clip")
	}
	if s.clipPath == "" {
		return nil, fmt.Errorf("capture: no clip was recorded")
	}
	return os.ReadFile(s.clipPath)
}

// writeRecording converts one callback buffer to integer PCM and hands
// it to the WAV encoder. Called from the audio callback while the
// recording flag is set.
func (s *Session) writeRecording(in []float32) {
	s.sampleBuf.Data = s.sampleBuf.Data[:len(in)]
	for i, sample := range in {
		v := float64(sample)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		s.sampleBuf.Data[i] = int(v * s.sampleScale)
	}

	if err := s.wavEncoder.Write(s.sampleBuf); err != nil {
		applog.Errorf("Capture: Error writing to WAV file: %v", err)
	}
}
