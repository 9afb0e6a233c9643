// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoad_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := Load("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("default sample rate = %.0f, want %d", cfg.Audio.SampleRate, DefaultSampleRate)
	}
	if cfg.Audio.WindowSize != DefaultWindowSize {
		t.Errorf("default window size = %d, want %d", cfg.Audio.WindowSize, DefaultWindowSize)
	}
	if cfg.Analysis.PitchMinHz != DefaultPitchMinHz || cfg.Analysis.PitchMaxHz != DefaultPitchMaxHz {
		t.Errorf("default pitch range = [%.0f, %.0f], want [%.0f, %.0f]",
			cfg.Analysis.PitchMinHz, cfg.Analysis.PitchMaxHz, DefaultPitchMinHz, DefaultPitchMaxHz)
	}
	if cfg.Spectrogram.Width != DefaultSpectrogramWidth {
		t.Errorf("default spectrogram width = %d, want %d", cfg.Spectrogram.Width, DefaultSpectrogramWidth)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := Load("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoad_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoad_FileValues(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
debug: true
log_level: debug
audio:
  input_device: 3
  channels: 2
  sample_rate: 48000
  window_size: 4096
  frames_per_buffer: 256
analysis:
  fft_window: Hamming
  pitch_min_hz: 80
  pitch_max_hz: 400
  clarity_floor: 0.6
spectrogram:
  width: 256
  floor_db: -90
transport:
  udp_enabled: true
  udp_target_address: "10.0.0.5:9000"
  udp_send_interval: 50ms
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Debug || cfg.LogLevel != "debug" {
		t.Errorf("debug settings not applied: debug=%v level=%q", cfg.Debug, cfg.LogLevel)
	}
	if cfg.Audio.DeviceID != 3 || cfg.Audio.Channels != 2 {
		t.Errorf("audio device settings not applied: %+v", cfg.Audio)
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.WindowSize != 4096 || cfg.Audio.FramesPerBuffer != 256 {
		t.Errorf("audio rate settings not applied: %+v", cfg.Audio)
	}
	if cfg.Analysis.WindowFunc != "Hamming" {
		t.Errorf("fft_window = %q, want Hamming", cfg.Analysis.WindowFunc)
	}
	if cfg.Analysis.PitchMinHz != 80 || cfg.Analysis.PitchMaxHz != 400 || cfg.Analysis.ClarityFloor != 0.6 {
		t.Errorf("analysis settings not applied: %+v", cfg.Analysis)
	}
	if cfg.Spectrogram.Width != 256 || cfg.Spectrogram.FloorDB != -90 {
		t.Errorf("spectrogram settings not applied: %+v", cfg.Spectrogram)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "10.0.0.5:9000" {
		t.Errorf("transport settings not applied: %+v", cfg.Transport)
	}
	if cfg.Transport.UDPSendInterval != 50*time.Millisecond {
		t.Errorf("udp_send_interval = %v, want 50ms", cfg.Transport.UDPSendInterval)
	}

	// Unset fields keep their defaults.
	if cfg.Transport.WSPort != "8080" {
		t.Errorf("ws_port default lost: %q", cfg.Transport.WSPort)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_DEBUG", "true")
	t.Setenv("ENV_WS_ENABLED", "true")
	t.Setenv("ENV_WS_PORT", "9999")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "100ms")
	t.Setenv("ENV_REPORT_MODEL", "coach-large")

	path := writeTempConfig(t, "transport:\n  ws_port: \"8081\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Debug {
		t.Error("ENV_DEBUG override not applied")
	}
	if !cfg.Transport.WSEnabled || cfg.Transport.WSPort != "9999" {
		t.Errorf("env transport overrides not applied over file: %+v", cfg.Transport)
	}
	if cfg.Transport.UDPSendInterval != 100*time.Millisecond {
		t.Errorf("ENV_UDP_SEND_INTERVAL = %v, want 100ms", cfg.Transport.UDPSendInterval)
	}
	if cfg.Report.Model != "coach-large" {
		t.Errorf("ENV_REPORT_MODEL = %q, want coach-large", cfg.Report.Model)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Valid defaults", func(c *Config) {}, ""},
		{"Sample rate too low", func(c *Config) { c.Audio.SampleRate = 4000 }, "sample_rate"},
		{"Window not power of two", func(c *Config) { c.Audio.WindowSize = 3000 }, "window_size"},
		{"Window too large", func(c *Config) { c.Audio.WindowSize = MaxWindowSize * 2 }, "window_size"},
		{"Frames per buffer zero", func(c *Config) { c.Audio.FramesPerBuffer = 0 }, "frames_per_buffer"},
		{"Frames exceed window", func(c *Config) { c.Audio.FramesPerBuffer = c.Audio.WindowSize * 2 }, "frames_per_buffer"},
		{"Bad channel count", func(c *Config) { c.Audio.Channels = 3 }, "channels"},
		{"Inverted pitch range", func(c *Config) { c.Analysis.PitchMinHz = 500; c.Analysis.PitchMaxHz = 60 }, "pitch range"},
		{"Pitch above Nyquist", func(c *Config) { c.Analysis.PitchMaxHz = 30000 }, "Nyquist"},
		{"Clarity floor out of range", func(c *Config) { c.Analysis.ClarityFloor = 1.5 }, "clarity_floor"},
		{"Zero spectrogram width", func(c *Config) { c.Spectrogram.Width = 0 }, "width"},
		{"Positive floor dB", func(c *Config) { c.Spectrogram.FloorDB = 10 }, "floor_db"},
		{"Bad bit depth", func(c *Config) { c.Recording.Enabled = true; c.Recording.BitDepth = 8 }, "bit_depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
