// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"vocalscope/pkg/bitint"
)

// Load builds the configuration from a YAML file at path. If path is
// empty it searches default locations ("vocalscope.yaml", "config.yaml")
// and falls back to built-in defaults when no file is found. Environment
// variable overrides are applied after the file, and the final
// configuration is validated.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{
			"vocalscope.yaml",
			"config.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides after loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run
// with. It is called after every load and again after flag overrides.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f out of range [%d, %d]",
			c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(c.Audio.WindowSize) || c.Audio.WindowSize > MaxWindowSize {
		return fmt.Errorf("audio.window_size must be a power of 2 up to %d, got %d",
			MaxWindowSize, c.Audio.WindowSize)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > c.Audio.WindowSize {
		return fmt.Errorf("audio.frames_per_buffer must be in (0, window_size], got %d",
			c.Audio.FramesPerBuffer)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got %d", c.Audio.Channels)
	}
	if c.Analysis.PitchMinHz <= 0 || c.Analysis.PitchMaxHz <= c.Analysis.PitchMinHz {
		return fmt.Errorf("analysis pitch range [%.1f, %.1f] is invalid",
			c.Analysis.PitchMinHz, c.Analysis.PitchMaxHz)
	}
	if c.Analysis.PitchMaxHz >= c.Audio.SampleRate/2 {
		return fmt.Errorf("analysis.pitch_max_hz %.1f exceeds the Nyquist frequency",
			c.Analysis.PitchMaxHz)
	}
	if c.Analysis.ClarityFloor < 0 || c.Analysis.ClarityFloor > 1 {
		return fmt.Errorf("analysis.clarity_floor must be in [0, 1], got %.2f",
			c.Analysis.ClarityFloor)
	}
	if c.Spectrogram.Width <= 0 {
		return fmt.Errorf("spectrogram.width must be positive, got %d", c.Spectrogram.Width)
	}
	if c.Spectrogram.FloorDB >= 0 {
		return fmt.Errorf("spectrogram.floor_db must be negative, got %.1f", c.Spectrogram.FloorDB)
	}
	if c.Recording.Enabled && c.Recording.BitDepth != 16 && c.Recording.BitDepth != 24 {
		return fmt.Errorf("recording.bit_depth must be 16 or 24, got %d", c.Recording.BitDepth)
	}
	if c.Transport.UDPEnabled && c.Transport.UDPSendInterval <= 0 {
		return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
	}
	if c.Report.Enabled && c.Report.BaseURL == "" {
		return fmt.Errorf("report.base_url must be set when the report request is enabled")
	}
	return nil
}

// applyEnvOverrides applies ENV_-prefixed environment variables on top
// of whatever the file (or defaults) produced.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.WSEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("ENV_WS_PORT"); ok {
		c.Transport.WSPort = val
	}
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
		}
	}
	if val, ok := os.LookupEnv("ENV_REPORT_URL"); ok {
		c.Report.BaseURL = val
	}
	if val, ok := os.LookupEnv("ENV_REPORT_MODEL"); ok {
		c.Report.Model = val
	}
}
