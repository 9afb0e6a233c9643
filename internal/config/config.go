// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the vocal analysis engine.
const (
	// Default values for audio capture.
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultChannels        = 1           // Mono capture
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultWindowSize      = 2048        // Analysis window (power of 2)
	DefaultFramesPerBuffer = 512         // Capture callback chunk (balanced latency)
	DefaultLowLatency      = false       // Standard latency mode

	// Default values for spectral analysis.
	DefaultWindowFunc   = "Hann" // FFT window function
	DefaultPitchMinHz   = 60.0   // Lower bound of the voice pitch range
	DefaultPitchMaxHz   = 500.0  // Upper bound of the voice pitch range
	DefaultClarityFloor = 0.5    // Minimum correlation peak for a pitch report

	// Default values for the spectrogram.
	DefaultSpectrogramWidth = 512    // Visible time columns
	DefaultFloorDB          = -100.0 // dBFS value treated as silence

	// Hardware and processing limits.
	MinDeviceID   = -1     // -1 represents the system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxWindowSize = 8192   // Maximum analysis window (power of 2)
)

// Config holds all runtime configuration for the engine. It is built
// from defaults, optionally a YAML file, environment overrides, and
// finally command line flags.
type Config struct {
	Debug    bool   `yaml:"debug"`             // Verbose logging and debug features
	LogLevel string `yaml:"log_level"`         // "debug", "info", "warn", "error"
	Command  string `yaml:"command,omitempty"` // One-off command (e.g. "list") instead of running the engine
	TUIMode  bool   `yaml:"tui"`               // Render the live metrics meter

	Audio       AudioConfig       `yaml:"audio"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Spectrogram SpectrogramConfig `yaml:"spectrogram"`
	Recording   RecordingConfig   `yaml:"recording"`
	Transport   TransportConfig   `yaml:"transport"`
	Report      ReportConfig      `yaml:"report"`
}

// AudioConfig holds settings for the capture session.
type AudioConfig struct {
	DeviceID        int     `yaml:"input_device"`      // PortAudio device index (-1 for default)
	Channels        int     `yaml:"channels"`          // Input channels to capture (1=mono, 2=stereo)
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz
	WindowSize      int     `yaml:"window_size"`       // Analysis window length in samples (power of 2)
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Capture callback chunk size (affects latency)
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from the device
}

// AnalysisConfig holds settings for spectral analysis and the metric
// estimators.
type AnalysisConfig struct {
	WindowFunc   string        `yaml:"fft_window"`    // Window function name (e.g. "Hann", "Hamming")
	PitchMinHz   float64       `yaml:"pitch_min_hz"`  // Lowest pitch the detector will report
	PitchMaxHz   float64       `yaml:"pitch_max_hz"`  // Highest pitch the detector will report
	ClarityFloor float64       `yaml:"clarity_floor"` // Correlation peak below this reports pitch=0
	TickInterval time.Duration `yaml:"tick_interval"` // Analysis tick spacing for the headless driver
}

// SpectrogramConfig holds settings for the scrolling time-frequency image.
type SpectrogramConfig struct {
	Width   int     `yaml:"width"`    // Visible time columns before FIFO eviction
	FloorDB float64 `yaml:"floor_db"` // dB value mapped to zero intensity
}

// RecordingConfig holds settings for recording the capture clip.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the session to a WAV clip
	OutputDir string `yaml:"output_dir"` // Directory for recorded clips
	BitDepth  int    `yaml:"bit_depth"`  // Bit depth for recorded audio (16 or 24)
}

// TransportConfig holds settings for publishing metrics and columns.
type TransportConfig struct {
	WSEnabled        bool          `yaml:"ws_enabled"`         // Serve metric frames over WebSocket
	WSPort           string        `yaml:"ws_port"`            // WebSocket listen port
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send binary packets over UDP
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target "host:port" for UDP packets
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets
}

// ReportConfig holds settings for the external analysis service that
// turns the captured clip and spectrogram still into a written report.
type ReportConfig struct {
	Enabled bool          `yaml:"enabled"`  // Request a report on shutdown
	BaseURL string        `yaml:"base_url"` // Service base URL
	Model   string        `yaml:"model"`    // Model identifier passed to the service
	Timeout time.Duration `yaml:"timeout"`  // Request timeout
}

// NewConfig creates a Config populated with default values. This is the
// base configuration before file, environment, or flag overrides.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		TUIMode:  false,
		Audio: AudioConfig{
			DeviceID:        DefaultDeviceID,
			Channels:        DefaultChannels,
			SampleRate:      DefaultSampleRate,
			WindowSize:      DefaultWindowSize,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
		},
		Analysis: AnalysisConfig{
			WindowFunc:   DefaultWindowFunc,
			PitchMinHz:   DefaultPitchMinHz,
			PitchMaxHz:   DefaultPitchMaxHz,
			ClarityFloor: DefaultClarityFloor,
			TickInterval: 33 * time.Millisecond, // ~30 ticks/s
		},
		Spectrogram: SpectrogramConfig{
			Width:   DefaultSpectrogramWidth,
			FloorDB: DefaultFloorDB,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: ".",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			WSEnabled:        false,
			WSPort:           "8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond,
		},
		Report: ReportConfig{
			Enabled: false,
			BaseURL: "http://localhost:11434",
			Model:   "voice-coach",
			Timeout: 60 * time.Second,
		},
	}
}
