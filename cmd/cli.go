// SPDX-License-Identifier: MIT
package cmd

import (
	"os"

	"vocalscope/internal/build"
	"vocalscope/internal/config"

	"github.com/spf13/cobra"
)

// ParseArgs builds the runtime configuration from defaults, an optional
// YAML file, ENV_ overrides, and finally command line flags. Flags win
// over everything; only flags the user actually set are applied.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	options := config.NewConfig()
	var configPath string

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time vocal analysis: pitch, volume, clarity, and a scrolling spectrogram",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			*options = *loaded
			applyFlagOverrides(cmd, options)
			return options.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.TUIMode = true
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
			options.TUIMode = false
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "",
		"Path to a YAML configuration file")

	// Audio capture configuration
	rootCmd.PersistentFlags().IntP("device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'list' to see available devices")
	rootCmd.PersistentFlags().IntP("channels", "c", config.DefaultChannels,
		"Number of channels to capture (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().Float64P("sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntP("window-size", "w", config.DefaultWindowSize,
		"Analysis window length in samples (power of 2)")
	rootCmd.PersistentFlags().IntP("frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per capture buffer (affects latency)")
	rootCmd.PersistentFlags().BoolP("low-latency", "l", config.DefaultLowLatency,
		"Request low latency settings from the device")

	// Recording configuration
	rootCmd.PersistentFlags().BoolP("record", "r", false,
		"Record the session to a WAV clip")
	rootCmd.PersistentFlags().StringP("output-dir", "o", ".",
		"Directory for recorded clips and spectrogram stills")

	// Transports
	rootCmd.PersistentFlags().Bool("ws", false,
		"Broadcast metric frames to WebSocket clients")
	rootCmd.PersistentFlags().String("ws-port", "8080",
		"WebSocket listen port")
	rootCmd.PersistentFlags().Bool("udp", false,
		"Send binary metric packets over UDP")
	rootCmd.PersistentFlags().String("udp-target", "127.0.0.1:9090",
		"Target host:port for UDP packets")

	// Debug configuration
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// applyFlagOverrides copies explicitly-set flag values over the loaded
// configuration. Unset flags leave file and environment values alone.
func applyFlagOverrides(cmd *cobra.Command, options *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("device") {
		options.Audio.DeviceID, _ = flags.GetInt("device")
	}
	if flags.Changed("channels") {
		options.Audio.Channels, _ = flags.GetInt("channels")
	}
	if flags.Changed("sample-rate") {
		options.Audio.SampleRate, _ = flags.GetFloat64("sample-rate")
	}
	if flags.Changed("window-size") {
		options.Audio.WindowSize, _ = flags.GetInt("window-size")
	}
	if flags.Changed("frames-per-buffer") {
		options.Audio.FramesPerBuffer, _ = flags.GetInt("frames-per-buffer")
	}
	if flags.Changed("low-latency") {
		options.Audio.LowLatency, _ = flags.GetBool("low-latency")
	}
	if flags.Changed("record") {
		options.Recording.Enabled, _ = flags.GetBool("record")
	}
	if flags.Changed("output-dir") {
		options.Recording.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("ws") {
		options.Transport.WSEnabled, _ = flags.GetBool("ws")
	}
	if flags.Changed("ws-port") {
		options.Transport.WSPort, _ = flags.GetString("ws-port")
	}
	if flags.Changed("udp") {
		options.Transport.UDPEnabled, _ = flags.GetBool("udp")
	}
	if flags.Changed("udp-target") {
		options.Transport.UDPTargetAddress, _ = flags.GetString("udp-target")
	}
	if flags.Changed("verbose") {
		if verbose, _ := flags.GetBool("verbose"); verbose {
			options.Debug = true
			options.LogLevel = "debug"
		}
	}
}
