// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"vocalscope/cmd"
	"vocalscope/internal/analysis"
	"vocalscope/internal/build"
	"vocalscope/internal/capture"
	"vocalscope/internal/config"
	applog "vocalscope/internal/log"
	"vocalscope/internal/loop"
	"vocalscope/internal/report"
	"vocalscope/internal/spectrogram"
	"vocalscope/internal/transport"
	"vocalscope/internal/transport/udp"
	"vocalscope/internal/tui"
)

// main is the entry point for the vocal analysis engine.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Initialize PortAudio
//   - Parse command line arguments
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Open the capture session and start the input stream
//   - Start the analysis loop and transports
//   - Start recording if enabled
//   - Run the live meter TUI or wait for a signal
//
// 3. Shutdown Phase (Cold Path):
//   - Stop the loop, transports, and capture
//   - Export the spectrogram still
//   - Save the recorded clip and optionally request a written report
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}

	// One thread for the audio callback, one for analysis and I/O.
	runtime.GOMAXPROCS(2)

	if err := capture.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer capture.Terminate()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	// One-off commands that don't need the engine running.
	if cfg.Command == "list" {
		if err := capture.ListDevices(); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	session, err := capture.Open(cfg)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	windowFunc, err := analysis.ParseWindowFunc(cfg.Analysis.WindowFunc)
	if err != nil {
		applog.Fatalf("%v", err)
	}
	analyzer, err := analysis.NewAnalyzer(cfg.Audio.WindowSize, cfg.Audio.SampleRate, analysis.Options{
		Window:       windowFunc,
		PitchMinHz:   cfg.Analysis.PitchMinHz,
		PitchMaxHz:   cfg.Analysis.PitchMaxHz,
		ClarityFloor: cfg.Analysis.ClarityFloor,
		FloorDB:      cfg.Spectrogram.FloorDB,
	})
	if err != nil {
		applog.Fatalf("%v", err)
	}

	gram, err := spectrogram.NewBuffer(cfg.Spectrogram.Width, analyzer.Bins(), nil)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	var transports []transport.Transport
	if cfg.Debug {
		transports = append(transports, transport.NewLoggingTransport())
	}
	if cfg.Transport.WSEnabled {
		transports = append(transports, transport.NewWebSocketTransport(cfg.Transport.WSPort, 33*time.Millisecond))
	}

	engine, err := loop.New(session.Window(), analyzer, gram, transports)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	var publisher *udp.Publisher
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher, err = udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, engine)
		if err != nil {
			applog.Fatalf("%v", err)
		}
	}

	// CRITICAL: the first callback after Start marks the start of the
	// hot path.
	if err := session.Start(); err != nil {
		applog.Fatalf("%v", err)
	}

	if cfg.Recording.Enabled {
		clipName := filepath.Join(cfg.Recording.OutputDir,
			"take-"+time.Now().UTC().Format("02-01-2006-150405")+".wav")
		if err := session.StartRecording(clipName); err != nil {
			applog.Fatalf("%v", err)
		}
	}

	startedAt := time.Now()
	engine.Start(loop.NewTickerDriver(cfg.Analysis.TickInterval))
	if publisher != nil {
		publisher.Start()
	}

	if cfg.TUIMode {
		if err := tui.StartMeterUI(engine); err != nil {
			applog.Errorf("TUI error: %v", err)
		}
	} else {
		fmt.Printf("%s running. Ctrl+C to stop.\n", build.GetBuildFlags().Name)
		<-done
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			applog.Errorf("Error stopping UDP publisher: %v", err)
		}
	}
	engine.Stop()
	if err := session.Stop(); err != nil {
		applog.Errorf("Error stopping capture: %v", err)
	}

	// The spectrogram and metrics stay valid after Stop, so the still
	// and the report reflect the full session.
	var still []byte
	if gram.Count() > 0 {
		still, err = gram.ExportStill()
		if err != nil {
			applog.Errorf("Error exporting spectrogram: %v", err)
		} else {
			stillPath := filepath.Join(cfg.Recording.OutputDir,
				"spectrogram-"+time.Now().UTC().Format("02-01-2006-150405")+".png")
			if err := os.WriteFile(stillPath, still, 0o644); err != nil {
				applog.Errorf("Error writing spectrogram still: %v", err)
			} else {
				fmt.Printf("Spectrogram saved to: %s\n", stillPath)
			}
		}
	}

	if cfg.Recording.Enabled {
		if err := session.StopRecording(); err != nil {
			applog.Errorf("Error stopping recording: %v", err)
		} else {
			fmt.Printf("Recording saved to: %s\n", session.ClipPath())
		}

		if cfg.Report.Enabled {
			requestReport(cfg, session, engine, still, time.Since(startedAt))
		}
	}

	if err := session.Close(); err != nil {
		applog.Errorf("Error closing capture session: %v", err)
	}
	for _, t := range transports {
		if err := t.Close(); err != nil {
			applog.Errorf("Error closing transport: %v", err)
		}
	}
}

// requestReport sends the recorded clip and the spectrogram still to
// the configured analysis service and prints the returned feedback.
func requestReport(cfg *config.Config, session *capture.Session, engine *loop.Loop, still []byte, duration time.Duration) {
	clip, err := session.ReadClip()
	if err != nil {
		applog.Errorf("Report: cannot read clip: %v", err)
		return
	}

	client := report.NewClient(cfg.Report.BaseURL, cfg.Report.Model, cfg.Report.Timeout)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Report.Timeout)
	defer cancel()

	text, err := client.Analyze(ctx, clip, still, report.Summary{
		Metrics:  engine.Latest(),
		Duration: duration,
	})
	if err != nil {
		applog.Errorf("Report request failed: %v", err)
		return
	}

	fmt.Printf("\n--- Vocal Report ---\n%s\n", text)
}
