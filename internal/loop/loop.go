// SPDX-License-Identifier: MIT
/*
Package loop drives the per-tick analysis cycle: read the current
signal window, analyze it, append the spectral column to the
spectrogram, and publish metrics to subscribers.

State machine: Idle -> (Start, driver attached) -> Running -> (Stop or
input failure) -> Idle. While Idle no ticks occur and published metrics
stay frozen at their last value. Stop cancels the next scheduled tick;
an in-flight tick finishes but schedules no successor.
*/
package loop

import (
	"fmt"
	"sync"
	"sync/atomic"

	"vocalscope/internal/analysis"
	applog "vocalscope/internal/log"
	"vocalscope/internal/spectrogram"
	"vocalscope/internal/transport"
)

const (
	stateIdle int32 = iota
	stateRunning
)

// WindowSource provides non-blocking snapshots of the most recent
// completed signal window. capture.SignalWindow implements it.
type WindowSource interface {
	CurrentWindowInto(dst []float64) error
}

// Frame is the JSON payload published to transports once per tick.
type Frame struct {
	Type string `json:"type"`
	analysis.Metrics
}

// Loop owns the tick cycle. The spectrogram buffer is mutated only by
// the loop; readers use the buffer's own concurrent-safe accessors.
type Loop struct {
	source     WindowSource
	analyzer   *analysis.Analyzer
	gram       *spectrogram.Buffer
	transports []transport.Transport

	state atomic.Int32

	// Latest published results, frozen while Idle.
	mu         sync.RWMutex
	latest     analysis.Metrics
	latestSnap []uint8

	// Pre-allocated window buffer for the tick hot path.
	windowBuf []float64

	// Run lifecycle: a fresh done channel, stop-once, and wait group
	// per Start/Stop cycle.
	runMu    sync.Mutex
	driver   Driver
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New wires a loop over its collaborators. The spectrogram's bin count
// must match the analyzer's output.
func New(source WindowSource, analyzer *analysis.Analyzer, gram *spectrogram.Buffer, transports []transport.Transport) (*Loop, error) {
	if source == nil || analyzer == nil || gram == nil {
		return nil, fmt.Errorf("loop: source, analyzer, and spectrogram are all required")
	}
	if gram.Height() != analyzer.Bins() {
		return nil, fmt.Errorf("loop: spectrogram has %d bins, analyzer produces %d",
			gram.Height(), analyzer.Bins())
	}

	return &Loop{
		source:     source,
		analyzer:   analyzer,
		gram:       gram,
		transports: transports,
		latestSnap: make([]uint8, analyzer.Bins()),
		windowBuf:  make([]float64, analyzer.FFTSize()),
	}, nil
}

// Start transitions Idle -> Running and begins ticking on the driver's
// beats. Calling Start while Running is a no-op.
func (l *Loop) Start(driver Driver) {
	l.runMu.Lock()
	if l.doneChan != nil {
		l.runMu.Unlock()
		applog.Warnf("Loop: Start called but already running.")
		return
	}

	l.driver = driver
	l.doneChan = make(chan struct{})
	l.stopOnce = sync.Once{}
	l.state.Store(stateRunning)

	beats := driver.Beats()
	doneChan := l.doneChan
	l.runMu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-beats:
				l.Tick()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop transitions Running -> Idle: the driver is stopped, no further
// tick is scheduled, and Stop returns only once any in-flight tick has
// finished. Published metrics and the spectrogram keep their last
// contents, so the still export stays available. Idempotent.
func (l *Loop) Stop() {
	l.runMu.Lock()
	if l.doneChan == nil {
		l.runMu.Unlock()
		return
	}

	l.state.Store(stateIdle)
	l.stopOnce.Do(func() {
		close(l.doneChan)
		l.driver.Stop()
		l.doneChan = nil
		l.driver = nil
	})
	l.runMu.Unlock()

	l.wg.Wait()
}

// Running reports whether the loop is in the Running state.
func (l *Loop) Running() bool {
	return l.state.Load() == stateRunning
}

// Tick executes one read-analyze-append-publish cycle. No-op while
// Idle. Single-caller: the driver goroutine owns it; external callers
// may drive it only instead of, never alongside, a driver. A failed
// window read degrades this tick and the loop continues; per-tick
// analysis itself cannot fail.
func (l *Loop) Tick() {
	if l.state.Load() != stateRunning {
		return
	}

	if err := l.source.CurrentWindowInto(l.windowBuf); err != nil {
		applog.Errorf("Loop: Window read failed, skipping tick: %v", err)
		return
	}

	snapshot, metrics := l.analyzer.Analyze(l.windowBuf)
	l.gram.AppendColumn(snapshot)

	l.mu.Lock()
	l.latest = metrics
	copy(l.latestSnap, snapshot)
	l.mu.Unlock()

	frame := Frame{Type: "metrics", Metrics: metrics}
	for _, t := range l.transports {
		if err := t.Send(frame); err != nil {
			applog.Debugf("Loop: Transport send failed: %v", err)
		}
	}
}

// Latest returns the most recently published metrics. While Idle the
// value stays frozen at the last tick's result (zero value before any
// tick ever ran).
func (l *Loop) Latest() analysis.Metrics {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.latest
}

// SnapshotInto copies the latest quantized spectral column into dst
// without allocating. dst must hold exactly Bins() values.
func (l *Loop) SnapshotInto(dst []uint8) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(dst) != len(l.latestSnap) {
		return fmt.Errorf("loop: destination length %d does not match %d bins", len(dst), len(l.latestSnap))
	}
	copy(dst, l.latestSnap)
	return nil
}

// Bins returns the number of bins per published spectral column.
func (l *Loop) Bins() int {
	return len(l.latestSnap)
}
