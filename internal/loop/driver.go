// SPDX-License-Identifier: MIT
package loop

import "time"

// Driver supplies the beats that pace the analysis loop. The loop runs
// one tick per beat, so whoever owns the rendering clock decides the
// tick rate: a display-refresh callback in interactive use, a plain
// ticker headless or in tests. Beat spacing may vary and beats may be
// dropped under load; the loop carries no accumulated timing state, so
// irregular pacing is harmless.
type Driver interface {
	// Beats returns the channel delivering tick times.
	Beats() <-chan time.Time

	// Stop ceases beat delivery. Called by the loop on Stop.
	Stop()
}

// TickerDriver paces the loop with a fixed wall-clock interval. This is
// the headless driver used by the CLI binary and by tests.
type TickerDriver struct {
	ticker *time.Ticker
}

// NewTickerDriver creates a driver beating every interval. An interval
// <= 0 defaults to 33ms (~30 ticks/s).
func NewTickerDriver(interval time.Duration) *TickerDriver {
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	return &TickerDriver{ticker: time.NewTicker(interval)}
}

// Beats returns the ticker's channel.
func (d *TickerDriver) Beats() <-chan time.Time {
	return d.ticker.C
}

// Stop stops the underlying ticker.
func (d *TickerDriver) Stop() {
	d.ticker.Stop()
}

var _ Driver = (*TickerDriver)(nil)
