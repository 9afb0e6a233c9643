// SPDX-License-Identifier: MIT
package transport

// Transport defines a generic interface for publishing analysis
// results (metric frames, spectrogram columns) to subscribers.
// Implementations must be thread-safe; Send must never block the
// analysis tick.
type Transport interface {
	Send(data any) error
	Close() error
}
