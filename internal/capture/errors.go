// SPDX-License-Identifier: MIT
package capture

import "errors"

var (
	// ErrInputUnavailable is returned when no audio input device can be
	// acquired: none present, an invalid device ID, or permission
	// denied. Fatal to opening a session, harmless to existing ones.
	ErrInputUnavailable = errors.New("audio input unavailable")

	// ErrSessionActive is returned when starting a session whose input
	// stream is already running.
	ErrSessionActive = errors.New("capture session already active")

	// ErrAlreadyRecording is returned when starting a clip recording
	// while one is in progress.
	ErrAlreadyRecording = errors.New("already recording")
)
