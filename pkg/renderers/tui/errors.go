package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoEngine is returned when a session is constructed without a form
	// engine to drive.
	ErrNoEngine = errors.New("tui: engine is required")
)
