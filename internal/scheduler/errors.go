package scheduler

import "errors"

var (
	// ErrInvalidTransition is returned when a command is not legal in the
	// current state. Callers should re-check Current before retrying.
	ErrInvalidTransition = errors.New("scheduler: invalid transition")

	// ErrAlreadyRunning is returned by Start while a session is active.
	ErrAlreadyRunning = errors.New("scheduler: session already running")

	// ErrInvalidConfig is returned when configuration values are rejected.
	// Invalid durations are never silently clamped.
	ErrInvalidConfig = errors.New("scheduler: invalid configuration")
)
