package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrAttemptsExhausted is returned when a field keeps failing validation.
	ErrAttemptsExhausted = errors.New("prompt: too many invalid answers")
)
