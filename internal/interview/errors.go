package interview

import "errors"

var (
	// ErrInvalidInput is returned for bad role, difficulty or transcript values.
	ErrInvalidInput = errors.New("invalid interview input")
	// ErrInvalidState is returned when an action does not fit the current phase.
	ErrInvalidState = errors.New("invalid interview state")
)
