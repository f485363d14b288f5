package conversation

import "errors"

var (
	// ErrEmptyInput is returned when a submitted message is blank. Nothing changes.
	ErrEmptyInput = errors.New("message is empty")
	// ErrBusy is returned while a reply is pending. Nothing changes.
	ErrBusy = errors.New("awaiting response")
	// ErrNotFound is returned for unknown sessions or sessions owned by another user.
	ErrNotFound = errors.New("session not found")
)
