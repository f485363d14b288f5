package artifacts

import "errors"

var (
	// ErrInvalidType is returned for artifact types other than resume, linkedin and portfolio.
	ErrInvalidType = errors.New("invalid artifact type")
	// ErrEmptyInput is returned when generation or save has nothing to work with.
	ErrEmptyInput = errors.New("artifact input is empty")
	// ErrBusy is returned while a generation is already in flight for the draft.
	ErrBusy = errors.New("artifact generation in progress")
	// ErrNotFound is returned when an artifact does not exist for the user.
	ErrNotFound = errors.New("artifact not found")
	// ErrUnsupportedFile is returned by ImportInput for files other than PDF and DOCX.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrNoStore is returned by Export when no object store is configured.
	ErrNoStore = errors.New("object store not configured")
)
