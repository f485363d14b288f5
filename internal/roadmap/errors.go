package roadmap

import "errors"

var (
	// ErrNotFound is returned when no plan has been generated for the user yet.
	ErrNotFound = errors.New("roadmap not found")
	// ErrStepOutOfRange is returned for step indexes outside the plan.
	ErrStepOutOfRange = errors.New("roadmap step index out of range")
)
