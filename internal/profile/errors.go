package profile

import "errors"

var (
	// ErrNotFound is returned when no profile record exists for a user.
	ErrNotFound = errors.New("profile not found")
	// ErrInvalidProfile is returned when a profile fails validation.
	ErrInvalidProfile = errors.New("invalid profile")
)
