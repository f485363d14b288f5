package gateway

import (
	"errors"
	"fmt"
)

// Reason classifies why a gateway operation produced no usable value.
type Reason string

const (
	ReasonEmptyInput      Reason = "empty_input"
	ReasonInvalidInput    Reason = "invalid_input"
	ReasonProvider        Reason = "provider"
	ReasonMalformedOutput Reason = "malformed_output"
)

var (
	// ErrEmptyInput matches failures where the provider was never called.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidInput matches requests the gateway cannot serve, such as an unknown artifact type.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProvider matches network, timeout and provider-side failures.
	ErrProvider = errors.New("provider failure")
	// ErrMalformedOutput matches responses that do not fit the requested schema.
	ErrMalformedOutput = errors.New("malformed provider output")
)

// Failure is the error every gateway operation returns.
type Failure struct {
	Op     string
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("gateway %s: %s", f.Op, f.Reason)
	}
	return fmt.Sprintf("gateway %s: %s: %v", f.Op, f.Reason, f.Err)
}

// Unwrap exposes both the reason sentinel and the underlying cause.
func (f *Failure) Unwrap() []error {
	out := []error{sentinel(f.Reason)}
	if f.Err != nil {
		out = append(out, f.Err)
	}
	return out
}

func sentinel(r Reason) error {
	switch r {
	case ReasonEmptyInput:
		return ErrEmptyInput
	case ReasonInvalidInput:
		return ErrInvalidInput
	case ReasonMalformedOutput:
		return ErrMalformedOutput
	default:
		return ErrProvider
	}
}

// ReasonOf returns the failure reason of err, or "" if err is not a gateway failure.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}
