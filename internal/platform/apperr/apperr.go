// Package apperr holds the error taxonomy shared by the FitFlow services.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks client faults such as a missing required field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable marks a failed call to a dependent service or API.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ValidationError describes which field was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Required builds the error for a missing required field.
func Required(field string) error {
	return &ValidationError{Field: field, Reason: "is required"}
}

// Invalid builds a generic validation error.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// UpstreamError wraps a failure talking to a named dependency.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

// Is matches ErrUpstreamUnavailable and anything the wrapped error matches.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError for service.
func Upstream(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}
