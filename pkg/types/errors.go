// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks client errors: missing fields, bad ranges.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoPapers is returned when an operation receives an empty paper list.
	ErrNoPapers = fmt.Errorf("%w: no papers provided", ErrInvalidInput)

	// ErrUpstream marks a failed call to an external provider.
	ErrUpstream = errors.New("upstream unavailable")
)

// ValidationError reports a problem with a single input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError describes a non-success response from a provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Provider, e.StatusCode)
}

// Unwrap lets errors.Is match ErrUpstream.
func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

// Retryable reports whether the status suggests a transient failure.
// IEEE Xplore signals overload with the non-standard 596.
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
