// Package model holds the notification domain: channels, subscriber types,
// channel subscriptions, templates and delivered-notification logs.
//
// Entities are immutable once built and can only be obtained through their
// New* constructors, which validate every field.
package model

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every error produced when input fails
// domain validation.
var ErrValidation = errors.New("validation error")

// ValidationError carries the human readable reason for a rejected input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Unwrap lets errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError.
func Invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ErrNotFound is returned by stores when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")
