// SPDX-License-Identifier: MIT

// Package validate provides configuration validation utilities for xbench.
package validate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is matched by every error produced by this package.
// Use errors.Is(err, ErrInvalid) instead of type assertions where possible.
var ErrInvalid = errors.New("invalid configuration")

// Error represents a validation error
type Error struct {
	Field   string   // Field name that failed validation
	Value   any      // The invalid value
	Allowed []string // Allowed values for enumerated fields (optional)
	Message string   // Human-readable error message
}

// Error implements the error interface
func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Is reports ErrInvalid.
func (e Error) Is(target error) bool {
	return target == ErrInvalid
}

// Validator accumulates validation errors and can produce a ValidationError when invalid.
type Validator struct {
	errors []Error
}

// ValidationError bundles multiple validation errors into a single error value.
type ValidationError struct {
	errors []Error
}

// New creates a new validator
func New() *Validator {
	return &Validator{
		errors: make([]Error, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string, value any) {
	v.errors = append(v.errors, Error{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

// IsValid returns true if no errors have been accumulated
func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

// Errors returns all accumulated validation errors
func (v *Validator) Errors() []Error {
	return v.errors
}

// Err converts the accumulated validation errors into an error value.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}

	copied := make([]Error, len(v.errors))
	copy(copied, v.errors)

	return ValidationError{errors: copied}
}

// Errors returns the individual validation errors making up the validation failure.
func (e ValidationError) Errors() []Error {
	return e.errors
}

// Is reports ErrInvalid.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	if len(e.errors) == 0 {
		return ""
	}

	if len(e.errors) == 1 {
		return e.errors[0].Error()
	}

	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// OneOf validates that a value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.errors = append(v.errors, Error{
		Field:   field,
		Value:   value,
		Allowed: append([]string(nil), allowed...),
		Message: fmt.Sprintf("value must be one of %v, got %q", allowed, value),
	})
}

// OptionalOneOf is OneOf for optional fields: a nil value is always valid.
func (v *Validator) OptionalOneOf(field string, value *string, allowed []string) {
	if value == nil {
		return
	}
	v.OneOf(field, *value, allowed)
}

// Required validates that a string is not empty or whitespace-only
func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "value is required", value)
	}
}

// NonNegative validates that a number is non-negative (>= 0)
func (v *Validator) NonNegative(field string, value int) {
	if value < 0 {
		v.AddError(field, fmt.Sprintf("value cannot be negative, got %d", value), value)
	}
}

// MissingOneOf records a required enumerated field that was left unset.
func (v *Validator) MissingOneOf(field string, allowed []string) {
	v.errors = append(v.errors, Error{
		Field:   field,
		Allowed: append([]string(nil), allowed...),
		Message: fmt.Sprintf("value must be set to one of %v", allowed),
	})
}
