package model

import (
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// ErrNotFound is returned by store adapters when a row does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError represents malformed input, a malformed upstream payload or an invalid id.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error (including wrapped errors)
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports a missing record or external resource.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Resource, e.ID)
}

// NewNotFoundError constructs NotFoundError
func NewNotFoundError(resource string, id int) NotFoundError {
	return NotFoundError{Resource: resource, ID: id}
}

// IsNotFoundError checks if error is NotFoundError
func IsNotFoundError(err error) bool {
	var ne NotFoundError
	return errors.As(err, &ne)
}

// ConflictError represents a unique constraint violation
type ConflictError struct {
	Field   string
	Message string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Field, e.Message)
}

// NewConflictError constructs ConflictError
func NewConflictError(field, message string) ConflictError {
	return ConflictError{Field: field, Message: message}
}

// IsConflictError checks if error is ConflictError
func IsConflictError(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

// RateLimitedError is returned when a client exhausted its quota for a route.
type RateLimitedError struct {
	Key        string
	Limit      int
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("Too many requests, please try again later. Max requests: %d", e.Limit)
}

// IsRateLimitedError checks if error is RateLimitedError
func IsRateLimitedError(err error) bool {
	var re RateLimitedError
	return errors.As(err, &re)
}

// UpstreamError is a failed call to an external service. Status is the HTTP
// status the service answered with, or 0 if no response was received.
type UpstreamError struct {
	Service string
	Status  int
	Err     error
}

func (e UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s responded with status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e UpstreamError) Unwrap() error { return e.Err }

// IsUpstreamError checks if error is UpstreamError
func IsUpstreamError(err error) bool {
	var ue UpstreamError
	return errors.As(err, &ue)
}

// StoreError wraps an unclassified persistence failure. It carries a stack so
// the failure can be logged with full context.
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err with a stack trace.
func NewStoreError(op string, err error) StoreError {
	return StoreError{Op: op, Err: pkgerrors.WithStack(err)}
}

// IsStoreError checks if error is StoreError
func IsStoreError(err error) bool {
	var se StoreError
	return errors.As(err, &se)
}
