package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable covers network failures, timeouts and server-side errors of a source
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrAuth is returned when a source rejects the configured credentials. Never retried.
	ErrAuth = errors.New("source authentication failed")
	// ErrConstraintViolation is a duplicate-key write; stores resolve it through upsert
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrNotFound is returned by lookups that match nothing
	ErrNotFound = errors.New("not found")
)

// ParseError describes one record that could not be mapped to its canonical shape
type ParseError struct {
	Kind   EntityKind
	Index  int
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parse %s record %d: field %s: %s", e.Kind, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("parse %s record %d: %s", e.Kind, e.Index, e.Reason)
}

// SourceError wraps a transport failure with the operation that produced it
type SourceError struct {
	Op  string
	Err error
	// Cause is ErrSourceUnavailable or ErrAuth
	Cause error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Cause, e.Err)
}

func (e *SourceError) Unwrap() []error {
	return []error{e.Cause, e.Err}
}

// Unavailable wraps err as a retryable source failure
func Unavailable(op string, err error) error {
	return &SourceError{Op: op, Err: err, Cause: ErrSourceUnavailable}
}

// AuthFailure wraps err as a non-retryable credential failure
func AuthFailure(op string, err error) error {
	return &SourceError{Op: op, Err: err, Cause: ErrAuth}
}

// IsRetryable reports whether a fetch failure may succeed on another attempt
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrAuth) {
		return false
	}
	return true
}
