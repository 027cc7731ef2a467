package application

import (
	"errors"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a create collides with an existing record.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrAlreadyScheduled is returned when a closed session receives a second
	// confirmation attempt.
	ErrAlreadyScheduled = errors.New("application: session already scheduled")
	// ErrSessionClosed is returned when an operation targets a cancelled or
	// expired session.
	ErrSessionClosed = errors.New("application: session closed")
	// ErrNoAvailability is returned when no bookable slot satisfies the request.
	ErrNoAvailability = errors.New("application: no availability")
	// ErrStaleSession is returned when a concurrent writer updated the session first.
	ErrStaleSession = errors.New("application: session modified concurrently")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError reports that a requested time is not free, carrying the
// conflicting entries and recomputed alternative slots.
type ConflictError struct {
	Conflicts    []scheduler.ConflictEntry
	Alternatives []scheduler.Slot
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	return "requested time conflicts with an existing booking"
}
