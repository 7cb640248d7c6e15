package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// Booking rule rejections. These are expected, user-facing outcomes and
	// never escalate past the handler layer.
	ErrDuplicateDay  = New("DUPLICATE_DAY", http.StatusConflict, "an active reservation already exists for this date")
	ErrBreakOverlap  = New("BREAK_OVERLAP", http.StatusBadRequest, "requested window overlaps the lunch break")
	ErrMinDuration   = New("MIN_DURATION", http.StatusBadRequest, "requested window is shorter than the minimum duration")
	ErrCapacityFull  = New("CAPACITY_FULL", http.StatusConflict, "no seats remain for the requested session")
	ErrNotWaitlisted = New("NOT_WAITLISTED", http.StatusConflict, "reservation is not waitlisted")
	ErrOwnership     = New("OWNERSHIP", http.StatusForbidden, "reservation belongs to another student")
	ErrTerminalState = New("TERMINAL_STATE", http.StatusConflict, "reservation is in a terminal state")
	ErrLessonClosed  = New("LESSON_CLOSED", http.StatusConflict, "lesson is not open for booking")
	ErrLockBusy      = New("LOCK_BUSY", http.StatusServiceUnavailable, "booking is busy, retry shortly")

	// Integrity faults abort the calling workflow without partial writes.
	ErrDataIntegrity = New("DATA_INTEGRITY", http.StatusInternalServerError, "dataset integrity fault")

	// ErrCacheMiss marks an absent cache entry; recovered locally by rebuild.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsBusinessRejection reports whether the error is an expected booking-rule
// rejection rather than a fault.
func IsBusinessRejection(err error) bool {
	e := FromError(err)
	if e == nil {
		return false
	}
	switch e.Code {
	case ErrDuplicateDay.Code, ErrBreakOverlap.Code, ErrMinDuration.Code,
		ErrCapacityFull.Code, ErrNotWaitlisted.Code, ErrOwnership.Code,
		ErrTerminalState.Code, ErrLessonClosed.Code:
		return true
	}
	return false
}
