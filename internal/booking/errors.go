// Package booking implements the reservation engine: slot and amount
// computation, overlap detection, the locked create-reservation
// workflow and the hold sweeper that reclaims abandoned holds.
package booking

import (
    "errors"
    "fmt"
)

// Kind classifies every failure the engine can report.  The set is
// closed; handlers switch on it to pick an HTTP status and callers can
// tell recoverable validation failures from transient concurrency ones.
type Kind string

const (
    // Validation failures: nothing was written, resubmit with corrected input.
    KindInvalidDate           Kind = "invalid_date"
    KindInvalidRange          Kind = "invalid_range"
    KindDurationTooShort      Kind = "duration_too_short"
    KindOutsideOperatingHours Kind = "outside_operating_hours"
    KindCapacityExceeded      Kind = "capacity_exceeded"

    // Conflict failures: pick a different slot/room or inspect state.
    KindSlotConflict        Kind = "slot_conflict"
    KindResourceUnavailable Kind = "resource_unavailable"
    KindAlreadyPaid         Kind = "already_paid"
    KindNotFound            Kind = "not_found"

    // Transient failures: retry with backoff.
    KindLockTimeout Kind = "lock_timeout"

    // Gateway failures: the payment collaborator was unreachable or
    // rejected the request; booking state is untouched.
    KindGateway Kind = "gateway_error"
)

// ConflictWindow carries the interval of the booking that blocked a
// create attempt.  Surfaced so callers can show the occupied range.
type ConflictWindow struct {
    StartTime string `json:"start_time"`
    EndTime   string `json:"end_time"`
}

// Error is the structured error returned by the engine.  Every branch
// that can fail builds one of these instead of an ad-hoc payload.
type Error struct {
    Kind     Kind
    Message  string
    Conflict *ConflictWindow // set only for KindSlotConflict
    cause    error
}

func (e *Error) Error() string {
    if e.cause != nil {
        return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
    }
    return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// NewError builds an engine error of the given kind.
func NewError(kind Kind, msg string) *Error {
    return &Error{Kind: kind, Message: msg}
}

// WrapError builds an engine error that preserves its cause.
func WrapError(kind Kind, msg string, cause error) *Error {
    return &Error{Kind: kind, Message: msg, cause: cause}
}

// KindOf extracts the Kind from an error chain.  It returns an empty
// Kind when the error did not originate in the engine.
func KindOf(err error) Kind {
    var e *Error
    if errors.As(err, &e) {
        return e.Kind
    }
    return ""
}
