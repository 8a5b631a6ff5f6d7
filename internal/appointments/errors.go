package appointments

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an appointment id is unknown.
	ErrNotFound = errors.New("appointment not found")

	// ErrDateUnavailable is returned when the requested date fails the
	// availability rules (past, weekend, or outside the weekly pattern).
	ErrDateUnavailable = errors.New("date is not available")

	// ErrSlotTaken is returned when the requested slot is already held by a
	// non-cancelled appointment.
	ErrSlotTaken = errors.New("time slot is already booked")

	// ErrInvalidTransition is returned when a status change is not allowed
	// from the appointment's current state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError describes a malformed booking field with enough detail to
// re-prompt the user.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
