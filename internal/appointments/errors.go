package appointments

import (
	"errors"
	"strings"
)

var (
	// ErrPatientNotFound is returned when no upstream patient matches the
	// supplied identity fields.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrAppointmentNotFound is returned when a patient has no appointment
	// to cancel in the lookup window.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotNotFound is returned when the explicitly requested slot is not
	// among upstream's open slots.
	ErrSlotNotFound = errors.New("requested slot not available")

	// ErrTypeNotFound is returned when the requested appointment type does
	// not exist upstream.
	ErrTypeNotFound = errors.New("appointment type not found")

	// ErrRegistration is returned when upstream rejects a new patient record.
	ErrRegistration = errors.New("patient registration rejected")
)

// ValidationError collects all local input problems found before any
// upstream call is made.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
