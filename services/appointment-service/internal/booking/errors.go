package booking

import "fmt"

// Kind classifies lifecycle failures for transport mapping.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindInvalidState Kind = "invalid_state"
	KindUnauthorized Kind = "unauthorized"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error is a typed lifecycle failure. Code is a stable machine-readable
// identifier; Message is safe to show to API clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

var (
	errAppointmentNotFound = &Error{Kind: KindNotFound, Code: "appointment_not_found", Message: "appointment not found"}
	errPasscodeMismatch    = &Error{Kind: KindUnauthorized, Code: "passcode_mismatch", Message: "passcode does not match"}
	errAlreadyAttended     = &Error{Kind: KindInvalidState, Code: "already_attended", Message: "appointment has already been attended"}
	errAlreadyCheckedIn    = &Error{Kind: KindInvalidState, Code: "already_checked_in", Message: "appointment is already checked in"}
	errNotCheckedIn        = &Error{Kind: KindInvalidState, Code: "not_checked_in", Message: "appointment is not checked in"}
	errAlreadyCanceled     = &Error{Kind: KindInvalidState, Code: "already_canceled", Message: "appointment is already canceled"}
	errClosedReschedule    = &Error{Kind: KindInvalidState, Code: "closed_appointment", Message: "attended or canceled appointments cannot be rescheduled"}
	errPastDateTime        = &Error{Kind: KindValidation, Code: "past_date_time", Message: "appointment date and time must be in the future"}
)
