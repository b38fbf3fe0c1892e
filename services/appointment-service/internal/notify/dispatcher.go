package notify

import "context"

// Topic names double as event types on outbox rows.
const (
	TopicBooked      = "appointment.booked.v1"
	TopicCanceled    = "appointment.canceled.v1"
	TopicCheckedOut  = "appointment.checked_out.v1"
	TopicRescheduled = "appointment.rescheduled.v1"
	TopicReminderDue = "appointment.reminder.due.v1"
)

// Snapshot is the denormalized appointment view shipped with every
// notification event. It carries enough for the notification service to
// render and address messages without calling back.
type Snapshot struct {
	AppointmentID   string `json:"appointment_id"`
	VisitorID       string `json:"visitor_id"`
	VisitorName     string `json:"visitor_name"`
	VisitorEmail    string `json:"visitor_email"`
	VisitorPhone    string `json:"visitor_phone,omitempty"`
	StaffID         string `json:"staff_id"`
	StaffName       string `json:"staff_name"`
	StaffEmail      string `json:"staff_email"`
	InstitutionID   string `json:"institution_id"`
	InstitutionName string `json:"institution_name"`
	Department      string `json:"department"`
	Date            string `json:"date"` // YYYY-MM-DD
	Time            string `json:"time"` // HH:MM
	Status          string `json:"status"`
	MeetingType     string `json:"meeting_type"`
	MeetingLink     string `json:"meeting_link,omitempty"`
	Passcode        string `json:"passcode"`
	CancelReason    string `json:"cancel_reason,omitempty"`
}

// Dispatcher hands appointment events off for out-of-band delivery.
// Implementations must not block on the actual send; callers treat failures
// as non-fatal and only log them.
type Dispatcher interface {
	BookingConfirmed(ctx context.Context, snap Snapshot) error
	Canceled(ctx context.Context, snap Snapshot) error
	CheckedOut(ctx context.Context, snap Snapshot) error
	Rescheduled(ctx context.Context, snap Snapshot) error
	Reminder(ctx context.Context, snap Snapshot) error
}
