package model

import (
	"fmt"
	"time"
)

// Status is the closed set of appointment lifecycle states.
type Status string

const (
	StatusBooked      Status = "booked"
	StatusCheckedIn   Status = "checked_in"
	StatusAttended    Status = "attended"
	StatusCanceled    Status = "canceled"
	StatusRescheduled Status = "rescheduled"
)

// Unresolved reports whether the appointment still occupies its slot.
// Attended and canceled appointments no longer block other bookings.
func (s Status) Unresolved() bool {
	switch s {
	case StatusBooked, StatusCheckedIn, StatusRescheduled:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusBooked, StatusCheckedIn, StatusAttended, StatusCanceled, StatusRescheduled:
		return true
	}
	return false
}

type MeetingType string

const (
	MeetingVirtual  MeetingType = "virtual"
	MeetingPhysical MeetingType = "physical"
)

func (m MeetingType) Valid() bool {
	return m == MeetingVirtual || m == MeetingPhysical
}

// ClockTime is a wall-clock slot start in "HH:MM" form. Slots carry no date
// component; the appointment Date field supplies it.
type ClockTime string

func ParseClockTime(s string) (ClockTime, error) {
	if _, err := time.Parse("15:04", s); err != nil {
		return "", fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return ClockTime(s), nil
}

// On combines the clock time with a calendar date in the given location.
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	t, err := time.Parse("15:04", string(c))
	if err != nil {
		return time.Time{}
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

func (c ClockTime) String() string { return string(c) }

type Appointment struct {
	ID            string
	Passcode      string
	VisitorID     string
	StaffID       string
	InstitutionID string
	Department    string
	Date          time.Time // date component only, midnight in service location
	Time          ClockTime
	Status        Status
	MeetingType   MeetingType
	MeetingLink   string
	Notes         string
	CheckInAt     *time.Time
	CheckOutAt    *time.Time
	CanceledAt    *time.Time
	CancelReason  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
