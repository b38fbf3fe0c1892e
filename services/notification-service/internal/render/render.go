package render

import (
	"fmt"
	"strings"
)

// Event mirrors the denormalized appointment payload carried on every
// appointment.* message. Field names form the wire contract with the
// producer; this service never calls back to resolve ids.
type Event struct {
	AppointmentID   string `json:"appointment_id"`
	VisitorID       string `json:"visitor_id"`
	VisitorName     string `json:"visitor_name"`
	VisitorEmail    string `json:"visitor_email"`
	VisitorPhone    string `json:"visitor_phone"`
	StaffID         string `json:"staff_id"`
	StaffName       string `json:"staff_name"`
	StaffEmail      string `json:"staff_email"`
	InstitutionID   string `json:"institution_id"`
	InstitutionName string `json:"institution_name"`
	Department      string `json:"department"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Status          string `json:"status"`
	MeetingType     string `json:"meeting_type"`
	MeetingLink     string `json:"meeting_link"`
	Passcode        string `json:"passcode"`
	CancelReason    string `json:"cancel_reason"`
}

// Message is one deliverable rendered from an event. Subject is ignored
// for the sms channel.
type Message struct {
	Channel   string
	Recipient string
	Subject   string
	Body      string
}

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Messages renders the deliveries for one event type. Unknown event
// types render nothing. Reminders go to both the visitor and the staff
// member; everything else addresses the visitor only.
func Messages(eventType string, ev Event) []Message {
	switch eventType {
	case "appointment.booked.v1":
		return visitorFanout(ev,
			fmt.Sprintf("Appointment confirmed at %s", ev.InstitutionName),
			confirmationBody(ev, "Your appointment is booked."),
			fmt.Sprintf("Appointment booked %s %s at %s. Passcode %s.", ev.Date, ev.Time, ev.InstitutionName, ev.Passcode),
		)
	case "appointment.rescheduled.v1":
		return visitorFanout(ev,
			fmt.Sprintf("Appointment rescheduled at %s", ev.InstitutionName),
			confirmationBody(ev, "Your appointment has been moved. Your previous passcode no longer works."),
			fmt.Sprintf("Appointment moved to %s %s at %s. New passcode %s.", ev.Date, ev.Time, ev.InstitutionName, ev.Passcode),
		)
	case "appointment.canceled.v1":
		body := fmt.Sprintf("Hello %s,\n\nYour appointment on %s at %s with %s (%s) has been canceled.",
			ev.VisitorName, ev.Date, ev.Time, ev.StaffName, ev.InstitutionName)
		if ev.CancelReason != "" {
			body += "\n\nReason: " + ev.CancelReason
		}
		return visitorFanout(ev,
			fmt.Sprintf("Appointment canceled at %s", ev.InstitutionName),
			body,
			fmt.Sprintf("Appointment %s %s at %s canceled.", ev.Date, ev.Time, ev.InstitutionName),
		)
	case "appointment.checked_out.v1":
		return []Message{{
			Channel:   ChannelEmail,
			Recipient: ev.VisitorEmail,
			Subject:   fmt.Sprintf("Thanks for visiting %s", ev.InstitutionName),
			Body: fmt.Sprintf("Hello %s,\n\nYour visit with %s (%s, %s) on %s is complete.",
				ev.VisitorName, ev.StaffName, ev.Department, ev.InstitutionName, ev.Date),
		}}
	case "appointment.reminder.due.v1":
		msgs := visitorFanout(ev,
			"Your appointment starts soon",
			reminderBody(ev),
			fmt.Sprintf("Reminder: appointment at %s today %s. Passcode %s.", ev.InstitutionName, ev.Time, ev.Passcode),
		)
		if ev.StaffEmail != "" {
			msgs = append(msgs, Message{
				Channel:   ChannelEmail,
				Recipient: ev.StaffEmail,
				Subject:   "Upcoming appointment",
				Body: fmt.Sprintf("Hello %s,\n\n%s is due at %s today.%s",
					ev.StaffName, ev.VisitorName, ev.Time, linkLine(ev)),
			})
		}
		return msgs
	default:
		return nil
	}
}

func visitorFanout(ev Event, subject, emailBody, smsBody string) []Message {
	var msgs []Message
	if ev.VisitorEmail != "" {
		msgs = append(msgs, Message{
			Channel:   ChannelEmail,
			Recipient: ev.VisitorEmail,
			Subject:   subject,
			Body:      emailBody,
		})
	}
	if ev.VisitorPhone != "" {
		msgs = append(msgs, Message{
			Channel:   ChannelSMS,
			Recipient: ev.VisitorPhone,
			Body:      smsBody,
		})
	}
	return msgs
}

func confirmationBody(ev Event, lead string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n%s\n\n", ev.VisitorName, lead)
	fmt.Fprintf(&b, "When: %s at %s\n", ev.Date, ev.Time)
	fmt.Fprintf(&b, "Where: %s, %s department\n", ev.InstitutionName, ev.Department)
	fmt.Fprintf(&b, "With: %s\n", ev.StaffName)
	fmt.Fprintf(&b, "Check-in passcode: %s\n", ev.Passcode)
	b.WriteString(linkLine(ev))
	return b.String()
}

func reminderBody(ev Event) string {
	return fmt.Sprintf("Hello %s,\n\nYour appointment with %s at %s starts at %s today.\nCheck-in passcode: %s\n%s",
		ev.VisitorName, ev.StaffName, ev.InstitutionName, ev.Time, ev.Passcode, linkLine(ev))
}

func linkLine(ev Event) string {
	if ev.MeetingType == "virtual" && ev.MeetingLink != "" {
		return "Join online: " + ev.MeetingLink + "\n"
	}
	return ""
}
