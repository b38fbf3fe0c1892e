package email

import (
	"strings"
	"testing"
)

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("no-reply@visitdesk.local", "anna@example.com", "Appointment confirmed", "See you at 10:00.")

	for _, want := range []string{
		"From: no-reply@visitdesk.local\r\n",
		"To: anna@example.com\r\n",
		"Subject: Appointment confirmed\r\n",
		"Content-Type: text/plain; charset=utf-8\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing header %q:\n%s", want, msg)
		}
	}

	headerEnd := strings.Index(msg, "\r\n\r\n")
	if headerEnd < 0 {
		t.Fatal("no header/body separator")
	}
	if body := msg[headerEnd+4:]; !strings.HasPrefix(body, "See you at 10:00.") {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestNewSMTPSenderDefaultsFrom(t *testing.T) {
	s := NewSMTPSender("mailpit", "1025", "  ")
	if s.from != "no-reply@visitdesk.local" {
		t.Fatalf("expected default from address, got %q", s.from)
	}
	if s.addr != "mailpit:1025" {
		t.Fatalf("unexpected addr %q", s.addr)
	}
}
