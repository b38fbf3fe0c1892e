package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/winsfit/visitdesk/services/appointment-service/internal/booking"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/model"
)

type fakeService struct {
	createFn  func(booking.CreateRequest) (*model.Appointment, error)
	getFn     func(string) (*model.Appointment, error)
	checkInFn func(id, passcode string) (*model.Appointment, error)
	slotsFn   func(date time.Time, department, institutionID string) ([]model.ClockTime, error)
	cancelFn  func(id, reason string) (*model.Appointment, error)
	listed    []model.Appointment
	lastList  string
}

func (f *fakeService) Create(_ context.Context, req booking.CreateRequest) (*model.Appointment, error) {
	return f.createFn(req)
}

func (f *fakeService) Get(_ context.Context, id string) (*model.Appointment, error) {
	return f.getFn(id)
}

func (f *fakeService) ListAll(context.Context) ([]model.Appointment, error) {
	f.lastList = "all"
	return f.listed, nil
}

func (f *fakeService) ListByVisitor(_ context.Context, id string) ([]model.Appointment, error) {
	f.lastList = "visitor:" + id
	return f.listed, nil
}

func (f *fakeService) ListByInstitution(_ context.Context, id string) ([]model.Appointment, error) {
	f.lastList = "institution:" + id
	return f.listed, nil
}

func (f *fakeService) ListByStaff(_ context.Context, id string) ([]model.Appointment, error) {
	f.lastList = "staff:" + id
	return f.listed, nil
}

func (f *fakeService) ListByInstitutionDateStatus(_ context.Context, id string, date time.Time, status model.Status) ([]model.Appointment, error) {
	f.lastList = "institution:" + id + ":" + date.Format("2006-01-02") + ":" + string(status)
	return f.listed, nil
}

func (f *fakeService) AvailableSlots(_ context.Context, date time.Time, department, institutionID string) ([]model.ClockTime, error) {
	return f.slotsFn(date, department, institutionID)
}

func (f *fakeService) CheckIn(_ context.Context, id, passcode string) (*model.Appointment, error) {
	return f.checkInFn(id, passcode)
}

func (f *fakeService) CheckOut(_ context.Context, id, passcode string) (*model.Appointment, error) {
	return f.checkInFn(id, passcode)
}

func (f *fakeService) Cancel(_ context.Context, id, reason string) (*model.Appointment, error) {
	return f.cancelFn(id, reason)
}

func (f *fakeService) Reschedule(_ context.Context, id string, newDate time.Time, newTime model.ClockTime) (*model.Appointment, error) {
	return f.getFn(id)
}

func sampleAppointment() *model.Appointment {
	return &model.Appointment{
		ID:            "appt-1",
		Passcode:      "A1B2C3",
		VisitorID:     "vis-1",
		StaffID:       "staff-1",
		InstitutionID: "inst-1",
		Department:    "physiotherapy",
		Date:          time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Time:          "10:00",
		Status:        model.StatusBooked,
		MeetingType:   model.MeetingVirtual,
		MeetingLink:   "https://meet.jit.si/room-1?moderator=berg@clinic.example",
		CreatedAt:     time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC),
	}
}

func newHandler(svc *fakeService) *AppointmentHandler {
	return NewAppointmentHandler(svc, slog.Default())
}

func TestCreate_Success(t *testing.T) {
	svc := &fakeService{
		createFn: func(req booking.CreateRequest) (*model.Appointment, error) {
			if req.VisitorID != "vis-1" || req.Time != "10:00" || req.MeetingType != model.MeetingVirtual {
				t.Fatalf("request not mapped: %+v", req)
			}
			return sampleAppointment(), nil
		},
	}
	h := newHandler(svc)

	body := `{"visitor_id":"vis-1","staff_id":"staff-1","institution_id":"inst-1","department":"physiotherapy","date":"2026-09-01","time":"10:00","meeting_type":"VIRTUAL"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var item appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	if item.ID != "appt-1" || item.Passcode != "A1B2C3" {
		t.Fatalf("unexpected response: %+v", item)
	}
}

func TestCreate_BadDate(t *testing.T) {
	h := newHandler(&fakeService{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{"date":"tomorrow"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreate_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    *booking.Error
		status int
	}{
		{"validation", &booking.Error{Kind: booking.KindValidation, Code: "past_date_time"}, http.StatusBadRequest},
		{"not_found", &booking.Error{Kind: booking.KindNotFound, Code: "visitor_not_found"}, http.StatusNotFound},
		{"conflict", &booking.Error{Kind: booking.KindConflict, Code: "open_appointment_in_department"}, http.StatusConflict},
		{"unauthorized", &booking.Error{Kind: booking.KindUnauthorized, Code: "passcode_mismatch"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{
				createFn: func(booking.CreateRequest) (*model.Appointment, error) { return nil, tc.err },
			}
			h := newHandler(svc)
			body := `{"visitor_id":"v","staff_id":"s","institution_id":"i","department":"d","date":"2026-09-01","time":"10:00","meeting_type":"virtual"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
			rec := httptest.NewRecorder()
			h.Create(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid error json: %v", err)
			}
			if resp["error"] != tc.err.Code {
				t.Fatalf("expected code %q, got %q", tc.err.Code, resp["error"])
			}
		})
	}
}

func TestList_FilterSelection(t *testing.T) {
	svc := &fakeService{listed: []model.Appointment{*sampleAppointment()}}
	h := newHandler(svc)

	cases := []struct {
		query string
		want  string
	}{
		{"", "all"},
		{"?visitor_id=vis-1", "visitor:vis-1"},
		{"?staff_id=staff-1", "staff:staff-1"},
		{"?institution_id=inst-1", "institution:inst-1"},
		{"?institution_id=inst-1&date=2026-09-01&status=booked", "institution:inst-1:2026-09-01:booked"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments"+tc.query, nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("query %q: expected 200, got %d", tc.query, rec.Code)
		}
		if svc.lastList != tc.want {
			t.Fatalf("query %q: expected filter %q, got %q", tc.query, tc.want, svc.lastList)
		}
	}
}

func TestSlots(t *testing.T) {
	svc := &fakeService{
		slotsFn: func(date time.Time, department, institutionID string) ([]model.ClockTime, error) {
			if department != "physiotherapy" || institutionID != "inst-1" {
				t.Fatalf("params not mapped: %s %s", department, institutionID)
			}
			return []model.ClockTime{"09:00", "14:00"}, nil
		},
	}
	h := newHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?date=2026-09-01&department=physiotherapy&institution_id=inst-1", nil)
	rec := httptest.NewRecorder()
	h.Slots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Slots []string `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Slots) != 2 || resp.Slots[0] != "09:00" {
		t.Fatalf("unexpected slots: %v", resp.Slots)
	}
}

func TestSlots_MissingParams(t *testing.T) {
	h := newHandler(&fakeService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?date=2026-09-01", nil)
	rec := httptest.NewRecorder()
	h.Slots(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCheckIn_UppercasesPasscode(t *testing.T) {
	svc := &fakeService{
		checkInFn: func(id, passcode string) (*model.Appointment, error) {
			if passcode != "A1B2C3" {
				t.Fatalf("passcode not normalized: %q", passcode)
			}
			appt := sampleAppointment()
			appt.Status = model.StatusCheckedIn
			return appt, nil
		},
	}
	h := newHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/checkin", strings.NewReader(`{"id":"appt-1","passcode":"a1b2c3"}`))
	rec := httptest.NewRecorder()
	h.CheckIn(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCheckIn_MissingPasscode(t *testing.T) {
	h := newHandler(&fakeService{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/checkin", strings.NewReader(`{"id":"appt-1"}`))
	rec := httptest.NewRecorder()
	h.CheckIn(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCancel_MethodGuard(t *testing.T) {
	h := newHandler(&fakeService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/cancel", nil)
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
