package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/winsfit/visitdesk/services/appointment-service/internal/booking"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/model"
)

// BookingService is the lifecycle surface the HTTP layer depends on.
type BookingService interface {
	Create(ctx context.Context, req booking.CreateRequest) (*model.Appointment, error)
	Get(ctx context.Context, id string) (*model.Appointment, error)
	ListAll(ctx context.Context) ([]model.Appointment, error)
	ListByVisitor(ctx context.Context, visitorID string) ([]model.Appointment, error)
	ListByInstitution(ctx context.Context, institutionID string) ([]model.Appointment, error)
	ListByStaff(ctx context.Context, staffID string) ([]model.Appointment, error)
	ListByInstitutionDateStatus(ctx context.Context, institutionID string, date time.Time, status model.Status) ([]model.Appointment, error)
	AvailableSlots(ctx context.Context, date time.Time, department, institutionID string) ([]model.ClockTime, error)
	CheckIn(ctx context.Context, id, passcode string) (*model.Appointment, error)
	CheckOut(ctx context.Context, id, passcode string) (*model.Appointment, error)
	Cancel(ctx context.Context, id, reason string) (*model.Appointment, error)
	Reschedule(ctx context.Context, id string, newDate time.Time, newTime model.ClockTime) (*model.Appointment, error)
}

type AppointmentHandler struct {
	svc    BookingService
	logger *slog.Logger
}

func NewAppointmentHandler(svc BookingService, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, logger: logger}
}

type createAppointmentRequest struct {
	VisitorID     string `json:"visitor_id"`
	StaffID       string `json:"staff_id"`
	InstitutionID string `json:"institution_id"`
	Department    string `json:"department"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	MeetingType   string `json:"meeting_type"`
	Notes         string `json:"notes"`
}

type appointmentItem struct {
	ID            string `json:"id"`
	Passcode      string `json:"passcode"`
	VisitorID     string `json:"visitor_id"`
	StaffID       string `json:"staff_id"`
	InstitutionID string `json:"institution_id"`
	Department    string `json:"department"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
	MeetingType   string `json:"meeting_type"`
	MeetingLink   string `json:"meeting_link,omitempty"`
	Notes         string `json:"notes,omitempty"`
	CheckInAt     string `json:"check_in_at,omitempty"`
	CheckOutAt    string `json:"check_out_at,omitempty"`
	CanceledAt    string `json:"canceled_at,omitempty"`
	CancelReason  string `json:"cancel_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type passcodeRequest struct {
	ID       string `json:"id"`
	Passcode string `json:"passcode"`
}

type cancelRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type rescheduleRequest struct {
	ID      string `json:"id"`
	NewDate string `json:"new_date"`
	NewTime string `json:"new_time"`
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Create(r.Context(), booking.CreateRequest{
		VisitorID:     strings.TrimSpace(req.VisitorID),
		StaffID:       strings.TrimSpace(req.StaffID),
		InstitutionID: strings.TrimSpace(req.InstitutionID),
		Department:    strings.TrimSpace(req.Department),
		Date:          date,
		Time:          model.ClockTime(strings.TrimSpace(req.Time)),
		MeetingType:   model.MeetingType(strings.ToLower(strings.TrimSpace(req.MeetingType))),
		Notes:         req.Notes,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItem(appt))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

// List filters by exactly one of visitor_id, staff_id or institution_id, the
// institution filter optionally narrowed by date and status. No filter lists
// everything.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	var (
		appts []model.Appointment
		err   error
	)
	switch {
	case q.Get("visitor_id") != "":
		appts, err = h.svc.ListByVisitor(r.Context(), q.Get("visitor_id"))
	case q.Get("staff_id") != "":
		appts, err = h.svc.ListByStaff(r.Context(), q.Get("staff_id"))
	case q.Get("institution_id") != "" && q.Get("date") != "" && q.Get("status") != "":
		var date time.Time
		date, err = time.Parse("2006-01-02", q.Get("date"))
		if err != nil {
			http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		appts, err = h.svc.ListByInstitutionDateStatus(r.Context(), q.Get("institution_id"), date, model.Status(q.Get("status")))
	case q.Get("institution_id") != "":
		appts, err = h.svc.ListByInstitution(r.Context(), q.Get("institution_id"))
	default:
		appts, err = h.svc.ListAll(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for i := range appts {
		items = append(items, toItem(&appts[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": items})
}

func (h *AppointmentHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	department := strings.TrimSpace(q.Get("department"))
	institutionID := strings.TrimSpace(q.Get("institution_id"))
	if department == "" || institutionID == "" {
		http.Error(w, "missing department or institution_id", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", q.Get("date"))
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	slots, err := h.svc.AvailableSlots(r.Context(), date, department, institutionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, string(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date.Format("2006-01-02"), "slots": out})
}

func (h *AppointmentHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.passcodeTransition(w, r, h.svc.CheckIn)
}

func (h *AppointmentHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.passcodeTransition(w, r, h.svc.CheckOut)
}

func (h *AppointmentHandler) passcodeTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, string, string) (*model.Appointment, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req passcodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Passcode) == "" {
		http.Error(w, "missing id or passcode", http.StatusBadRequest)
		return
	}
	appt, err := op(r.Context(), req.ID, strings.ToUpper(strings.TrimSpace(req.Passcode)))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.Cancel(r.Context(), req.ID, strings.TrimSpace(req.Reason))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.NewDate))
	if err != nil {
		http.Error(w, "invalid new_date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	appt, err := h.svc.Reschedule(r.Context(), req.ID, date, model.ClockTime(strings.TrimSpace(req.NewTime)))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(appt))
}

// writeError maps lifecycle error kinds to HTTP statuses. Anything that is
// not a typed lifecycle error is an infrastructure failure and reported as
// a 500 without leaking detail.
func (h *AppointmentHandler) writeError(w http.ResponseWriter, err error) {
	var be *booking.Error
	if !errors.As(err, &be) {
		h.logger.Error("appointment operation failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "internal",
			"message": "internal error",
		})
		return
	}

	status := http.StatusInternalServerError
	switch be.Kind {
	case booking.KindValidation:
		status = http.StatusBadRequest
	case booking.KindNotFound:
		status = http.StatusNotFound
	case booking.KindInvalidState, booking.KindConflict:
		status = http.StatusConflict
	case booking.KindUnauthorized:
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]string{
		"error":   be.Code,
		"message": be.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func toItem(appt *model.Appointment) appointmentItem {
	item := appointmentItem{
		ID:            appt.ID,
		Passcode:      appt.Passcode,
		VisitorID:     appt.VisitorID,
		StaffID:       appt.StaffID,
		InstitutionID: appt.InstitutionID,
		Department:    appt.Department,
		Date:          appt.Date.Format("2006-01-02"),
		Time:          string(appt.Time),
		Status:        string(appt.Status),
		MeetingType:   string(appt.MeetingType),
		MeetingLink:   appt.MeetingLink,
		Notes:         appt.Notes,
		CancelReason:  appt.CancelReason,
		CreatedAt:     appt.CreatedAt.UTC().Format(time.RFC3339),
	}
	if appt.CheckInAt != nil {
		item.CheckInAt = appt.CheckInAt.UTC().Format(time.RFC3339)
	}
	if appt.CheckOutAt != nil {
		item.CheckOutAt = appt.CheckOutAt.UTC().Format(time.RFC3339)
	}
	if appt.CanceledAt != nil {
		item.CanceledAt = appt.CanceledAt.UTC().Format(time.RFC3339)
	}
	return item
}
