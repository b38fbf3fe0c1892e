package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/availability"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/directory"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/model"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/notify"
)

// Store is the appointment persistence boundary. Find methods return
// (nil, nil) when no row matches; errors are reserved for infrastructure
// failures.
type Store interface {
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	FindAll(ctx context.Context) ([]model.Appointment, error)
	Save(ctx context.Context, appt *model.Appointment) error
	ExistsByPasscode(ctx context.Context, code string) (bool, error)
	FindByVisitor(ctx context.Context, visitorID string) ([]model.Appointment, error)
	FindByDepartmentDateInstitution(ctx context.Context, department string, date time.Time, institutionID string) ([]model.Appointment, error)
	FindByInstitution(ctx context.Context, institutionID string) ([]model.Appointment, error)
	FindByStaff(ctx context.Context, staffID string) ([]model.Appointment, error)
	FindByInstitutionDateStatus(ctx context.Context, institutionID string, date time.Time, status model.Status) ([]model.Appointment, error)
	FindStartingBetween(ctx context.Context, date time.Time, from, to model.ClockTime) ([]model.Appointment, error)
}

// PasscodeSource issues unique check-in codes.
type PasscodeSource interface {
	Generate(ctx context.Context) (string, error)
}

// Service orchestrates the appointment lifecycle. All collaborators are
// injected; the service holds no mutable state of its own, so one instance
// serves concurrent requests.
type Service struct {
	store     Store
	dir       directory.Provider
	passcodes PasscodeSource
	notifier  notify.Dispatcher
	now       func() time.Time
	loc       *time.Location
	linkBase  string
	newRoomID func() string
	logger    *slog.Logger
}

type Deps struct {
	Store     Store
	Directory directory.Provider
	Passcodes PasscodeSource
	Notifier  notify.Dispatcher
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
	// Location used to anchor slot times; defaults to time.Local.
	Location *time.Location
	// LinkBase is the video meeting host; defaults to https://meet.jit.si.
	LinkBase string
	Logger   *slog.Logger
}

func NewService(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.LinkBase == "" {
		deps.LinkBase = "https://meet.jit.si"
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		store:     deps.Store,
		dir:       deps.Directory,
		passcodes: deps.Passcodes,
		notifier:  deps.Notifier,
		now:       deps.Now,
		loc:       deps.Location,
		linkBase:  deps.LinkBase,
		newRoomID: uuid.NewString,
		logger:    deps.Logger,
	}
}

type CreateRequest struct {
	VisitorID     string
	StaffID       string
	InstitutionID string
	Department    string
	Date          time.Time
	Time          model.ClockTime
	MeetingType   model.MeetingType
	Notes         string
}

// Create books a new appointment. Directory references are validated, the
// requested time must be strictly in the future, and the visitor conflict
// rules must pass. The confirmation notification is dispatched after the
// row is committed; its failure does not fail the booking.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Appointment, error) {
	appt, err := s.create(ctx, req)
	if err != nil {
		s.logger.Warn("appointment creation rejected",
			"visitor_id", req.VisitorID,
			"institution_id", req.InstitutionID,
			"staff_id", req.StaffID,
			"err", err)
		return nil, err
	}
	return appt, nil
}

func (s *Service) create(ctx context.Context, req CreateRequest) (*model.Appointment, error) {
	if req.VisitorID == "" || req.StaffID == "" || req.InstitutionID == "" || req.Department == "" {
		return nil, newError(KindValidation, "missing_reference",
			"visitor, staff, institution and department are required")
	}
	if !req.MeetingType.Valid() {
		return nil, newError(KindValidation, "invalid_meeting_type",
			"meeting type must be %s or %s", model.MeetingVirtual, model.MeetingPhysical)
	}
	if _, err := model.ParseClockTime(string(req.Time)); err != nil {
		return nil, newError(KindValidation, "invalid_time", "%v", err)
	}

	visitor, err := s.dir.Visitor(ctx, req.VisitorID)
	if err != nil {
		return nil, directoryError("visitor", req.VisitorID, err)
	}
	institution, err := s.dir.Institution(ctx, req.InstitutionID)
	if err != nil {
		return nil, directoryError("institution", req.InstitutionID, err)
	}
	staff, err := s.dir.Staff(ctx, req.StaffID)
	if err != nil {
		return nil, directoryError("staff", req.StaffID, err)
	}
	if staff.Role != directory.RolePhysiotherapist {
		return nil, newError(KindValidation, "invalid_staff_role",
			"staff user %s is not a physiotherapist", staff.ID)
	}

	if !req.Time.On(req.Date, s.loc).After(s.now()) {
		return nil, errPastDateTime
	}

	existing, err := s.store.FindByVisitor(ctx, req.VisitorID)
	if err != nil {
		return nil, fmt.Errorf("load visitor appointments: %w", err)
	}
	if conflict := checkConflicts(existing, req.Time, req.InstitutionID, req.Department); conflict != nil {
		return nil, conflict
	}

	code, err := s.passcodes.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate passcode: %w", err)
	}

	now := s.now()
	appt := &model.Appointment{
		ID:            uuid.NewString(),
		Passcode:      code,
		VisitorID:     visitor.ID,
		StaffID:       staff.ID,
		InstitutionID: institution.ID,
		Department:    req.Department,
		Date:          dateOnly(req.Date, s.loc),
		Time:          req.Time,
		Status:        model.StatusBooked,
		MeetingType:   req.MeetingType,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.MeetingType == model.MeetingVirtual {
		appt.MeetingLink = s.meetingLink(staff.Email)
	}

	if err := s.store.Save(ctx, appt); err != nil {
		return nil, fmt.Errorf("save appointment: %w", err)
	}

	s.dispatch(ctx, "booking confirmation", appt, s.notifier.BookingConfirmed)
	return appt, nil
}

// Get returns the appointment or a not-found error.
func (s *Service) Get(ctx context.Context, id string) (*model.Appointment, error) {
	appt, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt == nil {
		return nil, errAppointmentNotFound
	}
	return appt, nil
}

func (s *Service) ListAll(ctx context.Context) ([]model.Appointment, error) {
	return s.store.FindAll(ctx)
}

func (s *Service) ListByVisitor(ctx context.Context, visitorID string) ([]model.Appointment, error) {
	return s.store.FindByVisitor(ctx, visitorID)
}

func (s *Service) ListByInstitution(ctx context.Context, institutionID string) ([]model.Appointment, error) {
	return s.store.FindByInstitution(ctx, institutionID)
}

func (s *Service) ListByStaff(ctx context.Context, staffID string) ([]model.Appointment, error) {
	return s.store.FindByStaff(ctx, staffID)
}

func (s *Service) ListByInstitutionDateStatus(ctx context.Context, institutionID string, date time.Time, status model.Status) ([]model.Appointment, error) {
	if !status.Valid() {
		return nil, newError(KindValidation, "invalid_status", "unknown status %q", status)
	}
	return s.store.FindByInstitutionDateStatus(ctx, institutionID, dateOnly(date, s.loc), status)
}

// AvailableSlots lists catalog slots on date with remaining capacity for the
// department and institution. Only appointments still in status booked count
// against the per-slot cap.
func (s *Service) AvailableSlots(ctx context.Context, date time.Time, department, institutionID string) ([]model.ClockTime, error) {
	if _, err := s.dir.Institution(ctx, institutionID); err != nil {
		return nil, directoryError("institution", institutionID, err)
	}

	appts, err := s.store.FindByDepartmentDateInstitution(ctx, department, dateOnly(date, s.loc), institutionID)
	if err != nil {
		return nil, fmt.Errorf("load slot bookings: %w", err)
	}

	occupied := make(map[model.ClockTime]int)
	for _, appt := range appts {
		if appt.Status == model.StatusBooked {
			occupied[appt.Time]++
		}
	}
	return availability.AvailableSlots(date, s.now(), occupied), nil
}

// CheckIn moves a booked appointment to checked_in after verifying the
// supplied passcode. Checking in twice is rejected with a distinct code so
// the front desk can tell a repeat scan from a real failure.
func (s *Service) CheckIn(ctx context.Context, id, suppliedPasscode string) (*model.Appointment, error) {
	appt, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt == nil {
		return nil, errAppointmentNotFound
	}
	if appt.Passcode != suppliedPasscode {
		return nil, errPasscodeMismatch
	}
	switch appt.Status {
	case model.StatusAttended:
		return nil, errAlreadyAttended
	case model.StatusCheckedIn:
		return nil, errAlreadyCheckedIn
	}

	now := s.now()
	appt.Status = model.StatusCheckedIn
	appt.CheckInAt = &now
	appt.UpdatedAt = now
	if err := s.store.Save(ctx, appt); err != nil {
		return nil, fmt.Errorf("save appointment: %w", err)
	}
	return appt, nil
}

// CheckOut completes a checked-in appointment and fires the checkout
// confirmation.
func (s *Service) CheckOut(ctx context.Context, id, suppliedPasscode string) (*model.Appointment, error) {
	appt, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt == nil {
		return nil, errAppointmentNotFound
	}
	if appt.Passcode != suppliedPasscode {
		return nil, errPasscodeMismatch
	}
	if appt.Status != model.StatusCheckedIn {
		return nil, errNotCheckedIn
	}

	now := s.now()
	appt.Status = model.StatusAttended
	appt.CheckOutAt = &now
	appt.UpdatedAt = now
	if err := s.store.Save(ctx, appt); err != nil {
		return nil, fmt.Errorf("save appointment: %w", err)
	}

	s.dispatch(ctx, "checkout confirmation", appt, s.notifier.CheckedOut)
	return appt, nil
}

// Cancel closes an appointment that has not yet been attended.
func (s *Service) Cancel(ctx context.Context, id, reason string) (*model.Appointment, error) {
	appt, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt == nil {
		return nil, errAppointmentNotFound
	}
	switch appt.Status {
	case model.StatusCanceled:
		return nil, errAlreadyCanceled
	case model.StatusAttended:
		return nil, errAlreadyAttended
	}

	now := s.now()
	appt.Status = model.StatusCanceled
	appt.CanceledAt = &now
	appt.CancelReason = reason
	appt.UpdatedAt = now
	if err := s.store.Save(ctx, appt); err != nil {
		return nil, fmt.Errorf("save appointment: %w", err)
	}

	s.dispatch(ctx, "cancellation notice", appt, s.notifier.Canceled)
	return appt, nil
}

// Reschedule moves an open appointment to a new future date and time. A
// fresh passcode is issued and, for virtual visits, a fresh meeting link.
func (s *Service) Reschedule(ctx context.Context, id string, newDate time.Time, newTime model.ClockTime) (*model.Appointment, error) {
	appt, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt == nil {
		return nil, errAppointmentNotFound
	}
	if appt.Status == model.StatusAttended || appt.Status == model.StatusCanceled {
		return nil, errClosedReschedule
	}
	if _, err := model.ParseClockTime(string(newTime)); err != nil {
		return nil, newError(KindValidation, "invalid_time", "%v", err)
	}
	if !newTime.On(newDate, s.loc).After(s.now()) {
		return nil, errPastDateTime
	}

	code, err := s.passcodes.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate passcode: %w", err)
	}

	appt.Passcode = code
	appt.Date = dateOnly(newDate, s.loc)
	appt.Time = newTime
	appt.Status = model.StatusRescheduled
	appt.UpdatedAt = s.now()

	if appt.MeetingType == model.MeetingVirtual && appt.StaffID != "" {
		staff, err := s.dir.Staff(ctx, appt.StaffID)
		if err != nil {
			s.logger.Warn("staff lookup failed, keeping previous meeting link",
				"appointment_id", appt.ID, "staff_id", appt.StaffID, "err", err)
		} else {
			appt.MeetingLink = s.meetingLink(staff.Email)
		}
	}

	if err := s.store.Save(ctx, appt); err != nil {
		return nil, fmt.Errorf("save appointment: %w", err)
	}

	s.dispatch(ctx, "reschedule notice", appt, s.notifier.Rescheduled)
	return appt, nil
}

// ReminderSweep dispatches reminder events for virtual appointments that
// start within the lookahead window on the current date. Each dispatch is
// isolated; one failed send does not stop the sweep. Returns the number of
// reminders dispatched.
//
// The window is expressed in wall-clock terms, so a lookahead that crosses
// midnight is clipped to the current date.
func (s *Service) ReminderSweep(ctx context.Context, lookahead time.Duration) (int, error) {
	now := s.now().In(s.loc)
	until := now.Add(lookahead)

	from := model.ClockTime(now.Format("15:04"))
	to := model.ClockTime(until.Format("15:04"))

	appts, err := s.store.FindStartingBetween(ctx, dateOnly(now, s.loc), from, to)
	if err != nil {
		return 0, fmt.Errorf("load upcoming appointments: %w", err)
	}

	sent := 0
	for i := range appts {
		appt := &appts[i]
		if appt.MeetingType != model.MeetingVirtual {
			continue
		}
		s.dispatch(ctx, "reminder", appt, s.notifier.Reminder)
		sent++
	}
	return sent, nil
}

func (s *Service) meetingLink(staffEmail string) string {
	return fmt.Sprintf("%s/%s?moderator=%s", s.linkBase, s.newRoomID(), staffEmail)
}

// dispatch builds a snapshot and hands it to the dispatcher. Failures are
// logged and swallowed; the lifecycle operation has already committed.
func (s *Service) dispatch(ctx context.Context, what string, appt *model.Appointment, send func(context.Context, notify.Snapshot) error) {
	if err := send(ctx, s.snapshot(ctx, appt)); err != nil {
		s.logger.Error("notification dispatch failed",
			"notification", what, "appointment_id", appt.ID, "err", err)
	}
}

// snapshot denormalizes directory data onto the event payload. Lookups are
// best effort; a missing name never blocks the event.
func (s *Service) snapshot(ctx context.Context, appt *model.Appointment) notify.Snapshot {
	snap := notify.Snapshot{
		AppointmentID: appt.ID,
		VisitorID:     appt.VisitorID,
		StaffID:       appt.StaffID,
		InstitutionID: appt.InstitutionID,
		Department:    appt.Department,
		Date:          appt.Date.Format("2006-01-02"),
		Time:          string(appt.Time),
		Status:        string(appt.Status),
		MeetingType:   string(appt.MeetingType),
		MeetingLink:   appt.MeetingLink,
		Passcode:      appt.Passcode,
		CancelReason:  appt.CancelReason,
	}
	if visitor, err := s.dir.Visitor(ctx, appt.VisitorID); err == nil {
		snap.VisitorName = visitor.Name
		snap.VisitorEmail = visitor.Email
		snap.VisitorPhone = visitor.Phone
	} else {
		s.logger.Warn("visitor lookup for snapshot failed", "visitor_id", appt.VisitorID, "err", err)
	}
	if staff, err := s.dir.Staff(ctx, appt.StaffID); err == nil {
		snap.StaffName = staff.Name
		snap.StaffEmail = staff.Email
	} else {
		s.logger.Warn("staff lookup for snapshot failed", "staff_id", appt.StaffID, "err", err)
	}
	if inst, err := s.dir.Institution(ctx, appt.InstitutionID); err == nil {
		snap.InstitutionName = inst.Name
	} else {
		s.logger.Warn("institution lookup for snapshot failed", "institution_id", appt.InstitutionID, "err", err)
	}
	return snap
}

func directoryError(entity, id string, err error) error {
	if errors.Is(err, directory.ErrNotFound) {
		return newError(KindNotFound, entity+"_not_found", "%s %s not found", entity, id)
	}
	return fmt.Errorf("lookup %s %s: %w", entity, id, err)
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
