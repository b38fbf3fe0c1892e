package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/winsfit/visitdesk/services/appointment-service/internal/directory"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/model"
	"github.com/winsfit/visitdesk/services/appointment-service/internal/notify"
)

type fakeStore struct {
	appts   map[string]*model.Appointment
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{appts: map[string]*model.Appointment{}}
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*model.Appointment, error) {
	appt, ok := f.appts[id]
	if !ok {
		return nil, nil
	}
	cp := *appt
	return &cp, nil
}

func (f *fakeStore) FindAll(context.Context) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appts {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeStore) Save(_ context.Context, appt *model.Appointment) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *appt
	f.appts[appt.ID] = &cp
	return nil
}

func (f *fakeStore) ExistsByPasscode(_ context.Context, code string) (bool, error) {
	for _, a := range f.appts {
		if a.Passcode == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) FindByVisitor(_ context.Context, visitorID string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appts {
		if a.VisitorID == visitorID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByDepartmentDateInstitution(_ context.Context, department string, date time.Time, institutionID string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appts {
		if a.Department == department && a.InstitutionID == institutionID && a.Date.Equal(date) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByInstitution(_ context.Context, institutionID string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appts {
		if a.InstitutionID == institutionID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByStaff(_ context.Context, staffID string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appts {
		if a.StaffID == staffID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByInstitutionDateStatus(_ context.Context, institutionID string, date time.Time, status model.Status) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appts {
		if a.InstitutionID == institutionID && a.Date.Equal(date) && a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) FindStartingBetween(_ context.Context, date time.Time, from, to model.ClockTime) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appts {
		if a.Date.Equal(date) && string(a.Time) >= string(from) && string(a.Time) <= string(to) {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeDirectory struct {
	visitors     map[string]*directory.Visitor
	staff        map[string]*directory.Staff
	institutions map[string]*directory.Institution
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		visitors: map[string]*directory.Visitor{
			"vis-1": {ID: "vis-1", Name: "Alma Olsen", Email: "alma@example.com"},
		},
		staff: map[string]*directory.Staff{
			"staff-1": {ID: "staff-1", Name: "Dr. Berg", Email: "berg@clinic.example", Role: directory.RolePhysiotherapist, InstitutionID: "inst-1"},
			"staff-2": {ID: "staff-2", Name: "Front Desk", Email: "desk@clinic.example", Role: "receptionist", InstitutionID: "inst-1"},
		},
		institutions: map[string]*directory.Institution{
			"inst-1": {ID: "inst-1", Name: "Harbor Clinic"},
			"inst-2": {ID: "inst-2", Name: "Lakeside Clinic"},
		},
	}
}

func (f *fakeDirectory) Visitor(_ context.Context, id string) (*directory.Visitor, error) {
	if v, ok := f.visitors[id]; ok {
		return v, nil
	}
	return nil, directory.ErrNotFound
}

func (f *fakeDirectory) Staff(_ context.Context, id string) (*directory.Staff, error) {
	if s, ok := f.staff[id]; ok {
		return s, nil
	}
	return nil, directory.ErrNotFound
}

func (f *fakeDirectory) Institution(_ context.Context, id string) (*directory.Institution, error) {
	if i, ok := f.institutions[id]; ok {
		return i, nil
	}
	return nil, directory.ErrNotFound
}

type dispatched struct {
	kind string
	snap notify.Snapshot
}

type fakeDispatcher struct {
	events []dispatched
	err    error
}

func (f *fakeDispatcher) record(kind string, snap notify.Snapshot) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, dispatched{kind: kind, snap: snap})
	return nil
}

func (f *fakeDispatcher) BookingConfirmed(_ context.Context, s notify.Snapshot) error {
	return f.record("booked", s)
}
func (f *fakeDispatcher) Canceled(_ context.Context, s notify.Snapshot) error {
	return f.record("canceled", s)
}
func (f *fakeDispatcher) CheckedOut(_ context.Context, s notify.Snapshot) error {
	return f.record("checked_out", s)
}
func (f *fakeDispatcher) Rescheduled(_ context.Context, s notify.Snapshot) error {
	return f.record("rescheduled", s)
}
func (f *fakeDispatcher) Reminder(_ context.Context, s notify.Snapshot) error {
	return f.record("reminder", s)
}

type seqPasscodes struct {
	n int
}

func (s *seqPasscodes) Generate(context.Context) (string, error) {
	s.n++
	return fmt.Sprintf("CODE%02d", s.n), nil
}

type fixture struct {
	svc      *Service
	store    *fakeStore
	dir      *fakeDirectory
	notifier *fakeDispatcher
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    newFakeStore(),
		dir:      newFakeDirectory(),
		notifier: &fakeDispatcher{},
		now:      time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(Deps{
		Store:     f.store,
		Directory: f.dir,
		Passcodes: &seqPasscodes{},
		Notifier:  f.notifier,
		Now:       func() time.Time { return f.now },
		Location:  time.UTC,
	})
	return f
}

func (f *fixture) validRequest() CreateRequest {
	return CreateRequest{
		VisitorID:     "vis-1",
		StaffID:       "staff-1",
		InstitutionID: "inst-1",
		Department:    "physiotherapy",
		Date:          f.now,
		Time:          "10:00",
		MeetingType:   model.MeetingVirtual,
	}
}

func kindOf(t *testing.T, err error) *Error {
	t.Helper()
	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("expected *booking.Error, got %T: %v", err, err)
	}
	return be
}

func TestCreate_VirtualBooking(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), f.validRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if appt.Status != model.StatusBooked {
		t.Fatalf("expected status booked, got %s", appt.Status)
	}
	if len(appt.Passcode) != 6 {
		t.Fatalf("expected 6-char passcode, got %q", appt.Passcode)
	}
	if !strings.Contains(appt.MeetingLink, "?moderator=berg@clinic.example") {
		t.Fatalf("meeting link missing moderator parameter: %q", appt.MeetingLink)
	}

	stored, err := f.svc.Get(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("Get after Create failed: %v", err)
	}
	if stored.VisitorID != "vis-1" || stored.Department != "physiotherapy" || stored.Time != "10:00" || stored.MeetingType != model.MeetingVirtual {
		t.Fatalf("round trip mismatch: %+v", stored)
	}

	if len(f.notifier.events) != 1 || f.notifier.events[0].kind != "booked" {
		t.Fatalf("expected one booking confirmation, got %+v", f.notifier.events)
	}
	snap := f.notifier.events[0].snap
	if snap.VisitorEmail != "alma@example.com" || snap.StaffEmail != "berg@clinic.example" {
		t.Fatalf("snapshot not denormalized: %+v", snap)
	}
}

func TestCreate_PhysicalHasNoLink(t *testing.T) {
	f := newFixture(t)
	req := f.validRequest()
	req.MeetingType = model.MeetingPhysical

	appt, err := f.svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if appt.MeetingLink != "" {
		t.Fatalf("physical visit should not carry a meeting link, got %q", appt.MeetingLink)
	}
}

func TestCreate_PastDateRejected(t *testing.T) {
	f := newFixture(t)
	req := f.validRequest()
	req.Date = f.now.AddDate(0, 0, -1)

	_, err := f.svc.Create(context.Background(), req)
	be := kindOf(t, err)
	if be.Kind != KindValidation || be.Code != "past_date_time" {
		t.Fatalf("expected past_date_time validation error, got %+v", be)
	}
	if len(f.store.appts) != 0 {
		t.Fatal("rejected booking must not be persisted")
	}
	if len(f.notifier.events) != 0 {
		t.Fatal("rejected booking must not dispatch notifications")
	}
}

func TestCreate_EarlierTodayRejected(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2026, 8, 31, 11, 30, 0, 0, time.UTC)
	req := f.validRequest()
	req.Date = f.now
	req.Time = "10:00"

	_, err := f.svc.Create(context.Background(), req)
	if kindOf(t, err).Code != "past_date_time" {
		t.Fatalf("expected past_date_time, got %v", err)
	}
}

func TestCreate_NonPhysiotherapistRejected(t *testing.T) {
	f := newFixture(t)
	req := f.validRequest()
	req.StaffID = "staff-2"

	_, err := f.svc.Create(context.Background(), req)
	be := kindOf(t, err)
	if be.Kind != KindValidation || be.Code != "invalid_staff_role" {
		t.Fatalf("expected invalid_staff_role, got %+v", be)
	}
}

func TestCreate_UnknownVisitorRejected(t *testing.T) {
	f := newFixture(t)
	req := f.validRequest()
	req.VisitorID = "vis-missing"

	_, err := f.svc.Create(context.Background(), req)
	be := kindOf(t, err)
	if be.Kind != KindNotFound || be.Code != "visitor_not_found" {
		t.Fatalf("expected visitor_not_found, got %+v", be)
	}
}

func TestCreate_OpenDepartmentConflict(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Create(context.Background(), f.validRequest()); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	req := f.validRequest()
	req.Time = "11:00"
	_, err := f.svc.Create(context.Background(), req)
	be := kindOf(t, err)
	if be.Kind != KindConflict || be.Code != "open_appointment_in_department" {
		t.Fatalf("expected department conflict, got %+v", be)
	}
}

func TestCreate_SameTimeOtherInstitutionConflict(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Create(context.Background(), f.validRequest()); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	req := f.validRequest()
	req.InstitutionID = "inst-2"
	req.Department = "cardiology"
	_, err := f.svc.Create(context.Background(), req)
	be := kindOf(t, err)
	if be.Code != "concurrent_at_other_institution" {
		t.Fatalf("expected cross-institution conflict, got %+v", be)
	}
}

func TestCreate_NotificationFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("kafka down")

	appt, err := f.svc.Create(context.Background(), f.validRequest())
	if err != nil {
		t.Fatalf("Create should survive dispatcher failure: %v", err)
	}
	if _, ok := f.store.appts[appt.ID]; !ok {
		t.Fatal("appointment not persisted")
	}
}

func TestCheckIn_Lifecycle(t *testing.T) {
	f := newFixture(t)
	appt, err := f.svc.Create(context.Background(), f.validRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := f.svc.CheckIn(context.Background(), appt.ID, "WRONG1"); kindOf(t, err).Kind != KindUnauthorized {
		t.Fatalf("expected unauthorized on wrong passcode, got %v", err)
	}
	unchanged, _ := f.svc.Get(context.Background(), appt.ID)
	if unchanged.Status != model.StatusBooked {
		t.Fatalf("status must be unchanged after failed check-in, got %s", unchanged.Status)
	}

	checked, err := f.svc.CheckIn(context.Background(), appt.ID, appt.Passcode)
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	if checked.Status != model.StatusCheckedIn || checked.CheckInAt == nil {
		t.Fatalf("expected checked_in with timestamp, got %+v", checked)
	}

	_, err = f.svc.CheckIn(context.Background(), appt.ID, appt.Passcode)
	if kindOf(t, err).Code != "already_checked_in" {
		t.Fatalf("expected already_checked_in, got %v", err)
	}
}

func TestCheckIn_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CheckIn(context.Background(), "missing", "CODE01")
	if kindOf(t, err).Kind != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCheckOut_RequiresCheckIn(t *testing.T) {
	f := newFixture(t)
	appt, _ := f.svc.Create(context.Background(), f.validRequest())

	_, err := f.svc.CheckOut(context.Background(), appt.ID, appt.Passcode)
	if kindOf(t, err).Code != "not_checked_in" {
		t.Fatalf("expected not_checked_in, got %v", err)
	}

	if _, err := f.svc.CheckIn(context.Background(), appt.ID, appt.Passcode); err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	done, err := f.svc.CheckOut(context.Background(), appt.ID, appt.Passcode)
	if err != nil {
		t.Fatalf("CheckOut failed: %v", err)
	}
	if done.Status != model.StatusAttended || done.CheckOutAt == nil {
		t.Fatalf("expected attended with timestamp, got %+v", done)
	}

	last := f.notifier.events[len(f.notifier.events)-1]
	if last.kind != "checked_out" {
		t.Fatalf("expected checkout confirmation, got %s", last.kind)
	}

	// Attended appointments cannot be checked in again.
	_, err = f.svc.CheckIn(context.Background(), appt.ID, appt.Passcode)
	if kindOf(t, err).Code != "already_attended" {
		t.Fatalf("expected already_attended, got %v", err)
	}
}

func TestCancel_StateGuards(t *testing.T) {
	f := newFixture(t)
	appt, _ := f.svc.Create(context.Background(), f.validRequest())

	canceled, err := f.svc.Cancel(context.Background(), appt.ID, "visitor request")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if canceled.Status != model.StatusCanceled || canceled.CanceledAt == nil {
		t.Fatalf("expected canceled with timestamp, got %+v", canceled)
	}
	if canceled.CancelReason != "visitor request" {
		t.Fatalf("cancel reason not stored: %+v", canceled)
	}

	_, err = f.svc.Cancel(context.Background(), appt.ID, "")
	if kindOf(t, err).Code != "already_canceled" {
		t.Fatalf("expected already_canceled, got %v", err)
	}
}

func TestCancel_AttendedRejected(t *testing.T) {
	f := newFixture(t)
	appt, _ := f.svc.Create(context.Background(), f.validRequest())
	if _, err := f.svc.CheckIn(context.Background(), appt.ID, appt.Passcode); err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	if _, err := f.svc.CheckOut(context.Background(), appt.ID, appt.Passcode); err != nil {
		t.Fatalf("CheckOut failed: %v", err)
	}

	_, err := f.svc.Cancel(context.Background(), appt.ID, "")
	if kindOf(t, err).Code != "already_attended" {
		t.Fatalf("expected already_attended, got %v", err)
	}
}

func TestReschedule_IssuesFreshPasscodeAndLink(t *testing.T) {
	f := newFixture(t)
	appt, _ := f.svc.Create(context.Background(), f.validRequest())
	oldPasscode := appt.Passcode
	oldLink := appt.MeetingLink

	moved, err := f.svc.Reschedule(context.Background(), appt.ID, f.now.AddDate(0, 0, 1), "14:00")
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	if moved.Status != model.StatusRescheduled {
		t.Fatalf("expected rescheduled, got %s", moved.Status)
	}
	if moved.Passcode == oldPasscode {
		t.Fatal("reschedule must issue a fresh passcode")
	}
	if moved.MeetingLink == oldLink {
		t.Fatal("virtual reschedule must regenerate the meeting link")
	}
	if moved.Time != "14:00" {
		t.Fatalf("time not updated: %s", moved.Time)
	}

	last := f.notifier.events[len(f.notifier.events)-1]
	if last.kind != "rescheduled" {
		t.Fatalf("expected reschedule notice, got %s", last.kind)
	}
}

func TestReschedule_ClosedAppointmentsRejected(t *testing.T) {
	f := newFixture(t)
	appt, _ := f.svc.Create(context.Background(), f.validRequest())
	if _, err := f.svc.Cancel(context.Background(), appt.ID, ""); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	_, err := f.svc.Reschedule(context.Background(), appt.ID, f.now.AddDate(0, 0, 1), "10:00")
	if kindOf(t, err).Code != "closed_appointment" {
		t.Fatalf("expected closed_appointment, got %v", err)
	}
}

func TestReschedule_PastTargetRejected(t *testing.T) {
	f := newFixture(t)
	appt, _ := f.svc.Create(context.Background(), f.validRequest())

	_, err := f.svc.Reschedule(context.Background(), appt.ID, f.now.AddDate(0, 0, -2), "10:00")
	if kindOf(t, err).Code != "past_date_time" {
		t.Fatalf("expected past_date_time, got %v", err)
	}
}

func TestRescheduled_CheckInFlowStillWorks(t *testing.T) {
	f := newFixture(t)
	appt, _ := f.svc.Create(context.Background(), f.validRequest())
	moved, err := f.svc.Reschedule(context.Background(), appt.ID, f.now.AddDate(0, 0, 1), "15:00")
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}

	checked, err := f.svc.CheckIn(context.Background(), moved.ID, moved.Passcode)
	if err != nil {
		t.Fatalf("CheckIn of rescheduled appointment failed: %v", err)
	}
	if checked.Status != model.StatusCheckedIn {
		t.Fatalf("expected checked_in, got %s", checked.Status)
	}
}

func TestAvailableSlots_OnlyBookedCountAgainstCap(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	// Fill the 10:00 slot with five booked appointments plus noise in other
	// statuses that must not count.
	for i := 0; i < 5; i++ {
		f.store.appts[fmt.Sprintf("b%d", i)] = &model.Appointment{
			ID: fmt.Sprintf("b%d", i), InstitutionID: "inst-1", Department: "physiotherapy",
			Date: date, Time: "10:00", Status: model.StatusBooked,
		}
	}
	f.store.appts["c1"] = &model.Appointment{
		ID: "c1", InstitutionID: "inst-1", Department: "physiotherapy",
		Date: date, Time: "11:00", Status: model.StatusCanceled,
	}

	slots, err := f.svc.AvailableSlots(context.Background(), date, "physiotherapy", "inst-1")
	if err != nil {
		t.Fatalf("AvailableSlots failed: %v", err)
	}
	for _, s := range slots {
		if s == "10:00" {
			t.Fatal("10:00 is at capacity and should be excluded")
		}
	}
	found := false
	for _, s := range slots {
		if s == "11:00" {
			found = true
		}
	}
	if !found {
		t.Fatal("canceled appointment must not consume the 11:00 slot")
	}
}

func TestAvailableSlots_UnknownInstitution(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AvailableSlots(context.Background(), f.now, "physiotherapy", "inst-missing")
	if kindOf(t, err).Kind != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReminderSweep_WindowAndMeetingType(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2026, 8, 31, 9, 50, 0, 0, time.UTC)
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	f.store.appts["soon"] = &model.Appointment{
		ID: "soon", VisitorID: "vis-1", StaffID: "staff-1", InstitutionID: "inst-1",
		Date: today, Time: "10:00", Status: model.StatusBooked, MeetingType: model.MeetingVirtual,
	}
	f.store.appts["later"] = &model.Appointment{
		ID: "later", VisitorID: "vis-1", StaffID: "staff-1", InstitutionID: "inst-1",
		Date: today, Time: "11:00", Status: model.StatusBooked, MeetingType: model.MeetingVirtual,
	}
	f.store.appts["inperson"] = &model.Appointment{
		ID: "inperson", VisitorID: "vis-1", StaffID: "staff-1", InstitutionID: "inst-1",
		Date: today, Time: "10:00", Status: model.StatusBooked, MeetingType: model.MeetingPhysical,
	}

	sent, err := f.svc.ReminderSweep(context.Background(), 30*time.Minute)
	if err != nil {
		t.Fatalf("ReminderSweep failed: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected exactly one reminder, got %d", sent)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].kind != "reminder" {
		t.Fatalf("unexpected dispatches: %+v", f.notifier.events)
	}
	if f.notifier.events[0].snap.AppointmentID != "soon" {
		t.Fatalf("wrong appointment reminded: %+v", f.notifier.events[0].snap)
	}
}

func TestReminderSweep_DispatchFailureIsolated(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2026, 8, 31, 9, 50, 0, 0, time.UTC)
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	f.store.appts["soon"] = &model.Appointment{
		ID: "soon", VisitorID: "vis-1", StaffID: "staff-1", InstitutionID: "inst-1",
		Date: today, Time: "10:00", Status: model.StatusBooked, MeetingType: model.MeetingVirtual,
	}
	f.notifier.err = errors.New("broker down")

	if _, err := f.svc.ReminderSweep(context.Background(), 30*time.Minute); err != nil {
		t.Fatalf("sweep must not fail on dispatch errors: %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), "missing")
	if kindOf(t, err).Kind != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
