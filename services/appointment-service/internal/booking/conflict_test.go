package booking

import (
	"testing"

	"github.com/winsfit/visitdesk/services/appointment-service/internal/model"
)

func TestCheckConflicts_NoHistoryAllows(t *testing.T) {
	if err := checkConflicts(nil, "10:00", "inst-1", "physiotherapy"); err != nil {
		t.Fatalf("expected no conflict, got %v", err)
	}
}

func TestCheckConflicts_OpenSameDepartmentBlocks(t *testing.T) {
	existing := []model.Appointment{
		{Department: "physiotherapy", InstitutionID: "inst-1", Time: "09:00", Status: model.StatusBooked},
	}
	err := checkConflicts(existing, "10:00", "inst-1", "physiotherapy")
	if err == nil {
		t.Fatal("expected conflict for open appointment in same department")
	}
	if err.Code != "open_appointment_in_department" {
		t.Fatalf("unexpected code %q", err.Code)
	}
	if err.Kind != KindConflict {
		t.Fatalf("unexpected kind %q", err.Kind)
	}
}

func TestCheckConflicts_ResolvedSameDepartmentAllows(t *testing.T) {
	for _, status := range []model.Status{model.StatusAttended, model.StatusCanceled} {
		existing := []model.Appointment{
			{Department: "physiotherapy", InstitutionID: "inst-1", Time: "09:00", Status: status},
		}
		if err := checkConflicts(existing, "10:00", "inst-1", "physiotherapy"); err != nil {
			t.Fatalf("status %s should not block rebooking, got %v", status, err)
		}
	}
}

func TestCheckConflicts_SameTimeOtherInstitutionBlocks(t *testing.T) {
	existing := []model.Appointment{
		{Department: "cardiology", InstitutionID: "inst-2", Time: "10:00", Status: model.StatusAttended},
	}
	err := checkConflicts(existing, "10:00", "inst-1", "physiotherapy")
	if err == nil {
		t.Fatal("expected conflict for same slot at another institution")
	}
	if err.Code != "concurrent_at_other_institution" {
		t.Fatalf("unexpected code %q", err.Code)
	}
}

func TestCheckConflicts_SameTimeSameInstitutionAllows(t *testing.T) {
	existing := []model.Appointment{
		{Department: "cardiology", InstitutionID: "inst-1", Time: "10:00", Status: model.StatusAttended},
	}
	if err := checkConflicts(existing, "10:00", "inst-1", "physiotherapy"); err != nil {
		t.Fatalf("same institution at same time should not block, got %v", err)
	}
}

func TestCheckConflicts_RescheduledCountsAsOpen(t *testing.T) {
	existing := []model.Appointment{
		{Department: "physiotherapy", InstitutionID: "inst-1", Time: "09:00", Status: model.StatusRescheduled},
	}
	if err := checkConflicts(existing, "11:00", "inst-1", "physiotherapy"); err == nil {
		t.Fatal("rescheduled appointment should still block its department")
	}
}
