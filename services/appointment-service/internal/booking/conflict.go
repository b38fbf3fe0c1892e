package booking

import (
	"github.com/winsfit/visitdesk/services/appointment-service/internal/model"
)

// checkConflicts applies the visitor double-booking rules against the
// visitor's existing appointments:
//
//  1. An unresolved appointment in the same department blocks; a visitor
//     holds at most one open appointment per department. Resolved history
//     (attended or canceled) never blocks rebooking.
//  2. An appointment at the same clock time at a different institution
//     blocks, regardless of its status.
//
// Returns nil when the booking is allowed. The two rejections carry distinct
// codes so clients can tell them apart.
func checkConflicts(existing []model.Appointment, newTime model.ClockTime, newInstitutionID, newDepartment string) *Error {
	for _, appt := range existing {
		if appt.Status.Unresolved() && appt.Department == newDepartment {
			return newError(KindConflict, "open_appointment_in_department",
				"visitor already has an open appointment in department %s", newDepartment)
		}
		if appt.Time == newTime && appt.InstitutionID != newInstitutionID {
			return newError(KindConflict, "concurrent_at_other_institution",
				"visitor already holds the %s slot at another institution", newTime)
		}
	}
	return nil
}
