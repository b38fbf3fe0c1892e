package availability

import (
	"time"

	"github.com/winsfit/visitdesk/services/appointment-service/internal/model"
)

// SlotCapacity is the maximum number of unresolved appointments a single
// slot can hold per department, date and institution.
const SlotCapacity = 5

// Catalog is the fixed set of bookable slot starts, in display order.
// There is no 13:00 slot; that hour is reserved for the lunch break.
var Catalog = []model.ClockTime{
	"09:00", "10:00", "11:00", "12:00", "14:00", "15:00", "16:00",
}

// AvailableSlots returns the catalog slots on date that still have capacity,
// given the number of unresolved appointments already occupying each slot.
// Dates strictly before today yield no slots. Order follows the catalog.
//
// date and today are compared by calendar day in the same location.
func AvailableSlots(date, today time.Time, occupied map[model.ClockTime]int) []model.ClockTime {
	if beforeDay(date, today) {
		return []model.ClockTime{}
	}

	slots := make([]model.ClockTime, 0, len(Catalog))
	for _, slot := range Catalog {
		if occupied[slot] < SlotCapacity {
			slots = append(slots, slot)
		}
	}
	return slots
}

func beforeDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
