package availability

import (
	"testing"
	"time"

	"github.com/winsfit/visitdesk/services/appointment-service/internal/model"
)

func TestAvailableSlots_EmptyDayReturnsFullCatalog(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	slots := AvailableSlots(today, today, nil)
	if len(slots) != len(Catalog) {
		t.Fatalf("expected %d slots, got %d", len(Catalog), len(slots))
	}
	for i, slot := range slots {
		if slot != Catalog[i] {
			t.Fatalf("slot %d: expected %s, got %s", i, Catalog[i], slot)
		}
	}
}

func TestAvailableSlots_FullSlotExcluded(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	occupied := map[model.ClockTime]int{
		"10:00": 5,
		"14:00": 4,
	}
	slots := AvailableSlots(today, today, occupied)
	for _, slot := range slots {
		if slot == "10:00" {
			t.Fatal("10:00 is at capacity and should be excluded")
		}
	}
	if !contains(slots, "14:00") {
		t.Fatal("14:00 has remaining capacity and should be included")
	}
	if len(slots) != len(Catalog)-1 {
		t.Fatalf("expected %d slots, got %d", len(Catalog)-1, len(slots))
	}
}

func TestAvailableSlots_PastDateEmpty(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	slots := AvailableSlots(yesterday, today, nil)
	if len(slots) != 0 {
		t.Fatalf("expected no slots for a past date, got %d", len(slots))
	}
}

func TestAvailableSlots_TodayNotPast(t *testing.T) {
	// "today" may carry a time-of-day component; only the calendar day counts.
	date := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 31, 17, 30, 0, 0, time.UTC)

	slots := AvailableSlots(date, now, nil)
	if len(slots) != len(Catalog) {
		t.Fatalf("expected %d slots for today, got %d", len(Catalog), len(slots))
	}
}

func TestAvailableSlots_CatalogOrderPreserved(t *testing.T) {
	today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	occupied := map[model.ClockTime]int{"09:00": 5, "12:00": 5}

	slots := AvailableSlots(today, today, occupied)
	want := []model.ClockTime{"10:00", "11:00", "14:00", "15:00", "16:00"}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("slot %d: expected %s, got %s", i, want[i], slots[i])
		}
	}
}

func contains(slots []model.ClockTime, want model.ClockTime) bool {
	for _, s := range slots {
		if s == want {
			return true
		}
	}
	return false
}
