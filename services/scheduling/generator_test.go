// File: services/scheduling/generator_test.go
package scheduling

import (
	"reflect"
	"testing"
	"time"

	"github.com/roza-in/server/models"
)

// ---------- Helper ----------

// 2026-03-02 is a Monday.
const testDate = "2026-03-02"

func testLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("loading location: %v", err)
	}
	return loc
}

func mondaySchedule() models.WeeklySchedule {
	return models.WeeklySchedule{
		ID:               "sched-1",
		HospitalID:       "hosp-1",
		DoctorID:         "doc-1",
		DayOfWeek:        1,
		Start:            540, // 09:00
		End:              720, // 12:00
		SlotDuration:     30,
		MaxPerSlot:       1,
		ConsultationType: "in_person",
		Fee:              500,
		Currency:         "INR",
		Active:           true,
	}
}

func slotStarts(slots []models.Slot) []int {
	out := make([]int, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start)
	}
	return out
}

func intPtr(v int) *int { return &v }

// ---------- Generator Tests ----------

func TestGenerateSlots_BasicGrid(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)

	slots, err := GenerateSlots([]models.WeeklySchedule{mondaySchedule()}, nil, testDate, testDate, now, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{540, 570, 600, 630, 660, 690}
	if got := slotStarts(slots); !reflect.DeepEqual(got, want) {
		t.Fatalf("slot starts = %v, want %v", got, want)
	}
	for _, s := range slots {
		if s.End != s.Start+30 {
			t.Errorf("slot %d has end %d, want %d", s.Start, s.End, s.Start+30)
		}
		if s.Date != testDate {
			t.Errorf("slot %d has date %s, want %s", s.Start, s.Date, testDate)
		}
		if s.MaxCapacity != 1 || s.CurrentOccupancy != 0 {
			t.Errorf("slot %d capacity = %d/%d, want 0/1", s.Start, s.CurrentOccupancy, s.MaxCapacity)
		}
		if s.Blocked {
			t.Errorf("slot %d generated blocked", s.Start)
		}
		if s.Fee != 500 || s.Currency != "INR" {
			t.Errorf("slot %d fee = %v %s, want 500 INR", s.Start, s.Fee, s.Currency)
		}
		if s.ScheduleID != "sched-1" || s.Version != 1 {
			t.Errorf("slot %d schedule/version = %s/%d", s.Start, s.ScheduleID, s.Version)
		}
	}
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)
	schedules := []models.WeeklySchedule{mondaySchedule()}

	first, err := GenerateSlots(schedules, nil, testDate, testDate, now, loc)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := GenerateSlots(schedules, nil, testDate, testDate, now, loc)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same inputs produced different slot sets")
	}
}

func TestGenerateSlots_BreakStepsSkipped(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)
	ws := mondaySchedule()
	// Break 10:00-10:15 is shorter than a slot; the whole overlapping
	// step goes, the grid does not shift around it.
	ws.BreakStart = intPtr(600)
	ws.BreakEnd = intPtr(615)

	slots, err := GenerateSlots([]models.WeeklySchedule{ws}, nil, testDate, testDate, now, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{540, 570, 630, 660, 690}
	if got := slotStarts(slots); !reflect.DeepEqual(got, want) {
		t.Fatalf("slot starts = %v, want %v", got, want)
	}
}

func TestGenerateSlots_TrailingRemainderDropped(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)
	ws := mondaySchedule()
	ws.End = 650 // leaves a 20-minute tail after the 10:00 slot

	slots, err := GenerateSlots([]models.WeeklySchedule{ws}, nil, testDate, testDate, now, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{540, 570, 600}
	if got := slotStarts(slots); !reflect.DeepEqual(got, want) {
		t.Fatalf("slot starts = %v, want %v", got, want)
	}
}

func TestGenerateSlots_PastStartsDropped(t *testing.T) {
	loc := testLocation(t)
	// Mid-morning on the generated date itself. A slot starting exactly
	// at now is already unbookable.
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)

	slots, err := GenerateSlots([]models.WeeklySchedule{mondaySchedule()}, nil, testDate, testDate, now, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{630, 660, 690}
	if got := slotStarts(slots); !reflect.DeepEqual(got, want) {
		t.Fatalf("slot starts = %v, want %v", got, want)
	}
}

func TestGenerateSlots_ClosingOverrides(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)

	for _, typ := range []models.OverrideType{models.OverrideHoliday, models.OverrideLeave, models.OverrideEmergency} {
		ov := models.ScheduleOverride{DoctorID: "doc-1", Date: testDate, Type: typ}
		slots, err := GenerateSlots([]models.WeeklySchedule{mondaySchedule()}, []models.ScheduleOverride{ov}, testDate, testDate, now, loc)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", typ, err)
		}
		if len(slots) != 0 {
			t.Errorf("%s override still produced %d slots", typ, len(slots))
		}
	}
}

func TestGenerateSlots_SpecialHours(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)
	ov := models.ScheduleOverride{
		DoctorID: "doc-1",
		Date:     testDate,
		Type:     models.OverrideSpecialHours,
		Start:    intPtr(840), // 14:00
		End:      intPtr(960), // 16:00
	}

	slots, err := GenerateSlots([]models.WeeklySchedule{mondaySchedule()}, []models.ScheduleOverride{ov}, testDate, testDate, now, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{840, 870, 900, 930}
	if got := slotStarts(slots); !reflect.DeepEqual(got, want) {
		t.Fatalf("slot starts = %v, want %v", got, want)
	}
	// Duration, capacity and fee still come from the weekly row.
	for _, s := range slots {
		if s.MaxCapacity != 1 || s.Fee != 500 {
			t.Errorf("special-hours slot %d lost weekly params: cap=%d fee=%v", s.Start, s.MaxCapacity, s.Fee)
		}
	}
}

func TestGenerateSlots_InactiveScheduleIgnored(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)
	ws := mondaySchedule()
	ws.Active = false

	slots, err := GenerateSlots([]models.WeeklySchedule{ws}, nil, testDate, testDate, now, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("inactive schedule produced %d slots", len(slots))
	}
}

func TestGenerateSlots_OnlyMatchingWeekdays(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)

	// Monday through Wednesday with a Monday-only schedule.
	slots, err := GenerateSlots([]models.WeeklySchedule{mondaySchedule()}, nil, testDate, "2026-03-04", now, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 6 {
		t.Fatalf("got %d slots, want 6", len(slots))
	}
	for _, s := range slots {
		if s.Date != testDate {
			t.Errorf("slot generated on %s, schedule only covers Monday", s.Date)
		}
	}
}

func TestGenerateSlots_WindowsSortedByStart(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)
	evening := mondaySchedule()
	evening.ID = "sched-2"
	evening.Start = 1020 // 17:00
	evening.End = 1140   // 19:00

	// Evening row listed first; output must still be in start order.
	slots, err := GenerateSlots([]models.WeeklySchedule{evening, mondaySchedule()}, nil, testDate, testDate, now, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	starts := slotStarts(slots)
	for i := 1; i < len(starts); i++ {
		if starts[i] <= starts[i-1] {
			t.Fatalf("slot starts out of order: %v", starts)
		}
	}
	if len(slots) != 10 {
		t.Errorf("got %d slots across both windows, want 10", len(slots))
	}
}

func TestGenerateSlots_BadDate(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)

	if _, err := GenerateSlots([]models.WeeklySchedule{mondaySchedule()}, nil, "02-03-2026", testDate, now, loc); err == nil {
		t.Error("expected error for malformed from date")
	}
}
