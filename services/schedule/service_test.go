// File: services/schedule/service_test.go
package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	scheduleRepo "github.com/roza-in/server/database/repository/schedule"
	slotRepo "github.com/roza-in/server/database/repository/slot"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/scheduling"
)

// ---------- Fixture ----------

// mondayDate is the first Monday inside the fixture horizon.
const mondayDate = "2026-03-02"

type scheduleFixture struct {
	t         *testing.T
	svc       *DefaultService
	schedules scheduleRepo.ScheduleRepository
	slots     slotRepo.SlotRepository
}

// newScheduleFixture pins now to Sunday 2026-03-01 noon with a one-week
// horizon, so exactly one Monday materializes.
func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	f := &scheduleFixture{
		t:         t,
		schedules: scheduleRepo.NewMemoryScheduleRepo(),
		slots:     slotRepo.NewMemorySlotRepo(),
	}
	clock := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	mat := scheduling.NewMaterializer(f.schedules, f.slots, time.UTC, 7)
	mat.Now = clock
	f.svc = NewService(f.schedules, f.slots, mat, time.UTC)
	f.svc.Now = clock
	return f
}

func (f *scheduleFixture) createMondaySchedule() *models.WeeklySchedule {
	f.t.Helper()
	ws, err := f.svc.CreateSchedule(context.Background(), models.WeeklySchedule{
		HospitalID:       "hosp-1",
		DoctorID:         "doc-1",
		DayOfWeek:        1,
		Start:            540,
		End:              720,
		SlotDuration:     30,
		MaxPerSlot:       1,
		ConsultationType: "in_person",
		Fee:              500,
		Currency:         "INR",
	})
	if err != nil {
		f.t.Fatalf("creating schedule: %v", err)
	}
	return ws
}

func (f *scheduleFixture) daySlots(date string) []models.Slot {
	f.t.Helper()
	out, err := f.slots.GetByDoctorAndDate(context.Background(), "doc-1", date)
	if err != nil {
		f.t.Fatalf("listing slots for %s: %v", date, err)
	}
	return out
}

func (f *scheduleFixture) occupyFirstSlot(date string) models.Slot {
	f.t.Helper()
	slots := f.daySlots(date)
	if len(slots) == 0 {
		f.t.Fatalf("no slots on %s to occupy", date)
	}
	if err := f.slots.TryAcquireSeat(context.Background(), slots[0].ID); err != nil {
		f.t.Fatalf("occupying slot: %v", err)
	}
	return slots[0]
}

// ---------- Schedules ----------

func TestCreateSchedule_MaterializesHorizon(t *testing.T) {
	f := newScheduleFixture(t)

	ws := f.createMondaySchedule()
	if !ws.Active || ws.ID == "" {
		t.Errorf("created schedule = %+v, want active with id", ws)
	}
	if got := len(f.daySlots(mondayDate)); got != 6 {
		t.Errorf("materialized %d slots, want 6", got)
	}
}

func TestCreateSchedule_RejectsInvalidWindow(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.svc.CreateSchedule(context.Background(), models.WeeklySchedule{
		DoctorID:     "doc-1",
		DayOfWeek:    1,
		Start:        720,
		End:          540,
		SlotDuration: 30,
		MaxPerSlot:   1,
	})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestUpdateSchedule_RegeneratesOnlyEmptySlots(t *testing.T) {
	f := newScheduleFixture(t)
	ws := f.createMondaySchedule()
	booked := f.occupyFirstSlot(mondayDate)

	updated := *ws
	updated.SlotDuration = 60
	if _, err := f.svc.UpdateSchedule(context.Background(), updated); err != nil {
		t.Fatalf("updating: %v", err)
	}

	// The 30-minute grid gave 6 rows; the booked 09:00 row survives the
	// edit, the rest follow the hour grid (09:00 exists, 10:00, 11:00).
	after := f.daySlots(mondayDate)
	if len(after) != 3 {
		t.Fatalf("%d rows after update, want 3", len(after))
	}
	for _, s := range after {
		if s.ID == booked.ID {
			if s.CurrentOccupancy != 1 || s.End != booked.End {
				t.Errorf("booked row changed: %+v", s)
			}
		} else if s.End-s.Start != 60 {
			t.Errorf("regenerated row [%d, %d) not on the new grid", s.Start, s.End)
		}
	}
}

func TestDeactivateSchedule_DropsEmptySlots(t *testing.T) {
	f := newScheduleFixture(t)
	ws := f.createMondaySchedule()

	if err := f.svc.DeactivateSchedule(context.Background(), ws.ID); err != nil {
		t.Fatalf("deactivating: %v", err)
	}
	if got := len(f.daySlots(mondayDate)); got != 0 {
		t.Errorf("%d rows after deactivation, want 0", got)
	}
}

// ---------- Overrides ----------

func TestCreateOverride_ClosingBlocksExistingRows(t *testing.T) {
	f := newScheduleFixture(t)
	f.createMondaySchedule()
	f.occupyFirstSlot(mondayDate)

	ov, err := f.svc.CreateOverride(context.Background(), models.ScheduleOverride{
		DoctorID: "doc-1",
		Date:     mondayDate,
		Type:     models.OverrideHoliday,
		Reason:   "public holiday",
	})
	if err != nil {
		t.Fatalf("creating override: %v", err)
	}
	if ov.ID == "" {
		t.Error("override id not assigned")
	}

	// Every row on the date is blocked, booked ones included; none are
	// deleted here so existing appointments stay resolvable.
	rows := f.daySlots(mondayDate)
	if len(rows) != 6 {
		t.Fatalf("%d rows after closing override, want 6", len(rows))
	}
	for _, s := range rows {
		if !s.Blocked {
			t.Errorf("slot %d not blocked", s.Start)
		}
	}
}

func TestCreateOverride_SpecialHoursReplaceEmptyRows(t *testing.T) {
	f := newScheduleFixture(t)
	f.createMondaySchedule()
	start, end := 840, 960

	if _, err := f.svc.CreateOverride(context.Background(), models.ScheduleOverride{
		DoctorID: "doc-1",
		Date:     mondayDate,
		Type:     models.OverrideSpecialHours,
		Start:    &start,
		End:      &end,
	}); err != nil {
		t.Fatalf("creating override: %v", err)
	}

	rows := f.daySlots(mondayDate)
	if len(rows) != 4 {
		t.Fatalf("%d rows under special hours, want 4", len(rows))
	}
	for _, s := range rows {
		if s.Start < start || s.End > end {
			t.Errorf("slot [%d, %d) outside the special window", s.Start, s.End)
		}
	}
}

func TestCreateOverride_PastDateRejected(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.svc.CreateOverride(context.Background(), models.ScheduleOverride{
		DoctorID: "doc-1",
		Date:     "2026-02-27",
		Type:     models.OverrideHoliday,
	})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestCreateOverride_OnePerDoctorDate(t *testing.T) {
	f := newScheduleFixture(t)
	ov := models.ScheduleOverride{DoctorID: "doc-1", Date: mondayDate, Type: models.OverrideHoliday}

	if _, err := f.svc.CreateOverride(context.Background(), ov); err != nil {
		t.Fatalf("first override: %v", err)
	}
	if _, err := f.svc.CreateOverride(context.Background(), ov); !errors.Is(err, scheduleRepo.ErrOverrideExists) {
		t.Fatalf("second override error = %v, want ErrOverrideExists", err)
	}
}

func TestRemoveOverride_RestoresWeeklyPattern(t *testing.T) {
	f := newScheduleFixture(t)
	f.createMondaySchedule()

	ov, err := f.svc.CreateOverride(context.Background(), models.ScheduleOverride{
		DoctorID: "doc-1",
		Date:     mondayDate,
		Type:     models.OverrideLeave,
	})
	if err != nil {
		t.Fatalf("creating override: %v", err)
	}
	if err := f.svc.RemoveOverride(context.Background(), ov.ID); err != nil {
		t.Fatalf("removing override: %v", err)
	}

	rows := f.daySlots(mondayDate)
	if len(rows) != 6 {
		t.Fatalf("%d rows after restore, want 6", len(rows))
	}
	for _, s := range rows {
		if s.Blocked {
			t.Errorf("slot %d still blocked", s.Start)
		}
	}
}

func TestListOverrides_DefaultsToHorizon(t *testing.T) {
	f := newScheduleFixture(t)
	if _, err := f.svc.CreateOverride(context.Background(), models.ScheduleOverride{
		DoctorID: "doc-1",
		Date:     mondayDate,
		Type:     models.OverrideHoliday,
	}); err != nil {
		t.Fatalf("creating override: %v", err)
	}

	out, err := f.svc.ListOverrides(context.Background(), "doc-1", "", "")
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(out) != 1 || out[0].Date != mondayDate {
		t.Errorf("overrides = %+v", out)
	}
}

func TestRegenerateDate_ValidatesDate(t *testing.T) {
	f := newScheduleFixture(t)

	err := f.svc.RegenerateDate(context.Background(), "doc-1", "03/02/2026")
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want validation error", err)
	}
}
