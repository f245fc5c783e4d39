// File: services/scheduling/generator.go
package scheduling

import (
	"sort"
	"time"

	"github.com/roza-in/server/models"
)

// window is a contiguous stretch of bookable minutes with the schedule
// parameters slots inside it inherit. breakStart/breakEnd carve out a
// non-bookable stretch; steps overlapping it are skipped, not shifted.
type window struct {
	start, end           int
	breakStart, breakEnd int // breakStart == breakEnd means no break
	schedule             models.WeeklySchedule
}

// GenerateSlots expands weekly schedules and date overrides into the slot
// set for [fromDate, toDate], both inclusive, in hospital-local terms.
//
// It is pure: same inputs produce the same (doctor, date, start, end,
// capacity) set, in date-then-start order. Slots whose start is not after
// now are dropped, so regeneration never creates bookable past slots.
// Trailing window remainders shorter than the slot duration are dropped.
func GenerateSlots(
	schedules []models.WeeklySchedule,
	overrides []models.ScheduleOverride,
	fromDate, toDate string,
	now time.Time,
	loc *time.Location,
) ([]models.Slot, error) {
	from, err := time.ParseInLocation(models.DateFormat, fromDate, loc)
	if err != nil {
		return nil, err
	}
	to, err := time.ParseInLocation(models.DateFormat, toDate, loc)
	if err != nil {
		return nil, err
	}

	byDay := make(map[int][]models.WeeklySchedule)
	for _, ws := range schedules {
		if ws.Active {
			byDay[ws.DayOfWeek] = append(byDay[ws.DayOfWeek], ws)
		}
	}
	for day := range byDay {
		rows := byDay[day]
		sort.Slice(rows, func(i, j int) bool { return rows[i].Start < rows[j].Start })
	}

	overrideByDate := make(map[string]models.ScheduleOverride, len(overrides))
	for _, ov := range overrides {
		overrideByDate[ov.Date] = ov
	}

	var out []models.Slot
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		date := day.Format(models.DateFormat)
		rows := byDay[int(day.Weekday())]
		if len(rows) == 0 {
			continue
		}

		windows := dayWindows(rows, overrideByDate[date])
		for _, w := range windows {
			out = append(out, expandWindow(w, date, day, now)...)
		}
	}
	return out, nil
}

// dayWindows resolves one date's bookable windows, with the override taking
// precedence over the weekly rows.
func dayWindows(rows []models.WeeklySchedule, ov models.ScheduleOverride) []window {
	if ov.Type != "" && ov.ClosesDay() {
		return nil
	}
	if ov.Type == models.OverrideSpecialHours {
		// Special hours replace every weekly window that date. Slot
		// parameters (duration, capacity, break) come from the day's
		// earliest schedule row.
		w := scheduleWindow(rows[0])
		w.start, w.end = *ov.Start, *ov.End
		return []window{w}
	}

	out := make([]window, 0, len(rows))
	for _, ws := range rows {
		out = append(out, scheduleWindow(ws))
	}
	return out
}

func scheduleWindow(ws models.WeeklySchedule) window {
	w := window{start: ws.Start, end: ws.End, schedule: ws}
	if ws.BreakStart != nil {
		w.breakStart, w.breakEnd = *ws.BreakStart, *ws.BreakEnd
	}
	return w
}

// expandWindow cuts a window into duration-sized steps on a fixed grid from
// the window start, dropping steps that overlap the break or whose start
// has already passed. The grid never shifts around the break, so a break
// that is not duration-aligned swallows the whole overlapping step.
func expandWindow(w window, date string, day time.Time, now time.Time) []models.Slot {
	ws := w.schedule
	var out []models.Slot
	for start := w.start; start+ws.SlotDuration <= w.end; start += ws.SlotDuration {
		end := start + ws.SlotDuration
		if w.breakStart < w.breakEnd && start < w.breakEnd && w.breakStart < end {
			continue
		}
		startsAt := day.Add(time.Duration(start) * time.Minute)
		if !startsAt.After(now) {
			continue
		}
		out = append(out, models.Slot{
			HospitalID:       ws.HospitalID,
			DoctorID:         ws.DoctorID,
			ScheduleID:       ws.ID,
			Date:             date,
			Start:            start,
			End:              end,
			MaxCapacity:      ws.MaxPerSlot,
			CurrentOccupancy: 0,
			ConsultationType: ws.ConsultationType,
			Fee:              ws.Fee,
			Currency:         ws.Currency,
			Blocked:          false,
			Version:          1,
			CreatedAt:        now.UTC(),
			UpdatedAt:        now.UTC(),
		})
	}
	return out
}
