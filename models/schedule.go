package models

import (
	"time"
)

// OverrideType classifies a date-specific departure from a doctor's weekly schedule.
type OverrideType string

const (
	OverrideHoliday      OverrideType = "holiday"
	OverrideLeave        OverrideType = "leave"
	OverrideEmergency    OverrideType = "emergency"
	OverrideSpecialHours OverrideType = "special_hours"
)

// WeeklySchedule is a doctor's recurring availability for one weekday.
// Start, End and the break bounds are minutes from midnight (e.g. 540 for 9:00 AM),
// matching the slot encoding used across the engine.
type WeeklySchedule struct {
	ID               string    `bson:"id" json:"id"`
	HospitalID       string    `bson:"hospital_id" json:"hospital_id"`
	DoctorID         string    `bson:"doctor_id" json:"doctor_id"`
	DayOfWeek        int       `bson:"day_of_week" json:"day_of_week"` // 0=Sunday .. 6=Saturday
	Start            int       `bson:"start" json:"start"`
	End              int       `bson:"end" json:"end"`
	BreakStart       *int      `bson:"break_start,omitempty" json:"break_start,omitempty"`
	BreakEnd         *int      `bson:"break_end,omitempty" json:"break_end,omitempty"`
	SlotDuration     int       `bson:"slot_duration" json:"slot_duration"` // minutes
	MaxPerSlot       int       `bson:"max_per_slot" json:"max_per_slot"`
	ConsultationType string    `bson:"consultation_type" json:"consultation_type"` // e.g. "in_person", "video"
	Fee              float64   `bson:"fee" json:"fee"`
	Currency         string    `bson:"currency" json:"currency"`
	Active           bool      `bson:"active" json:"active"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

// Validate checks the invariants an admin-created schedule must satisfy.
func (ws WeeklySchedule) Validate() error {
	if ws.DoctorID == "" {
		return Invalidf("doctor id is required")
	}
	if ws.DayOfWeek < 0 || ws.DayOfWeek > 6 {
		return Invalidf("day_of_week must be 0-6; got %d", ws.DayOfWeek)
	}
	if ws.Start < 0 || ws.End > MinutesPerDay || ws.Start >= ws.End {
		return Invalidf("schedule window [%d, %d) is invalid", ws.Start, ws.End)
	}
	if ws.SlotDuration < MinSlotDurationMinutes || ws.SlotDuration > MaxSlotDurationMinutes {
		return Invalidf("slot duration %d outside [%d, %d] minutes",
			ws.SlotDuration, MinSlotDurationMinutes, MaxSlotDurationMinutes)
	}
	if ws.MaxPerSlot < MinCapacityPerSlot || ws.MaxPerSlot > MaxCapacityPerSlot {
		return Invalidf("max_per_slot %d outside [%d, %d]", ws.MaxPerSlot, MinCapacityPerSlot, MaxCapacityPerSlot)
	}
	if (ws.BreakStart == nil) != (ws.BreakEnd == nil) {
		return Invalidf("break_start and break_end must be set together")
	}
	if ws.BreakStart != nil {
		bs, be := *ws.BreakStart, *ws.BreakEnd
		if bs >= be {
			return Invalidf("break window [%d, %d) is invalid", bs, be)
		}
		if bs < ws.Start || be > ws.End {
			return Invalidf("break [%d, %d) must lie within the schedule window [%d, %d)", bs, be, ws.Start, ws.End)
		}
	}
	return nil
}

// ScheduleOverride suspends or replaces the weekly schedule for one calendar date.
// For holiday, leave and emergency no slots exist on the date regardless of the
// weekly rows; special_hours substitutes the Start/End window for that date only.
type ScheduleOverride struct {
	ID         string       `bson:"id" json:"id"`
	HospitalID string       `bson:"hospital_id" json:"hospital_id"`
	DoctorID   string       `bson:"doctor_id" json:"doctor_id"`
	Date       string       `bson:"date" json:"date"` // "2006-01-02"
	Type       OverrideType `bson:"type" json:"type"`
	Start      *int         `bson:"start,omitempty" json:"start,omitempty"` // special_hours only
	End        *int         `bson:"end,omitempty" json:"end,omitempty"`
	Reason     string       `bson:"reason" json:"reason"`
	CreatedBy  string       `bson:"created_by" json:"created_by"`
	CreatedAt  time.Time    `bson:"created_at" json:"created_at"`
}

// ClosesDay reports whether the override removes the whole date from booking.
func (so ScheduleOverride) ClosesDay() bool {
	switch so.Type {
	case OverrideHoliday, OverrideLeave, OverrideEmergency:
		return true
	}
	return false
}

// Validate checks structural invariants before an override is stored.
func (so ScheduleOverride) Validate() error {
	if so.DoctorID == "" {
		return Invalidf("doctor id is required")
	}
	if _, err := time.Parse(DateFormat, so.Date); err != nil {
		return Invalidf("invalid override date %q: %v", so.Date, err)
	}
	switch so.Type {
	case OverrideHoliday, OverrideLeave, OverrideEmergency:
		if so.Start != nil || so.End != nil {
			return Invalidf("%s override must not carry hours", so.Type)
		}
	case OverrideSpecialHours:
		if so.Start == nil || so.End == nil {
			return Invalidf("special_hours override requires start and end")
		}
		if *so.Start < 0 || *so.End > MinutesPerDay || *so.Start >= *so.End {
			return Invalidf("special hours window [%d, %d) is invalid", *so.Start, *so.End)
		}
	default:
		return Invalidf("unknown override type %q", so.Type)
	}
	return nil
}
