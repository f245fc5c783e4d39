package models

import (
	"errors"
	"strings"
	"testing"
)

func validWeekly() WeeklySchedule {
	return WeeklySchedule{
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
	}
}

func TestWeeklyScheduleValidate(t *testing.T) {
	withBreak := func(bs, be int) func(*WeeklySchedule) {
		return func(ws *WeeklySchedule) { ws.BreakStart, ws.BreakEnd = &bs, &be }
	}

	tests := []struct {
		name    string
		mutate  func(*WeeklySchedule)
		wantErr string
	}{
		{"valid", func(ws *WeeklySchedule) {}, ""},
		{"valid with break", withBreak(600, 630), ""},
		{"missing doctor", func(ws *WeeklySchedule) { ws.DoctorID = "" }, "doctor id"},
		{"weekday below range", func(ws *WeeklySchedule) { ws.DayOfWeek = -1 }, "day_of_week"},
		{"weekday above range", func(ws *WeeklySchedule) { ws.DayOfWeek = 7 }, "day_of_week"},
		{"negative start", func(ws *WeeklySchedule) { ws.Start = -10 }, "window"},
		{"end past midnight", func(ws *WeeklySchedule) { ws.End = 1441 }, "window"},
		{"empty window", func(ws *WeeklySchedule) { ws.Start, ws.End = 540, 540 }, "window"},
		{"duration too short", func(ws *WeeklySchedule) { ws.SlotDuration = 4 }, "slot duration"},
		{"duration too long", func(ws *WeeklySchedule) { ws.SlotDuration = 481 }, "slot duration"},
		{"zero capacity", func(ws *WeeklySchedule) { ws.MaxPerSlot = 0 }, "max_per_slot"},
		{"capacity above cap", func(ws *WeeklySchedule) { ws.MaxPerSlot = 101 }, "max_per_slot"},
		{"break start without end", func(ws *WeeklySchedule) { bs := 600; ws.BreakStart = &bs }, "set together"},
		{"inverted break", withBreak(630, 600), "break window"},
		{"break before opening", withBreak(500, 560), "within the schedule window"},
		{"break past closing", withBreak(700, 740), "within the schedule window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := validWeekly()
			tt.mutate(&ws)
			err := ws.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestScheduleOverrideValidate(t *testing.T) {
	window := func(s, e int) (*int, *int) { return &s, &e }

	base := ScheduleOverride{DoctorID: "doc-1", Date: "2026-03-02"}
	tests := []struct {
		name    string
		mutate  func(*ScheduleOverride)
		wantErr string
	}{
		{"holiday", func(ov *ScheduleOverride) { ov.Type = OverrideHoliday }, ""},
		{"leave", func(ov *ScheduleOverride) { ov.Type = OverrideLeave }, ""},
		{"emergency", func(ov *ScheduleOverride) { ov.Type = OverrideEmergency }, ""},
		{"special hours", func(ov *ScheduleOverride) {
			ov.Type = OverrideSpecialHours
			ov.Start, ov.End = window(840, 960)
		}, ""},
		{"missing doctor", func(ov *ScheduleOverride) { ov.Type = OverrideHoliday; ov.DoctorID = "" }, "doctor id"},
		{"unparseable date", func(ov *ScheduleOverride) { ov.Type = OverrideHoliday; ov.Date = "02/03/2026" }, "invalid override date"},
		{"holiday carrying hours", func(ov *ScheduleOverride) {
			ov.Type = OverrideHoliday
			ov.Start, ov.End = window(540, 720)
		}, "must not carry hours"},
		{"special hours without window", func(ov *ScheduleOverride) { ov.Type = OverrideSpecialHours }, "requires start and end"},
		{"special hours inverted", func(ov *ScheduleOverride) {
			ov.Type = OverrideSpecialHours
			ov.Start, ov.End = window(960, 840)
		}, "is invalid"},
		{"unknown type", func(ov *ScheduleOverride) { ov.Type = "sabbatical" }, "unknown override type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ov := base
			tt.mutate(&ov)
			err := ov.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
