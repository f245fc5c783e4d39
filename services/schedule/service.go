// File: services/schedule/service.go
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/roza-in/server/models"
	"github.com/roza-in/server/utils"

	"go.uber.org/zap"
)

func (s *DefaultService) CreateSchedule(ctx context.Context, ws models.WeeklySchedule) (*models.WeeklySchedule, error) {
	ws.Active = true
	if err := ws.Validate(); err != nil {
		return nil, err
	}

	id, err := s.Schedules.Create(ctx, ws)
	if err != nil {
		return nil, err
	}
	created, err := s.Schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Materialize the horizon right away so the doctor's calendar is
	// bookable without waiting for the nightly pass. A failure here only
	// delays that; the lazy path at availability reads catches up.
	if _, err := s.Materializer.EnsureDoctor(ctx, ws.DoctorID); err != nil {
		utils.GetLogger().Error("materialization after schedule create failed",
			zap.String("doctorId", ws.DoctorID),
			zap.Error(err))
	}
	return created, nil
}

func (s *DefaultService) UpdateSchedule(ctx context.Context, ws models.WeeklySchedule) (*models.WeeklySchedule, error) {
	if ws.ID == "" {
		return nil, models.Invalidf("schedule id is required")
	}
	if err := ws.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Schedules.GetByID(ctx, ws.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Schedules.Update(ctx, ws); err != nil {
		return nil, err
	}

	// Future dates on either the old or new weekday need regenerating;
	// occupied slots survive, empty ones follow the new definition.
	s.rematerializeWeekday(ctx, existing.DoctorID, existing.DayOfWeek)
	if ws.DayOfWeek != existing.DayOfWeek {
		s.rematerializeWeekday(ctx, ws.DoctorID, ws.DayOfWeek)
	}
	return s.Schedules.GetByID(ctx, ws.ID)
}

func (s *DefaultService) DeactivateSchedule(ctx context.Context, scheduleID string) error {
	existing, err := s.Schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if err := s.Schedules.Deactivate(ctx, scheduleID); err != nil {
		return err
	}
	s.rematerializeWeekday(ctx, existing.DoctorID, existing.DayOfWeek)
	return nil
}

func (s *DefaultService) GetSchedule(ctx context.Context, id string) (*models.WeeklySchedule, error) {
	return s.Schedules.GetByID(ctx, id)
}

func (s *DefaultService) ListDoctorSchedules(ctx context.Context, doctorID string) ([]models.WeeklySchedule, error) {
	return s.Schedules.GetActiveByDoctor(ctx, doctorID)
}

// CreateOverride stores a date override and applies it to the materialized
// rows immediately: closing types block every slot on the date, including
// booked ones; special hours replace the date's empty slots with the new
// window. One override per doctor per date.
func (s *DefaultService) CreateOverride(ctx context.Context, ov models.ScheduleOverride) (*models.ScheduleOverride, error) {
	if err := ov.Validate(); err != nil {
		return nil, err
	}
	if ov.Date < s.now().Format(models.DateFormat) {
		return nil, models.Invalidf("override date %s is in the past", ov.Date)
	}

	id, err := s.Schedules.CreateOverride(ctx, ov)
	if err != nil {
		return nil, err
	}
	ov.ID = id

	if ov.ClosesDay() {
		blocked, err := s.Slots.SetBlockedByDoctorDate(ctx, ov.DoctorID, ov.Date, true)
		if err != nil {
			return nil, fmt.Errorf("blocking slots for override: %w", err)
		}
		utils.GetLogger().Info("override closed date",
			zap.String("doctorId", ov.DoctorID),
			zap.String("date", ov.Date),
			zap.String("type", string(ov.Type)),
			zap.Int64("slotsBlocked", blocked))
	} else {
		if err := s.Materializer.RematerializeDate(ctx, ov.DoctorID, ov.Date); err != nil {
			return nil, fmt.Errorf("rematerializing date for special hours: %w", err)
		}
	}
	return &ov, nil
}

// RemoveOverride deletes an override and restores the date to its weekly
// pattern.
func (s *DefaultService) RemoveOverride(ctx context.Context, overrideID string) error {
	ov, err := s.Schedules.DeleteOverride(ctx, overrideID)
	if err != nil {
		return err
	}
	if err := s.Materializer.RematerializeDate(ctx, ov.DoctorID, ov.Date); err != nil {
		return fmt.Errorf("rematerializing %s after override removal: %w", ov.Date, err)
	}
	return nil
}

func (s *DefaultService) ListOverrides(ctx context.Context, doctorID, fromDate, toDate string) ([]models.ScheduleOverride, error) {
	if fromDate == "" {
		fromDate = s.now().Format(models.DateFormat)
	}
	if toDate == "" {
		toDate = s.now().AddDate(0, 0, s.Materializer.Horizon).Format(models.DateFormat)
	}
	return s.Schedules.GetOverridesInRange(ctx, doctorID, fromDate, toDate)
}

// RegenerateDate is the admin escape hatch for a date whose slot rows have
// drifted from their definition.
func (s *DefaultService) RegenerateDate(ctx context.Context, doctorID, date string) error {
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		return models.Invalidf("invalid date %q: %v", date, err)
	}
	return s.Materializer.RematerializeDate(ctx, doctorID, date)
}

// rematerializeWeekday regenerates every horizon date falling on the given
// weekday. Failures are logged per date; the nightly pass retries them.
func (s *DefaultService) rematerializeWeekday(ctx context.Context, doctorID string, dayOfWeek int) {
	day := s.now()
	for i := 0; i <= s.Materializer.Horizon; i++ {
		d := day.AddDate(0, 0, i)
		if int(d.Weekday()) != dayOfWeek {
			continue
		}
		date := d.Format(models.DateFormat)
		if err := s.Materializer.RematerializeDate(ctx, doctorID, date); err != nil {
			utils.GetLogger().Error("rematerialize after schedule change failed",
				zap.String("doctorId", doctorID),
				zap.String("date", date),
				zap.Error(err))
		}
	}
}
