// File: services/scheduling/materializer.go
package scheduling

import (
	"context"
	"fmt"
	"time"

	scheduleRepo "github.com/roza-in/server/database/repository/schedule"
	slotRepo "github.com/roza-in/server/database/repository/slot"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/utils"

	"go.uber.org/zap"
)

// Materializer turns schedule definitions into stored slot rows. All writes
// go through the slot repo's keyed upsert, so re-running any range is safe:
// existing rows, their occupancy and their blocks are never touched.
type Materializer struct {
	Schedules scheduleRepo.ScheduleRepository
	Slots     slotRepo.SlotRepository
	Location  *time.Location
	Horizon   int              // days ahead of today, clamped to models.MaxHorizonDays
	Now       func() time.Time // injectable for tests
}

// NewMaterializer wires a materializer with the given horizon in days.
func NewMaterializer(schedules scheduleRepo.ScheduleRepository, slots slotRepo.SlotRepository, loc *time.Location, horizonDays int) *Materializer {
	if horizonDays <= 0 {
		horizonDays = models.DefaultHorizonDays
	}
	if horizonDays > models.MaxHorizonDays {
		horizonDays = models.MaxHorizonDays
	}
	return &Materializer{
		Schedules: schedules,
		Slots:     slots,
		Location:  loc,
		Horizon:   horizonDays,
		Now:       time.Now,
	}
}

func (m *Materializer) now() time.Time {
	if m.Now != nil {
		return m.Now().In(m.Location)
	}
	return time.Now().In(m.Location)
}

// HorizonRange returns today and the last materializable date.
func (m *Materializer) HorizonRange() (string, string) {
	today := m.now()
	return today.Format(models.DateFormat),
		today.AddDate(0, 0, m.Horizon).Format(models.DateFormat)
}

// EnsureRange materializes a doctor's slots for [fromDate, toDate], clamped
// to the horizon. Returns how many new slot rows were created.
func (m *Materializer) EnsureRange(ctx context.Context, doctorID, fromDate, toDate string) (int64, error) {
	minDate, maxDate := m.HorizonRange()
	if fromDate < minDate {
		fromDate = minDate
	}
	if toDate > maxDate {
		toDate = maxDate
	}
	if fromDate > toDate {
		return 0, nil
	}

	schedules, err := m.Schedules.GetActiveByDoctor(ctx, doctorID)
	if err != nil {
		return 0, fmt.Errorf("loading schedules for doctor %s: %w", doctorID, err)
	}
	if len(schedules) == 0 {
		return 0, nil
	}
	overrides, err := m.Schedules.GetOverridesInRange(ctx, doctorID, fromDate, toDate)
	if err != nil {
		return 0, fmt.Errorf("loading overrides for doctor %s: %w", doctorID, err)
	}

	slots, err := GenerateSlots(schedules, overrides, fromDate, toDate, m.now(), m.Location)
	if err != nil {
		return 0, fmt.Errorf("generating slots for doctor %s: %w", doctorID, err)
	}

	created, err := m.Slots.UpsertGenerated(ctx, slots)
	if err != nil {
		return 0, err
	}
	if created > 0 {
		utils.GetLogger().Info("materialized slots",
			zap.String("doctorId", doctorID),
			zap.String("from", fromDate),
			zap.String("to", toDate),
			zap.Int64("created", created))
	}
	return created, nil
}

// EnsureDoctor materializes the full horizon for one doctor.
func (m *Materializer) EnsureDoctor(ctx context.Context, doctorID string) (int64, error) {
	from, to := m.HorizonRange()
	return m.EnsureRange(ctx, doctorID, from, to)
}

// RematerializeDate regenerates one date after an override is removed or a
// schedule edited: unblocks the day, prunes empty rows the new definition
// no longer produces, then upserts the current expansion. If an override
// still closes the date, the day stays blocked and only empty rows go.
func (m *Materializer) RematerializeDate(ctx context.Context, doctorID, date string) error {
	ov, err := m.Schedules.GetOverride(ctx, doctorID, date)
	if err != nil {
		return fmt.Errorf("checking override for %s on %s: %w", doctorID, date, err)
	}
	if ov != nil && ov.ClosesDay() {
		if _, err := m.Slots.SetBlockedByDoctorDate(ctx, doctorID, date, true); err != nil {
			return err
		}
		_, err := m.Slots.DeleteEmptyByDoctorDate(ctx, doctorID, date)
		return err
	}

	if _, err := m.Slots.SetBlockedByDoctorDate(ctx, doctorID, date, false); err != nil {
		return err
	}
	if _, err := m.Slots.DeleteEmptyByDoctorDate(ctx, doctorID, date); err != nil {
		return err
	}
	_, err = m.EnsureRange(ctx, doctorID, date, date)
	return err
}
