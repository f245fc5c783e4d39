// File: services/schedule/interface.go
package schedule

import (
	"context"
	"time"

	scheduleRepo "github.com/roza-in/server/database/repository/schedule"
	slotRepo "github.com/roza-in/server/database/repository/slot"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/scheduling"
)

// Service manages doctors' weekly schedules and their date overrides, and
// keeps the materialized slot rows in step with every change. Occupied
// slots are never deleted by any operation here; existing appointments ride
// out schedule churn untouched.
type Service interface {
	CreateSchedule(ctx context.Context, ws models.WeeklySchedule) (*models.WeeklySchedule, error)
	UpdateSchedule(ctx context.Context, ws models.WeeklySchedule) (*models.WeeklySchedule, error)
	DeactivateSchedule(ctx context.Context, scheduleID string) error
	GetSchedule(ctx context.Context, id string) (*models.WeeklySchedule, error)
	ListDoctorSchedules(ctx context.Context, doctorID string) ([]models.WeeklySchedule, error)

	CreateOverride(ctx context.Context, ov models.ScheduleOverride) (*models.ScheduleOverride, error)
	RemoveOverride(ctx context.Context, overrideID string) error
	ListOverrides(ctx context.Context, doctorID, fromDate, toDate string) ([]models.ScheduleOverride, error)

	RegenerateDate(ctx context.Context, doctorID, date string) error
}

// DefaultService implements Service.
type DefaultService struct {
	Schedules    scheduleRepo.ScheduleRepository
	Slots        slotRepo.SlotRepository
	Materializer *scheduling.Materializer
	Location     *time.Location
	Now          func() time.Time // injectable for tests
}

// NewService wires the default implementation.
func NewService(schedules scheduleRepo.ScheduleRepository, slots slotRepo.SlotRepository, mat *scheduling.Materializer, loc *time.Location) *DefaultService {
	return &DefaultService{
		Schedules:    schedules,
		Slots:        slots,
		Materializer: mat,
		Location:     loc,
		Now:          time.Now,
	}
}

func (s *DefaultService) now() time.Time {
	if s.Now != nil {
		return s.Now().In(s.Location)
	}
	return time.Now().In(s.Location)
}
