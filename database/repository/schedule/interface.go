// File: database/repository/schedule/interface.go
package scheduleRepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/roza-in/server/database"
	"github.com/roza-in/server/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrScheduleNotFound means no weekly schedule row matched.
	ErrScheduleNotFound = errors.New("schedule not found")
	// ErrOverrideNotFound means no override row matched.
	ErrOverrideNotFound = errors.New("override not found")
	// ErrOverrideExists means the doctor already has an override on the date.
	ErrOverrideExists = errors.New("override already exists for date")
)

// ScheduleRepository persists weekly schedules and their date overrides.
type ScheduleRepository interface {
	Create(ctx context.Context, ws models.WeeklySchedule) (string, error)
	Update(ctx context.Context, ws models.WeeklySchedule) error
	Deactivate(ctx context.Context, scheduleID string) error
	GetByID(ctx context.Context, id string) (*models.WeeklySchedule, error)
	GetActiveByDoctor(ctx context.Context, doctorID string) ([]models.WeeklySchedule, error)
	ListActiveDoctorIDs(ctx context.Context) ([]string, error)

	CreateOverride(ctx context.Context, ov models.ScheduleOverride) (string, error)
	DeleteOverride(ctx context.Context, overrideID string) (*models.ScheduleOverride, error)
	GetOverride(ctx context.Context, doctorID, date string) (*models.ScheduleOverride, error)
	GetOverridesInRange(ctx context.Context, doctorID, fromDate, toDate string) ([]models.ScheduleOverride, error)
}

type mongoScheduleRepo struct {
	schedules *mongo.Collection
	overrides *mongo.Collection
}

// NewMongoScheduleRepo constructs a new MongoDB ScheduleRepository.
func NewMongoScheduleRepo() ScheduleRepository {
	db := database.DB()
	repo := &mongoScheduleRepo{
		schedules: db.Collection("weekly_schedules"),
		overrides: db.Collection("schedule_overrides"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}
