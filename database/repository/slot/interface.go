// File: database/repository/slot/interface.go
package slotRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roza-in/server/database"
	"github.com/roza-in/server/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// Sentinel errors surfaced by conditional writes. Callers classify them
// into API-facing failures after a follow-up read.
var (
	// ErrSlotNotFound means no slot row matched the id.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrSeatUnavailable means the conditional occupancy increment matched
	// nothing: the slot is blocked, missing, or at capacity.
	ErrSeatUnavailable = errors.New("no seat available on slot")
	// ErrDuplicateHold means this holder already has a live reservation on
	// the slot.
	ErrDuplicateHold = errors.New("holder already has a reservation on slot")
)

// SlotRepository persists slot rows and the reservation holds against them.
// TryAcquireSeat and ReleaseSeat are single conditional writes; they are the
// only places occupancy moves, so capacity can never be oversold no matter
// how many processes race.
type SlotRepository interface {
	UpsertGenerated(ctx context.Context, slots []models.Slot) (int64, error)
	GetByID(ctx context.Context, slotID string) (*models.Slot, error)
	GetByDoctorAndDate(ctx context.Context, doctorID, date string) ([]models.Slot, error)
	ListOpen(ctx context.Context, doctorID, fromDate, toDate string) ([]models.Slot, error)
	SetBlocked(ctx context.Context, slotID string, blocked bool) error
	SetBlockedByDoctorDate(ctx context.Context, doctorID, date string, blocked bool) (int64, error)
	DeleteEmptyByDoctorDate(ctx context.Context, doctorID, date string) (int64, error)

	TryAcquireSeat(ctx context.Context, slotID string) error
	ReleaseSeat(ctx context.Context, slotID string) error

	InsertReservation(ctx context.Context, res models.Reservation) error
	GetReservation(ctx context.Context, slotID, holderToken string) (*models.Reservation, error)
	DeleteReservation(ctx context.Context, slotID, holderToken string) (bool, error)
	ListExpiredReservations(ctx context.Context, now time.Time, limit int64) ([]models.Reservation, error)
	CountLiveReservations(ctx context.Context, slotID string, now time.Time) (int64, error)
	CountHolds(ctx context.Context, slotID string) (int64, error)
}

type mongoSlotRepo struct {
	slots        *mongo.Collection
	reservations *mongo.Collection
}

// NewMongoSlotRepo constructs a new MongoDB SlotRepository.
func NewMongoSlotRepo() SlotRepository {
	db := database.DB()
	repo := &mongoSlotRepo{
		slots:        db.Collection("slots"),
		reservations: db.Collection("slot_reservations"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}
