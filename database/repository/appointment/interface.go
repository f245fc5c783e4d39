// File: database/repository/appointment/interface.go
package appointmentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roza-in/server/database"
	"github.com/roza-in/server/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrAppointmentNotFound means no appointment row matched the id.
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrStaleTransition means the conditional status update matched
	// nothing: another writer moved the appointment first, or the caller's
	// view of its state was out of date.
	ErrStaleTransition = errors.New("appointment state changed under transition")
)

// TransitionParams describes one guarded status move. The update only
// applies while the row still carries From; losing the race returns
// ErrStaleTransition and changes nothing.
type TransitionParams struct {
	ID          string
	From        models.AppointmentStatus
	To          models.AppointmentStatus
	Actor       string
	Reason      string
	At          time.Time
	CancelActor models.CancelActor
}

// SlotSwapParams moves an appointment onto another slot. Expected status and
// slot guard the write the same way transitions are guarded. With AdoptFee
// the appointment takes the new slot's fee and currency plus the platform
// fee the caller recomputed for it.
type SlotSwapParams struct {
	ID               string
	ExpectStatus     models.AppointmentStatus
	ExpectSlotID     string
	NewSlot          models.Slot
	ReservationToken string
	AdoptFee         bool
	PlatformFee      float64
	Actor            string
	At               time.Time
}

// AppointmentRepository persists booking records. Status moves go through
// TransitionStatus exclusively; it is the arbiter between payment
// confirmation, cancellation and the expiry sweep.
type AppointmentRepository interface {
	Create(ctx context.Context, appt models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	GetByPatient(ctx context.Context, patientID string, limit int64) ([]models.Appointment, error)
	GetByDoctorAndDate(ctx context.Context, doctorID, date string) ([]models.Appointment, error)
	SetPaymentOrder(ctx context.Context, id, orderID string) error

	TransitionStatus(ctx context.Context, p TransitionParams) error
	SwapSlot(ctx context.Context, p SlotSwapParams) error
	ListConfirmedStartedBefore(ctx context.Context, date string, startBefore int, limit int64) ([]models.Appointment, error)
}

type mongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo constructs a new MongoDB AppointmentRepository.
func NewMongoAppointmentRepo() AppointmentRepository {
	repo := &mongoAppointmentRepo{
		coll: database.DB().Collection("appointments"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}
