// File: services/booking/interface.go
package booking

import (
	"context"
	"time"

	appointmentRepo "github.com/roza-in/server/database/repository/appointment"
	slotRepo "github.com/roza-in/server/database/repository/slot"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/appointment"
	"github.com/roza-in/server/services/notification"
	"github.com/roza-in/server/services/scheduling"

	"github.com/go-redis/redis/v8"
)

// BookingService is the patient-facing engine: browse open slots, hold a
// seat, pay, and manage the resulting appointment. All mutations are safe
// to retry and safe to run from many service instances at once.
type BookingService interface {
	ListAvailableSlots(ctx context.Context, doctorID, fromDate, toDate string) ([]models.AvailableSlot, error)
	Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error)
	RetryPayment(ctx context.Context, appointmentID, patientID string) (*models.BookingResult, error)
	Cancel(ctx context.Context, req models.CancelRequest) (*models.CancelResult, error)
	Reschedule(ctx context.Context, req models.RescheduleRequest) (*models.BookingResult, error)
	ApplyPaymentEvent(ctx context.Context, ev models.PaymentEvent) error
	SweepExpired(ctx context.Context, limit int64) (int, error)
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Slots        slotRepo.SlotRepository
	Appointments appointmentRepo.AppointmentRepository
	Reservations *ReservationManager
	Lifecycle    appointment.Service
	Gateway      PaymentGateway
	Notifier     notification.Service
	Idempotency  IdempotencyStore
	Materializer *scheduling.Materializer

	// Cache holds the short-lived availability read cache; nil disables it.
	Cache *redis.Client

	Location           *time.Location
	PlatformFeePercent float64
	ReminderLead       time.Duration
	Now                func() time.Time // injectable for tests
}

// NewBookingService wires the default implementation.
func NewBookingService(
	slots slotRepo.SlotRepository,
	appointments appointmentRepo.AppointmentRepository,
	reservations *ReservationManager,
	lifecycle appointment.Service,
	gateway PaymentGateway,
	notifier notification.Service,
	idempotency IdempotencyStore,
	materializer *scheduling.Materializer,
	cache *redis.Client,
	loc *time.Location,
	platformFeePercent float64,
	reminderLead time.Duration,
) *DefaultBookingService {
	return &DefaultBookingService{
		Slots:              slots,
		Appointments:       appointments,
		Reservations:       reservations,
		Lifecycle:          lifecycle,
		Gateway:            gateway,
		Notifier:           notifier,
		Idempotency:        idempotency,
		Materializer:       materializer,
		Cache:              cache,
		Location:           loc,
		PlatformFeePercent: platformFeePercent,
		ReminderLead:       reminderLead,
		Now:                time.Now,
	}
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
