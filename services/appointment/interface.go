// File: services/appointment/interface.go
package appointment

import (
	"context"
	"time"

	appointmentRepo "github.com/roza-in/server/database/repository/appointment"
	refundRepo "github.com/roza-in/server/database/repository/refund"

	"github.com/roza-in/server/models"
)

// Service is the appointment lifecycle state machine. Every mutation is a
// guarded transition: the expected current status travels inside the store
// write, so of all concurrent movers (payment confirmation, cancellation,
// the sweeps) exactly one wins and the rest get a TransitionError. Seat
// bookkeeping on the slot is the booking layer's job; this service only
// moves appointment rows and owns the refund policy.
type Service interface {
	Get(ctx context.Context, id string) (*models.Appointment, error)
	ListForPatient(ctx context.Context, patientID string, limit int64) ([]models.Appointment, error)
	ListForDoctorDay(ctx context.Context, doctorID, date string) ([]models.Appointment, error)

	// ConfirmPayment moves pending_payment to confirmed. Duplicate
	// confirmations are a no-op, reported through changed=false.
	ConfirmPayment(ctx context.Context, id string) (appt *models.Appointment, changed bool, err error)

	CancelPending(ctx context.Context, id string, actor models.CancelActor, actorID, reason string) (*models.Appointment, error)

	// CancelConfirmed cancels a paid appointment and persists the refund
	// the policy grants before returning.
	CancelConfirmed(ctx context.Context, id string, actor models.CancelActor, actorID, reason string) (*models.Appointment, *models.RefundRecord, error)

	CheckIn(ctx context.Context, id, actorID string) (*models.Appointment, error)
	Complete(ctx context.Context, id, actorID string) (*models.Appointment, error)
	MarkNoShow(ctx context.Context, id string) error

	// SweepNoShows marks confirmed appointments whose start passed the
	// grace window without a check-in. Returns how many were marked.
	SweepNoShows(ctx context.Context, limit int64) (int, error)

	// RecordLatePayment writes the full-refund record for money captured
	// after the booking already expired.
	RecordLatePayment(ctx context.Context, id string) (*models.RefundRecord, error)

	// Refund exposes the pure policy for callers that need the outcome
	// without cancelling (e.g. a "what would I get back" preview).
	Refund(appt models.Appointment, actor models.CancelActor, now time.Time) RefundDecision
}

// DefaultService is the production implementation.
type DefaultService struct {
	Appointments appointmentRepo.AppointmentRepository
	Refunds      refundRepo.RefundRepository
	Policy       RefundPolicy
	Location     *time.Location
	NoShowGrace  time.Duration
	Now          func() time.Time // injectable for tests
}

// NewService wires the lifecycle with its repositories and policy.
func NewService(appts appointmentRepo.AppointmentRepository, refunds refundRepo.RefundRepository, policy RefundPolicy, loc *time.Location, noShowGrace time.Duration) *DefaultService {
	if noShowGrace <= 0 {
		noShowGrace = 30 * time.Minute
	}
	return &DefaultService{
		Appointments: appts,
		Refunds:      refunds,
		Policy:       policy,
		Location:     loc,
		NoShowGrace:  noShowGrace,
		Now:          time.Now,
	}
}

func (s *DefaultService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
