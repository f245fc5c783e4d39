// File: services/booking/sweep.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentRepo "github.com/roza-in/server/database/repository/appointment"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/appointment"
	"github.com/roza-in/server/utils"

	"go.uber.org/zap"
)

// ReasonPaymentTimeout is stamped on bookings the expiry sweep cancels.
const ReasonPaymentTimeout = "payment timeout"

// SweepExpired reclaims seats behind lapsed reservation holds. Every branch
// is idempotent and guarded by conditional writes, so any number of service
// instances can sweep concurrently; at-most-one of them wins each row.
// Returns how many seats were actually freed.
func (s *DefaultBookingService) SweepExpired(ctx context.Context, limit int64) (int, error) {
	expired, err := s.Slots.ListExpiredReservations(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("listing expired reservations: %w", err)
	}

	logger := utils.GetLogger()
	released := 0
	for _, res := range expired {
		freed, err := s.sweepOne(ctx, res)
		if err != nil {
			logger.Warn("expiry sweep item failed",
				zap.String("slotId", res.SlotID),
				zap.String("holder", res.HolderToken),
				zap.Error(err))
			continue
		}
		if freed {
			released++
		}
	}
	if released > 0 {
		logger.Info("expiry sweep released seats", zap.Int("count", released))
	}
	return released, nil
}

// sweepOne settles a single expired hold. The holder token is the
// appointment id, so the hold's fate follows the appointment's state.
func (s *DefaultBookingService) sweepOne(ctx context.Context, res models.Reservation) (bool, error) {
	appt, err := s.Appointments.GetByID(ctx, res.HolderToken)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			// Orphan hold: the booking died before its appointment row
			// landed. Nothing references this seat; give it back.
			return s.Reservations.Release(ctx, res.SlotID, res.HolderToken)
		}
		return false, err
	}

	if appt.SlotID != res.SlotID {
		// Reschedule leftover: the appointment moved to another slot and
		// the old seat's release never landed.
		return s.Reservations.Release(ctx, res.SlotID, res.HolderToken)
	}

	switch appt.Status {
	case models.StatusPendingPayment:
		return s.expirePending(ctx, res, appt)
	case models.StatusCancelled, models.StatusNoShow:
		// A cancel won the status race but crashed before releasing.
		return s.Reservations.Release(ctx, res.SlotID, res.HolderToken)
	default:
		// Confirmed or beyond with a leftover row: confirmation missed its
		// cleanup. The seat is rightfully occupied; only the row goes.
		return false, s.Reservations.Confirm(ctx, res.SlotID, res.HolderToken)
	}
}

func (s *DefaultBookingService) expirePending(ctx context.Context, res models.Reservation, appt *models.Appointment) (bool, error) {
	// Last look before taking the seat: money may have been captured
	// without the webhook ever reaching us.
	if s.Gateway != nil && s.Gateway.Configured() && appt.PaymentOrderID != "" {
		order, err := s.Gateway.FetchOrder(ctx, appt.PaymentOrderID)
		switch {
		case err != nil:
			// Expire anyway; if money did land, the late-payment branch
			// turns it into a full refund record on the next event.
			utils.GetLogger().Warn("gateway poll before expiry failed",
				zap.String("appointmentId", appt.ID),
				zap.String("orderId", appt.PaymentOrderID),
				zap.Error(err))
		case order.Status == models.OrderPaid:
			return false, s.applyPaymentSuccess(ctx, appt.ID)
		}
	}

	_, err := s.Lifecycle.CancelPending(ctx, appt.ID, models.CancelBySystem, "sweeper", ReasonPaymentTimeout)
	if err != nil {
		var te *appointment.TransitionError
		if !errors.As(err, &te) {
			return false, err
		}
		switch te.Current {
		case string(models.StatusConfirmed), string(models.StatusCheckedIn), string(models.StatusCompleted):
			// Payment confirmed the appointment mid-sweep; keep the seat.
			return false, s.Reservations.Confirm(ctx, res.SlotID, res.HolderToken)
		case string(models.StatusCancelled), string(models.StatusNoShow):
			return s.Reservations.Release(ctx, res.SlotID, res.HolderToken)
		default:
			return false, nil
		}
	}

	freed, err := s.Reservations.Release(ctx, res.SlotID, res.HolderToken)
	if err != nil {
		return false, err
	}

	s.invalidateAvailability(ctx, appt.DoctorID)
	s.Notifier.Notify(models.NotificationPayload{
		Event:         models.NotifyBookingExpired,
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		HospitalID:    appt.HospitalID,
		Date:          appt.Date,
		Start:         appt.Start,
		Detail:        map[string]string{"reason": ReasonPaymentTimeout},
		QueuedAt:      time.Now().UTC(),
	})
	return freed, nil
}
