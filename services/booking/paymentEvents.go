// File: services/booking/paymentEvents.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/appointment"
	"github.com/roza-in/server/utils"

	"go.uber.org/zap"
)

// ApplyPaymentEvent folds one gateway notification into booking state.
// Events are at-least-once: a duplicate success is a no-op, a success for
// an already-expired booking becomes a full-refund audit record instead of
// a resurrection, and failures leave the hold alive for a retry.
func (s *DefaultBookingService) ApplyPaymentEvent(ctx context.Context, ev models.PaymentEvent) error {
	if ev.AppointmentID == "" {
		return models.Invalidf("payment event missing appointment id")
	}

	switch ev.Status {
	case models.OrderPaid:
		return s.applyPaymentSuccess(ctx, ev.AppointmentID)
	case models.OrderFailed, models.OrderCancelled:
		// The seat hold stays until its TTL; the patient can retry payment
		// or the sweep will expire the booking.
		utils.GetLogger().Info("payment attempt did not complete",
			zap.String("appointmentId", ev.AppointmentID),
			zap.String("orderId", ev.OrderID),
			zap.String("status", string(ev.Status)))
		return nil
	default:
		return nil
	}
}

func (s *DefaultBookingService) applyPaymentSuccess(ctx context.Context, appointmentID string) error {
	appt, changed, err := s.Lifecycle.ConfirmPayment(ctx, appointmentID)
	if err != nil {
		var te *appointment.TransitionError
		if errors.As(err, &te) && te.Current == string(models.StatusCancelled) {
			// Money arrived after the booking expired or was cancelled.
			// The cancellation stands; record the full refund owed.
			rec, recErr := s.Lifecycle.RecordLatePayment(ctx, appointmentID)
			if recErr != nil {
				return fmt.Errorf("recording late payment for %s: %w", appointmentID, recErr)
			}
			utils.GetLogger().Warn("payment landed on cancelled appointment, refund recorded",
				zap.String("appointmentId", appointmentID),
				zap.String("refundId", rec.ID))
			return nil
		}
		return err
	}

	// The seat is now permanent; the hold row has done its job.
	if err := s.Reservations.Confirm(ctx, appt.SlotID, appt.ID); err != nil {
		utils.GetLogger().Error("hold cleanup after confirmation failed",
			zap.String("appointmentId", appt.ID),
			zap.String("slotId", appt.SlotID),
			zap.Error(err))
	}
	if !changed {
		return nil
	}

	s.Notifier.Notify(models.NotificationPayload{
		Event:         models.NotifyBookingConfirmed,
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		HospitalID:    appt.HospitalID,
		Date:          appt.Date,
		Start:         appt.Start,
		QueuedAt:      time.Now().UTC(),
	})
	if fireAt, ok := s.reminderTime(*appt); ok {
		s.Notifier.ScheduleReminder(models.NotificationPayload{
			Event:         models.NotifyAppointmentReminder,
			AppointmentID: appt.ID,
			PatientID:     appt.PatientID,
			DoctorID:      appt.DoctorID,
			HospitalID:    appt.HospitalID,
			Date:          appt.Date,
			Start:         appt.Start,
			QueuedAt:      time.Now().UTC(),
		}, fireAt)
	}
	utils.GetLogger().Info("appointment confirmed",
		zap.String("appointmentId", appt.ID),
		zap.String("slotId", appt.SlotID))
	return nil
}

// RetryPayment opens a fresh payment order for a booking still waiting on
// payment. The original hold must still be alive; an expired hold means the
// sweep owns the booking's fate now.
func (s *DefaultBookingService) RetryPayment(ctx context.Context, appointmentID, patientID string) (*models.BookingResult, error) {
	appt, err := s.Appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if patientID != "" && appt.PatientID != patientID {
		return nil, ErrForbidden
	}
	if appt.Status != models.StatusPendingPayment {
		return nil, ErrPaymentNotPending
	}

	res, err := s.Slots.GetReservation(ctx, appt.SlotID, appt.ID)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Expired(s.now()) {
		return nil, ErrReservationExpired
	}
	if s.Gateway == nil || !s.Gateway.Configured() {
		return nil, ErrPaymentNotConfigured
	}

	result := &models.BookingResult{
		Appointment:  *appt,
		ReservedTill: res.ExpiresAt,
	}
	s.attachPaymentOrder(ctx, result)
	if result.PaymentIssue != "" {
		return nil, &PaymentProviderError{Op: "retry order", Err: errors.New(result.PaymentIssue)}
	}
	return result, nil
}
