// File: services/booking/cancel.go
package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roza-in/server/models"
	"github.com/roza-in/server/utils"

	"go.uber.org/zap"
)

// Cancel ends an appointment on behalf of the given actor. The status
// transition is the arbiter: whoever wins it owns the seat release and, for
// paid bookings, the refund record. A second cancel loses the transition
// and gets a state conflict, not a double refund.
func (s *DefaultBookingService) Cancel(ctx context.Context, req models.CancelRequest) (*models.CancelResult, error) {
	if req.AppointmentID == "" {
		return nil, models.Invalidf("cancel request missing appointment id")
	}
	if req.Actor == "" {
		req.Actor = models.CancelByPatient
	}
	if req.IdempotencyKey == "" {
		return s.cancel(ctx, req)
	}

	key := "cancel:" + req.IdempotencyKey
	cached, acquired, err := s.Idempotency.Begin(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if !acquired {
		if cached == nil {
			return nil, ErrRequestInFlight
		}
		var out models.CancelResult
		if err := json.Unmarshal(cached, &out); err != nil {
			return nil, fmt.Errorf("replaying cancel result: %w", err)
		}
		return &out, nil
	}

	result, err := s.cancel(ctx, req)
	if err != nil {
		if fErr := s.Idempotency.Forget(ctx, key); fErr != nil {
			utils.GetLogger().Warn("idempotency key release failed",
				zap.String("key", key), zap.Error(fErr))
		}
		return nil, err
	}
	if b, mErr := json.Marshal(result); mErr == nil {
		if cErr := s.Idempotency.Complete(ctx, key, b); cErr != nil {
			utils.GetLogger().Warn("idempotency result store failed",
				zap.String("key", key), zap.Error(cErr))
		}
	}
	return result, nil
}

func (s *DefaultBookingService) cancel(ctx context.Context, req models.CancelRequest) (*models.CancelResult, error) {
	appt, err := s.Appointments.GetByID(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if req.Actor == models.CancelByPatient && req.ActorID != "" && appt.PatientID != req.ActorID {
		return nil, ErrForbidden
	}

	switch appt.Status {
	case models.StatusPendingPayment:
		return s.cancelPending(ctx, req)
	default:
		// Everything else goes through the confirmed path; non-cancellable
		// states lose the guarded transition and surface as a conflict.
		return s.cancelConfirmed(ctx, req)
	}
}

func (s *DefaultBookingService) cancelPending(ctx context.Context, req models.CancelRequest) (*models.CancelResult, error) {
	appt, err := s.Lifecycle.CancelPending(ctx, req.AppointmentID, req.Actor, req.ActorID, req.Reason)
	if err != nil {
		return nil, err
	}

	if _, relErr := s.Reservations.Release(ctx, appt.SlotID, appt.ID); relErr != nil {
		utils.GetLogger().Error("seat release after pending cancel failed",
			zap.String("appointmentId", appt.ID),
			zap.String("slotId", appt.SlotID),
			zap.Error(relErr))
	}
	s.afterCancel(ctx, appt, nil)
	return &models.CancelResult{Appointment: *appt}, nil
}

func (s *DefaultBookingService) cancelConfirmed(ctx context.Context, req models.CancelRequest) (*models.CancelResult, error) {
	appt, refund, err := s.Lifecycle.CancelConfirmed(ctx, req.AppointmentID, req.Actor, req.ActorID, req.Reason)
	if err != nil {
		return nil, err
	}

	if relErr := s.Reservations.ReleaseConfirmed(ctx, appt.SlotID, appt.ID); relErr != nil {
		// The appointment is cancelled either way; a leaked seat on a past
		// or missing slot is harmless, anything else needs eyes on it.
		utils.GetLogger().Error("seat release after confirmed cancel failed",
			zap.String("appointmentId", appt.ID),
			zap.String("slotId", appt.SlotID),
			zap.Error(relErr))
	}
	s.afterCancel(ctx, appt, refund)
	return &models.CancelResult{Appointment: *appt, Refund: refund}, nil
}

func (s *DefaultBookingService) afterCancel(ctx context.Context, appt *models.Appointment, refund *models.RefundRecord) {
	s.invalidateAvailability(ctx, appt.DoctorID)

	detail := map[string]string{"reason": appt.CancelReason}
	if refund != nil {
		detail["refund_type"] = string(refund.Type)
		detail["refund_percent"] = fmt.Sprintf("%d", refund.Percent)
		detail["refund_amount"] = fmt.Sprintf("%.2f", refund.Amount)
	}
	s.Notifier.Notify(models.NotificationPayload{
		Event:         models.NotifyBookingCancelled,
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		HospitalID:    appt.HospitalID,
		Date:          appt.Date,
		Start:         appt.Start,
		Detail:        detail,
		QueuedAt:      time.Now().UTC(),
	})
	if refund != nil && refund.Percent > 0 {
		s.Notifier.Notify(models.NotificationPayload{
			Event:         models.NotifyRefundProcessed,
			AppointmentID: appt.ID,
			PatientID:     appt.PatientID,
			DoctorID:      appt.DoctorID,
			HospitalID:    appt.HospitalID,
			Date:          appt.Date,
			Start:         appt.Start,
			Detail: map[string]string{
				"refund_id":     refund.ID,
				"refund_amount": fmt.Sprintf("%.2f", refund.Amount),
				"currency":      refund.Currency,
			},
			QueuedAt: time.Now().UTC(),
		})
	}
}
