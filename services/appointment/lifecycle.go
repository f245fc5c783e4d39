// File: services/appointment/lifecycle.go
package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentRepo "github.com/roza-in/server/database/repository/appointment"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/utils"

	"go.uber.org/zap"
)

// ReasonNoShow is recorded when the no-show sweep marks an appointment.
const ReasonNoShow = "missed without check-in"

func (s *DefaultService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return s.Appointments.GetByID(ctx, id)
}

func (s *DefaultService) ListForPatient(ctx context.Context, patientID string, limit int64) ([]models.Appointment, error) {
	return s.Appointments.GetByPatient(ctx, patientID, limit)
}

func (s *DefaultService) ListForDoctorDay(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
	return s.Appointments.GetByDoctorAndDate(ctx, doctorID, date)
}

// transition attempts one guarded status move. Losing the conditional write
// is translated into a TransitionError naming the state the row actually
// holds, so callers and clients see exactly which race they lost.
func (s *DefaultService) transition(ctx context.Context, id string, from, to models.AppointmentStatus, actor models.CancelActor, actorID, reason string) (*models.Appointment, error) {
	err := s.Appointments.TransitionStatus(ctx, appointmentRepo.TransitionParams{
		ID:          id,
		From:        from,
		To:          to,
		Actor:       actorID,
		Reason:      reason,
		At:          s.now().UTC(),
		CancelActor: actor,
	})
	if err == nil {
		return s.Appointments.GetByID(ctx, id)
	}
	if !errors.Is(err, appointmentRepo.ErrStaleTransition) {
		return nil, err
	}

	appt, getErr := s.Appointments.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &TransitionError{
		AppointmentID: id,
		Current:       string(appt.Status),
		Requested:     string(to),
	}
}

// ConfirmPayment moves pending_payment to confirmed on a payment-success
// signal. Webhooks redeliver, so a duplicate signal for an appointment
// that already took the payment (confirmed, or checked in or completed
// since) is a successful no-op, not an error; any other current state is
// a conflict.
func (s *DefaultService) ConfirmPayment(ctx context.Context, id string) (*models.Appointment, bool, error) {
	appt, err := s.transition(ctx, id, models.StatusPendingPayment, models.StatusConfirmed, "", "payment", "payment confirmed")
	if err == nil {
		return appt, true, nil
	}

	var te *TransitionError
	if errors.As(err, &te) {
		switch te.Current {
		case string(models.StatusConfirmed), string(models.StatusCheckedIn), string(models.StatusCompleted):
			current, getErr := s.Appointments.GetByID(ctx, id)
			if getErr != nil {
				return nil, false, getErr
			}
			return current, false, nil
		}
	}
	return nil, false, err
}

func (s *DefaultService) CancelPending(ctx context.Context, id string, actor models.CancelActor, actorID, reason string) (*models.Appointment, error) {
	if reason == "" {
		reason = fmt.Sprintf("cancelled by %s", actor)
	}
	return s.transition(ctx, id, models.StatusPendingPayment, models.StatusCancelled, actor, actorID, reason)
}

// CancelConfirmed cancels a paid appointment. The refund is decided by the
// pure policy against the pre-cancellation clock, the guarded transition
// picks the single winner among concurrent cancellers, and the refund
// record is persisted before the call reports success.
func (s *DefaultService) CancelConfirmed(ctx context.Context, id string, actor models.CancelActor, actorID, reason string) (*models.Appointment, *models.RefundRecord, error) {
	before, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	decision := s.Policy.ComputeRefund(*before, actor, s.now(), s.Location)

	if reason == "" {
		reason = fmt.Sprintf("cancelled by %s", actor)
	}
	appt, err := s.transition(ctx, id, models.StatusConfirmed, models.StatusCancelled, actor, actorID, reason)
	if err != nil {
		return nil, nil, err
	}

	rec, err := s.createRefund(ctx, *appt, actor, decision)
	if err != nil {
		// The cancellation stands; the missing record is an operational
		// repair, surfaced as a failure so nobody mistakes it for settled.
		utils.GetLogger().Error("cancelled without refund record",
			zap.String("appointmentId", id),
			zap.Error(err))
		return appt, nil, fmt.Errorf("appointment cancelled but refund record failed: %w", err)
	}
	return appt, rec, nil
}

func (s *DefaultService) createRefund(ctx context.Context, appt models.Appointment, actor models.CancelActor, decision RefundDecision) (*models.RefundRecord, error) {
	rec := models.RefundRecord{
		AppointmentID:     appt.ID,
		PatientID:         appt.PatientID,
		PaymentOrderID:    appt.PaymentOrderID,
		Actor:             actor,
		LeadMinutes:       decision.LeadMinutes,
		Type:              decision.Type,
		Percent:           decision.Percent,
		Amount:            decision.Amount,
		PlatformFeeRefund: decision.PlatformFeeRefund,
		Currency:          appt.Currency,
		Status:            models.RefundCreated,
	}
	if decision.Percent == 0 {
		// Nothing to settle; the record exists purely for the audit trail.
		rec.Status = models.RefundProcessed
	}

	id, err := s.Refunds.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	return &rec, nil
}

func (s *DefaultService) CheckIn(ctx context.Context, id, actorID string) (*models.Appointment, error) {
	return s.transition(ctx, id, models.StatusConfirmed, models.StatusCheckedIn, "", actorID, "patient checked in")
}

// Complete closes out a consultation. Both confirmed and checked-in
// appointments may complete; walk-ins are not always checked in first.
func (s *DefaultService) Complete(ctx context.Context, id, actorID string) (*models.Appointment, error) {
	appt, err := s.transition(ctx, id, models.StatusCheckedIn, models.StatusCompleted, "", actorID, "consultation completed")
	if err == nil {
		return appt, nil
	}
	var te *TransitionError
	if errors.As(err, &te) && te.Current == string(models.StatusConfirmed) {
		return s.transition(ctx, id, models.StatusConfirmed, models.StatusCompleted, "", actorID, "consultation completed")
	}
	return nil, err
}

func (s *DefaultService) MarkNoShow(ctx context.Context, id string) error {
	_, err := s.transition(ctx, id, models.StatusConfirmed, models.StatusNoShow, models.CancelBySystem, "sweeper", ReasonNoShow)
	return err
}

// SweepNoShows marks confirmed appointments whose scheduled start passed
// the grace window with no check-in. Individual failures are logged and
// skipped so one stuck row cannot block the rest; losing a transition race
// (a check-in landing mid-sweep) is expected and not an error.
func (s *DefaultService) SweepNoShows(ctx context.Context, limit int64) (int, error) {
	cutoff := s.now().In(s.Location).Add(-s.NoShowGrace)
	date := cutoff.Format(models.DateFormat)
	startBefore := cutoff.Hour()*60 + cutoff.Minute()

	overdue, err := s.Appointments.ListConfirmedStartedBefore(ctx, date, startBefore, limit)
	if err != nil {
		return 0, fmt.Errorf("listing overdue appointments: %w", err)
	}

	logger := utils.GetLogger()
	marked := 0
	for _, appt := range overdue {
		if err := s.MarkNoShow(ctx, appt.ID); err != nil {
			var te *TransitionError
			if !errors.As(err, &te) {
				logger.Warn("no-show sweep item failed",
					zap.String("appointmentId", appt.ID),
					zap.Error(err))
			}
			continue
		}
		marked++
	}
	if marked > 0 {
		logger.Info("no-show sweep marked appointments", zap.Int("count", marked))
	}
	return marked, nil
}

// RecordLatePayment writes the audit row for money captured after the
// booking already expired: the platform failed the patient, so the refund
// is always full. Idempotent per appointment.
func (s *DefaultService) RecordLatePayment(ctx context.Context, id string) (*models.RefundRecord, error) {
	if existing, err := s.Refunds.GetByAppointment(ctx, id); err == nil {
		return existing, nil
	}

	appt, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	decision := RefundDecision{
		Type:              models.RefundFull,
		Percent:           100,
		LeadMinutes:       leadMinutes(*appt, s.now(), s.Location),
		Amount:            utils.RoundMoney(appt.Fee),
		PlatformFeeRefund: utils.RoundMoney(appt.PlatformFee),
	}
	return s.createRefund(ctx, *appt, models.CancelBySystem, decision)
}

// Refund exposes the pure policy outcome without mutating anything.
func (s *DefaultService) Refund(appt models.Appointment, actor models.CancelActor, now time.Time) RefundDecision {
	return s.Policy.ComputeRefund(appt, actor, now, s.Location)
}
