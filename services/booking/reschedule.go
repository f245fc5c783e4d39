// File: services/booking/reschedule.go
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appointmentRepo "github.com/roza-in/server/database/repository/appointment"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/appointment"
	"github.com/roza-in/server/utils"

	"go.uber.org/zap"
)

// Reschedule moves an appointment to a new slot, new seat first: reserve on
// the target, swap the appointment over, then give the old seat back. A
// full target slot fails before anything is touched, so the patient keeps
// their original time; a lost swap hands the new seat straight back.
func (s *DefaultBookingService) Reschedule(ctx context.Context, req models.RescheduleRequest) (*models.BookingResult, error) {
	if req.AppointmentID == "" || req.NewSlotID == "" {
		return nil, models.Invalidf("reschedule request missing appointment or slot id")
	}
	if req.IdempotencyKey == "" {
		return s.reschedule(ctx, req)
	}

	key := "resched:" + req.IdempotencyKey
	cached, acquired, err := s.Idempotency.Begin(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if !acquired {
		if cached == nil {
			return nil, ErrRequestInFlight
		}
		var out models.BookingResult
		if err := json.Unmarshal(cached, &out); err != nil {
			return nil, fmt.Errorf("replaying reschedule result: %w", err)
		}
		return &out, nil
	}

	result, err := s.reschedule(ctx, req)
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

func (s *DefaultBookingService) reschedule(ctx context.Context, req models.RescheduleRequest) (*models.BookingResult, error) {
	appt, err := s.Appointments.GetByID(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if req.PatientID != "" && appt.PatientID != req.PatientID {
		return nil, ErrForbidden
	}
	if appt.Status != models.StatusPendingPayment && appt.Status != models.StatusConfirmed {
		return nil, &appointment.TransitionError{
			AppointmentID: appt.ID,
			Current:       string(appt.Status),
			Requested:     "rescheduled",
		}
	}
	if appt.SlotID == req.NewSlotID {
		return &models.BookingResult{Appointment: *appt}, nil
	}

	newSlot, err := s.Slots.GetByID(ctx, req.NewSlotID)
	if err != nil {
		return nil, s.mapSlotErr(err)
	}
	if newSlot.Blocked {
		return nil, ErrSlotUnavailable
	}
	startsAt, err := newSlot.StartsAt(s.Location)
	if err != nil {
		return nil, fmt.Errorf("resolving slot start: %w", err)
	}
	if !startsAt.After(s.now()) {
		return nil, ErrSlotInPast
	}

	// Stage 1: take the new seat. Failure here leaves the original booking
	// untouched, so classified reserve errors pass through unwrapped.
	res, err := s.Reservations.Reserve(ctx, newSlot.ID, appt.ID, appt.PatientID)
	if err != nil {
		return nil, err
	}

	oldSlotID := appt.SlotID
	wasPending := appt.Status == models.StatusPendingPayment

	// Stage 2: repoint the appointment, guarded by the state we read.
	swap := appointmentRepo.SlotSwapParams{
		ID:               appt.ID,
		ExpectStatus:     appt.Status,
		ExpectSlotID:     oldSlotID,
		NewSlot:          *newSlot,
		ReservationToken: appt.ID,
		AdoptFee:         wasPending,
		Actor:            req.PatientID,
		At:               s.now().UTC(),
	}
	if wasPending {
		swap.PlatformFee = utils.RoundMoney(newSlot.Fee * s.PlatformFeePercent / 100)
	}
	if err := s.Appointments.SwapSlot(ctx, swap); err != nil {
		if _, relErr := s.Reservations.Release(ctx, newSlot.ID, appt.ID); relErr != nil {
			utils.GetLogger().Error("new seat release after lost swap failed",
				zap.String("appointmentId", appt.ID),
				zap.String("slotId", newSlot.ID),
				zap.Error(relErr))
		}
		if errors.Is(err, appointmentRepo.ErrStaleTransition) {
			current, getErr := s.Appointments.GetByID(ctx, appt.ID)
			if getErr != nil {
				return nil, getErr
			}
			return nil, &appointment.TransitionError{
				AppointmentID: appt.ID,
				Current:       string(current.Status),
				Requested:     "rescheduled",
			}
		}
		return nil, &RescheduleError{Stage: "swap", Err: err}
	}

	// Stage 3: give the old seat back. For a confirmed appointment the new
	// hold also converts to permanent occupancy right away. Failures past
	// this point never undo the move; the sweep repairs leftover holds.
	if wasPending {
		if _, relErr := s.Reservations.Release(ctx, oldSlotID, appt.ID); relErr != nil {
			utils.GetLogger().Error("old seat release after reschedule failed",
				zap.String("appointmentId", appt.ID),
				zap.String("slotId", oldSlotID),
				zap.Error(relErr))
		}
	} else {
		if err := s.Reservations.Confirm(ctx, newSlot.ID, appt.ID); err != nil {
			utils.GetLogger().Error("new hold confirm after reschedule failed",
				zap.String("appointmentId", appt.ID),
				zap.String("slotId", newSlot.ID),
				zap.Error(err))
		}
		if relErr := s.Reservations.ReleaseConfirmed(ctx, oldSlotID, appt.ID); relErr != nil {
			utils.GetLogger().Error("old seat release after reschedule failed",
				zap.String("appointmentId", appt.ID),
				zap.String("slotId", oldSlotID),
				zap.Error(relErr))
		}
	}

	moved, err := s.Appointments.GetByID(ctx, appt.ID)
	if err != nil {
		return nil, err
	}

	result := &models.BookingResult{Appointment: *moved}
	if wasPending {
		result.ReservedTill = res.ExpiresAt
		// The old payment order priced the old slot; open a fresh one.
		s.attachPaymentOrder(ctx, result)
	}

	s.invalidateAvailability(ctx, moved.DoctorID)
	s.Notifier.Notify(models.NotificationPayload{
		Event:         models.NotifyBookingRescheduled,
		AppointmentID: moved.ID,
		PatientID:     moved.PatientID,
		DoctorID:      moved.DoctorID,
		HospitalID:    moved.HospitalID,
		Date:          moved.Date,
		Start:         moved.Start,
		Detail: map[string]string{
			"old_slot_id": oldSlotID,
			"new_slot_id": moved.SlotID,
		},
		QueuedAt: time.Now().UTC(),
	})
	utils.GetLogger().Info("appointment rescheduled",
		zap.String("appointmentId", moved.ID),
		zap.String("fromSlot", oldSlotID),
		zap.String("toSlot", moved.SlotID))
	return result, nil
}
