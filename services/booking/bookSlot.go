// File: services/booking/bookSlot.go
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	slotRepo "github.com/roza-in/server/database/repository/slot"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Machine-readable PaymentIssue values. The seat hold is kept alive until
// its TTL in both cases so the patient can retry payment.
const (
	PaymentIssueNotConfigured = "payment_not_configured"
	PaymentIssueOrderFailed   = "order_creation_failed"
)

// Book holds a seat, creates the appointment in pending_payment and opens a
// payment order for it. The appointment id doubles as the reservation's
// holder token, which is what ties every later step (confirm, release,
// sweep) back to this hold. Same idempotency key replays the original
// result instead of booking twice.
func (s *DefaultBookingService) Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	if req.SlotID == "" || req.PatientID == "" {
		return nil, models.Invalidf("booking request missing slot or patient id")
	}
	if req.IdempotencyKey == "" {
		return s.bookSlot(ctx, req)
	}

	key := "book:" + req.IdempotencyKey
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
			return nil, fmt.Errorf("replaying booking result: %w", err)
		}
		return &out, nil
	}

	result, err := s.bookSlot(ctx, req)
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

func (s *DefaultBookingService) bookSlot(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	slot, err := s.Slots.GetByID(ctx, req.SlotID)
	if err != nil {
		return nil, s.mapSlotErr(err)
	}
	if slot.Blocked {
		return nil, ErrSlotUnavailable
	}
	startsAt, err := slot.StartsAt(s.Location)
	if err != nil {
		return nil, fmt.Errorf("resolving slot start: %w", err)
	}
	if !startsAt.After(s.now()) {
		return nil, ErrSlotInPast
	}

	apptID := uuid.New().String()
	res, err := s.Reservations.Reserve(ctx, slot.ID, apptID, req.PatientID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	appt := models.Appointment{
		ID:               apptID,
		HospitalID:       slot.HospitalID,
		DoctorID:         slot.DoctorID,
		PatientID:        req.PatientID,
		SlotID:           slot.ID,
		Date:             slot.Date,
		Start:            slot.Start,
		End:              slot.End,
		ConsultationType: slot.ConsultationType,
		Status:           models.StatusPendingPayment,
		Fee:              utils.RoundMoney(slot.Fee),
		PlatformFee:      utils.RoundMoney(slot.Fee * s.PlatformFeePercent / 100),
		Currency:         slot.Currency,
		ReservationToken: apptID,
		Notes:            req.Notes,
		History: []models.StatusChange{{
			To:     models.StatusPendingPayment,
			Actor:  req.PatientID,
			Reason: "booking created",
			At:     now,
		}},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Appointments.Create(ctx, appt); err != nil {
		if _, relErr := s.Reservations.Release(ctx, slot.ID, apptID); relErr != nil {
			utils.GetLogger().Error("seat release after failed appointment create",
				zap.String("slotId", slot.ID),
				zap.String("appointmentId", apptID),
				zap.Error(relErr))
		}
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	result := &models.BookingResult{
		Appointment:  appt,
		ReservedTill: res.ExpiresAt,
	}
	s.attachPaymentOrder(ctx, result)

	s.invalidateAvailability(ctx, slot.DoctorID)
	utils.GetLogger().Info("slot booked",
		zap.String("appointmentId", apptID),
		zap.String("slotId", slot.ID),
		zap.String("patientId", req.PatientID),
		zap.String("paymentIssue", result.PaymentIssue))
	return result, nil
}

// attachPaymentOrder opens the gateway order for a pending booking. Gateway
// trouble does not fail the booking: the hold is already safe until its
// TTL, so the result just carries the issue and the patient retries.
func (s *DefaultBookingService) attachPaymentOrder(ctx context.Context, result *models.BookingResult) {
	appt := &result.Appointment
	if s.Gateway == nil || !s.Gateway.Configured() {
		result.PaymentIssue = PaymentIssueNotConfigured
		return
	}

	order, err := s.Gateway.CreateOrder(ctx, models.OrderRequest{
		Amount:        appt.Fee,
		Currency:      appt.Currency,
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		Description:   fmt.Sprintf("Consultation on %s at %s", appt.Date, utils.MinutesToClock(appt.Start)),
	})
	if err != nil {
		utils.GetLogger().Error("payment order creation failed",
			zap.String("appointmentId", appt.ID),
			zap.Error(err))
		result.PaymentIssue = PaymentIssueOrderFailed
		return
	}

	if err := s.Appointments.SetPaymentOrder(ctx, appt.ID, order.ID); err != nil {
		utils.GetLogger().Error("storing payment order id failed",
			zap.String("appointmentId", appt.ID),
			zap.String("orderId", order.ID),
			zap.Error(err))
		result.PaymentIssue = PaymentIssueOrderFailed
		return
	}
	appt.PaymentOrderID = order.ID
	result.PaymentOrder = order
}

func (s *DefaultBookingService) mapSlotErr(err error) error {
	if errors.Is(err, slotRepo.ErrSlotNotFound) {
		return ErrSlotNotFound
	}
	return err
}
