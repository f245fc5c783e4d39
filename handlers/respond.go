// File: handlers/respond.go
package handlers

import (
	"errors"
	"net/http"

	appointmentRepo "github.com/roza-in/server/database/repository/appointment"
	scheduleRepo "github.com/roza-in/server/database/repository/schedule"
	slotRepo "github.com/roza-in/server/database/repository/slot"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/appointment"
	"github.com/roza-in/server/services/booking"
	"github.com/roza-in/server/utils"

	"github.com/gin-gonic/gin"
)

// respondDomainError translates service errors into HTTP responses with a
// machine-readable code. Clients branch on the code, not the message; the
// distinction between slot_full (final) and slot_locked (retry shortly) is
// the one the booking UI cares most about.
func respondDomainError(c *gin.Context, err error) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		utils.JSONErrorCode(c, http.StatusBadRequest, "invalid_input", ve.Error())
		return
	}
	var te *appointment.TransitionError
	if errors.As(err, &te) {
		utils.JSONErrorCode(c, http.StatusConflict, "invalid_transition", te.Error())
		return
	}
	var ppe *booking.PaymentProviderError
	if errors.As(err, &ppe) {
		utils.JSONErrorCode(c, http.StatusBadGateway, "payment_provider_error", ppe.Error())
		return
	}

	switch {
	case errors.Is(err, booking.ErrSlotNotFound), errors.Is(err, slotRepo.ErrSlotNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "slot_not_found", "slot not found")
	case errors.Is(err, appointmentRepo.ErrAppointmentNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "appointment_not_found", "appointment not found")
	case errors.Is(err, scheduleRepo.ErrScheduleNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "schedule_not_found", "schedule not found")
	case errors.Is(err, scheduleRepo.ErrOverrideNotFound):
		utils.JSONErrorCode(c, http.StatusNotFound, "override_not_found", "override not found")
	case errors.Is(err, scheduleRepo.ErrOverrideExists):
		utils.JSONErrorCode(c, http.StatusConflict, "override_exists", "an override already exists for this date")
	case errors.Is(err, booking.ErrSlotFull):
		utils.JSONErrorCode(c, http.StatusConflict, "slot_full", "all seats on this slot are taken")
	case errors.Is(err, booking.ErrSlotLocked):
		utils.JSONErrorCode(c, http.StatusConflict, "slot_locked", "slot is temporarily locked; retry shortly")
	case errors.Is(err, booking.ErrSlotUnavailable):
		utils.JSONErrorCode(c, http.StatusConflict, "slot_unavailable", "slot is not open for booking")
	case errors.Is(err, booking.ErrSlotInPast):
		utils.JSONErrorCode(c, http.StatusUnprocessableEntity, "slot_in_past", "slot start time has already passed")
	case errors.Is(err, booking.ErrReservationExpired):
		utils.JSONErrorCode(c, http.StatusGone, "reservation_expired", "the seat hold has expired")
	case errors.Is(err, booking.ErrPaymentNotPending):
		utils.JSONErrorCode(c, http.StatusConflict, "payment_not_pending", "appointment is not awaiting payment")
	case errors.Is(err, booking.ErrPaymentNotConfigured):
		utils.JSONErrorCode(c, http.StatusServiceUnavailable, "payment_not_configured", "payments are not configured")
	case errors.Is(err, booking.ErrRequestInFlight):
		utils.JSONErrorCode(c, http.StatusConflict, "request_in_flight", "a request with this idempotency key is still running")
	case errors.Is(err, booking.ErrForbidden):
		utils.JSONErrorCode(c, http.StatusForbidden, "forbidden", "you do not own this resource")
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}
