// File: handlers/booking.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/roza-in/server/middleware"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/appointment"
	"github.com/roza-in/server/services/booking"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the patient booking endpoints. The authenticated
// subject is the patient; ownership of every appointment touched here is
// enforced in the service layer.
type BookingHandler struct {
	Service      booking.BookingService
	Appointments appointment.Service
}

// BookSlotHandler handles POST /api/bookings.
func (h *BookingHandler) BookSlotHandler(c *gin.Context) {
	var input struct {
		SlotID string `json:"slot_id" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	req := models.BookingRequest{
		SlotID:         input.SlotID,
		PatientID:      middleware.SubjectID(c),
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		Notes:          input.Notes,
	}
	result, err := h.Service.Book(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetBookingHandler handles GET /api/bookings/:id.
func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	appt, err := h.Appointments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if appt.PatientID != middleware.SubjectID(c) {
		respondDomainError(c, booking.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// ListMyBookingsHandler handles GET /api/bookings.
func (h *BookingHandler) ListMyBookingsHandler(c *gin.Context) {
	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	appts, err := h.Appointments.ListForPatient(c.Request.Context(), middleware.SubjectID(c), limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// CancelBookingHandler handles DELETE /api/bookings/:id.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	// Body is optional for a cancel.
	_ = c.ShouldBindJSON(&input)

	req := models.CancelRequest{
		AppointmentID:  c.Param("id"),
		Actor:          models.CancelByPatient,
		ActorID:        middleware.SubjectID(c),
		Reason:         input.Reason,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}
	result, err := h.Service.Cancel(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RescheduleBookingHandler handles POST /api/bookings/:id/reschedule.
func (h *BookingHandler) RescheduleBookingHandler(c *gin.Context) {
	var input struct {
		NewSlotID string `json:"new_slot_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	req := models.RescheduleRequest{
		AppointmentID:  c.Param("id"),
		NewSlotID:      input.NewSlotID,
		PatientID:      middleware.SubjectID(c),
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}
	result, err := h.Service.Reschedule(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RetryPaymentHandler handles POST /api/bookings/:id/payment/retry.
func (h *BookingHandler) RetryPaymentHandler(c *gin.Context) {
	result, err := h.Service.RetryPayment(c.Request.Context(), c.Param("id"), middleware.SubjectID(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
