// File: handlers/appointment.go
package handlers

import (
	"net/http"

	"github.com/roza-in/server/middleware"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/appointment"
	"github.com/roza-in/server/services/booking"

	"github.com/gin-gonic/gin"
)

// AppointmentHandler serves the staff-side appointment endpoints: the
// doctor's day view, check-in and completion at the clinic, and staff
// cancellations (which always refund in full).
type AppointmentHandler struct {
	Service appointment.Service
	Booking booking.BookingService
}

// ListDoctorDayHandler handles GET /api/appointments?doctorId=&date=.
func (h *AppointmentHandler) ListDoctorDayHandler(c *gin.Context) {
	doctorID := c.Query("doctorId")
	date := c.Query("date")
	if doctorID == "" || date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doctorId and date are required"})
		return
	}
	if middleware.Role(c) == "doctor" && middleware.SubjectID(c) != doctorID {
		respondDomainError(c, booking.ErrForbidden)
		return
	}

	appts, err := h.Service.ListForDoctorDay(c.Request.Context(), doctorID, date)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// CheckInHandler handles POST /api/appointments/:id/check-in.
func (h *AppointmentHandler) CheckInHandler(c *gin.Context) {
	appt, err := h.Service.CheckIn(c.Request.Context(), c.Param("id"), middleware.SubjectID(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// CompleteHandler handles POST /api/appointments/:id/complete.
func (h *AppointmentHandler) CompleteHandler(c *gin.Context) {
	appt, err := h.Service.Complete(c.Request.Context(), c.Param("id"), middleware.SubjectID(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// StaffCancelHandler handles DELETE /api/appointments/:id. The cancel
// actor follows the token role, which drives the refund policy: anything
// other than the patient refunds 100%.
func (h *AppointmentHandler) StaffCancelHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)

	req := models.CancelRequest{
		AppointmentID:  c.Param("id"),
		Actor:          cancelActorForRole(middleware.Role(c)),
		ActorID:        middleware.SubjectID(c),
		Reason:         input.Reason,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}
	result, err := h.Booking.Cancel(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func cancelActorForRole(role string) models.CancelActor {
	switch role {
	case "doctor":
		return models.CancelByDoctor
	case "hospital_admin":
		return models.CancelByHospital
	case "platform_admin":
		return models.CancelByAdmin
	default:
		return models.CancelBySystem
	}
}
