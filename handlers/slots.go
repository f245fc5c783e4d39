// File: handlers/slots.go
package handlers

import (
	"net/http"

	"github.com/roza-in/server/services/booking"

	"github.com/gin-gonic/gin"
)

// SlotsHandler serves the public availability calendar.
type SlotsHandler struct {
	Service booking.BookingService
}

// ListAvailableSlotsHandler handles GET /api/doctors/:doctorId/slots.
// Query params "from" and "to" bound the range; both default to today.
func (h *SlotsHandler) ListAvailableSlotsHandler(c *gin.Context) {
	doctorID := c.Param("doctorId")
	fromDate := c.Query("from")
	toDate := c.Query("to")

	slots, err := h.Service.ListAvailableSlots(c.Request.Context(), doctorID, fromDate, toDate)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"doctor_id": doctorID,
		"slots":     slots,
	})
}
