// File: handlers/payment.go
package handlers

import (
	"net/http"
	"time"

	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/booking"

	"github.com/gin-gonic/gin"
)

// PaymentHandler receives gateway notifications. Events arrive on an
// internal path after the edge has verified the provider signature, so
// the payload is already trusted here.
type PaymentHandler struct {
	Service booking.BookingService
}

func NewPaymentHandler(svc booking.BookingService) *PaymentHandler {
	return &PaymentHandler{Service: svc}
}

// PaymentEventsHandler handles POST /api/payments/events.
func (h *PaymentHandler) PaymentEventsHandler(c *gin.Context) {
	var ev models.PaymentEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}

	if err := h.Service.ApplyPaymentEvent(c.Request.Context(), ev); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
