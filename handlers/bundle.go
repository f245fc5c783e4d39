// File: handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct so route
// registration takes a single argument.
type HandlerBundle struct {
	// Availability endpoints
	ListAvailableSlotsHandler gin.HandlerFunc

	// Patient booking endpoints
	BookSlotHandler          gin.HandlerFunc
	GetBookingHandler        gin.HandlerFunc
	ListMyBookingsHandler    gin.HandlerFunc
	CancelBookingHandler     gin.HandlerFunc
	RescheduleBookingHandler gin.HandlerFunc
	RetryPaymentHandler      gin.HandlerFunc

	// Staff appointment endpoints
	ListDoctorDayHandler gin.HandlerFunc
	CheckInHandler       gin.HandlerFunc
	CompleteHandler      gin.HandlerFunc
	StaffCancelHandler   gin.HandlerFunc

	// Schedule management endpoints
	CreateScheduleHandler      gin.HandlerFunc
	UpdateScheduleHandler      gin.HandlerFunc
	DeactivateScheduleHandler  gin.HandlerFunc
	GetScheduleHandler         gin.HandlerFunc
	ListDoctorSchedulesHandler gin.HandlerFunc
	CreateOverrideHandler      gin.HandlerFunc
	RemoveOverrideHandler      gin.HandlerFunc
	ListOverridesHandler       gin.HandlerFunc
	RegenerateDateHandler      gin.HandlerFunc

	// Payment gateway callbacks
	PaymentEventsHandler gin.HandlerFunc
}

// NewHandlerBundle flattens the per-domain handlers into the bundle the
// router consumes.
func NewHandlerBundle(slots *SlotsHandler, bookings *BookingHandler, appts *AppointmentHandler, schedules *ScheduleHandler, payments *PaymentHandler) *HandlerBundle {
	return &HandlerBundle{
		ListAvailableSlotsHandler: slots.ListAvailableSlotsHandler,

		BookSlotHandler:          bookings.BookSlotHandler,
		GetBookingHandler:        bookings.GetBookingHandler,
		ListMyBookingsHandler:    bookings.ListMyBookingsHandler,
		CancelBookingHandler:     bookings.CancelBookingHandler,
		RescheduleBookingHandler: bookings.RescheduleBookingHandler,
		RetryPaymentHandler:      bookings.RetryPaymentHandler,

		ListDoctorDayHandler: appts.ListDoctorDayHandler,
		CheckInHandler:       appts.CheckInHandler,
		CompleteHandler:      appts.CompleteHandler,
		StaffCancelHandler:   appts.StaffCancelHandler,

		CreateScheduleHandler:      schedules.CreateScheduleHandler,
		UpdateScheduleHandler:      schedules.UpdateScheduleHandler,
		DeactivateScheduleHandler:  schedules.DeactivateScheduleHandler,
		GetScheduleHandler:         schedules.GetScheduleHandler,
		ListDoctorSchedulesHandler: schedules.ListDoctorSchedulesHandler,
		CreateOverrideHandler:      schedules.CreateOverrideHandler,
		RemoveOverrideHandler:      schedules.RemoveOverrideHandler,
		ListOverridesHandler:       schedules.ListOverridesHandler,
		RegenerateDateHandler:      schedules.RegenerateDateHandler,

		PaymentEventsHandler: payments.PaymentEventsHandler,
	}
}
