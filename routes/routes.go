package routes

import (
	"net/http"
	"time"

	"github.com/roza-in/server/handlers"
	"github.com/roza-in/server/middleware"
	"github.com/roza-in/server/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAvailabilityRoutes registers slot discovery endpoints. The
// patient-facing listing is public; the staff views sit behind auth.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/doctors")
	{
		api.GET("/:doctorId/slots", hb.ListAvailableSlotsHandler)

		staff := api.Group("")
		staff.Use(middleware.JWTAuth("doctor", "hospital_admin", "platform_admin"))
		staff.GET("/:doctorId/schedules", hb.ListDoctorSchedulesHandler)
		staff.GET("/:doctorId/overrides", hb.ListOverridesHandler)
	}
}

// RegisterBookingRoutes sets up the patient-facing booking endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuth("patient"))
		api.POST("", hb.BookSlotHandler)
		api.GET("", hb.ListMyBookingsHandler)
		api.GET("/:id", hb.GetBookingHandler)
		api.DELETE("/:id", hb.CancelBookingHandler)
		api.POST("/:id/reschedule", hb.RescheduleBookingHandler)
		api.POST("/:id/payment/retry", hb.RetryPaymentHandler)
	}
}

// RegisterAppointmentRoutes sets up staff-side appointment operations.
func RegisterAppointmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/appointments")
	{
		api.Use(middleware.JWTAuth("doctor", "hospital_admin", "platform_admin"))
		api.GET("", hb.ListDoctorDayHandler)
		api.POST("/:id/check-in", hb.CheckInHandler)
		api.POST("/:id/complete", hb.CompleteHandler)
		api.DELETE("/:id", hb.StaffCancelHandler)
	}
}

// RegisterScheduleRoutes sets up schedule and override management for
// hospital staff.
func RegisterScheduleRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	schedules := r.Group("/api/schedules")
	{
		schedules.Use(middleware.JWTAuth("hospital_admin", "platform_admin"))
		schedules.POST("", hb.CreateScheduleHandler)
		schedules.GET("/:id", hb.GetScheduleHandler)
		schedules.PUT("/:id", hb.UpdateScheduleHandler)
		schedules.DELETE("/:id", hb.DeactivateScheduleHandler)
	}

	overrides := r.Group("/api/overrides")
	{
		overrides.Use(middleware.JWTAuth("hospital_admin", "platform_admin"))
		overrides.POST("", hb.CreateOverrideHandler)
		overrides.DELETE("/:id", hb.RemoveOverrideHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for platform operators.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.JWTAuth("platform_admin"))
		adminGroup.POST("/slots/regenerate", hb.RegenerateDateHandler)
	}
}

// RegisterPaymentRoutes registers the gateway callback endpoint. The edge
// verifies provider signatures before forwarding, so no auth here.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/payments/events", hb.PaymentEventsHandler)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterAvailabilityRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterAppointmentRoutes(r, hb)
	RegisterScheduleRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterHealthRoute(r)
}
