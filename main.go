// File: main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roza-in/server/config"
	"github.com/roza-in/server/cron"
	"github.com/roza-in/server/database"
	appointmentRepo "github.com/roza-in/server/database/repository/appointment"
	refundRepo "github.com/roza-in/server/database/repository/refund"
	scheduleRepo "github.com/roza-in/server/database/repository/schedule"
	slotRepo "github.com/roza-in/server/database/repository/slot"
	"github.com/roza-in/server/handlers"
	"github.com/roza-in/server/middleware"
	"github.com/roza-in/server/routes"
	"github.com/roza-in/server/services/appointment"
	"github.com/roza-in/server/services/booking"
	"github.com/roza-in/server/services/notification"
	"github.com/roza-in/server/services/schedule"
	"github.com/roza-in/server/services/scheduling"
	"github.com/roza-in/server/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitAuthCache()
	utils.InitIdempotencyCache()

	location, err := time.LoadLocation(config.AppConfig.TimeZone)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid time zone %q: %v", config.AppConfig.TimeZone, err)
	}

	refundPolicy, err := appointment.ParseRefundPolicy(config.AppConfig.RefundWindows)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid refund windows %q: %v", config.AppConfig.RefundWindows, err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeSecretKey

	// repositories.
	slots := slotRepo.NewMongoSlotRepo()
	schedules := scheduleRepo.NewMongoScheduleRepo()
	appointments := appointmentRepo.NewMongoAppointmentRepo()
	refunds := refundRepo.NewMongoRefundRepo()

	// services.
	materializer := scheduling.NewMaterializer(schedules, slots, location, config.AppConfig.HorizonDays)

	reservations := booking.NewReservationManager(
		slots,
		time.Duration(config.AppConfig.ReservationTTLMinutes)*time.Minute,
	)

	lifecycle := appointment.NewService(
		appointments,
		refunds,
		refundPolicy,
		location,
		time.Duration(config.AppConfig.NoShowGraceMinutes)*time.Minute,
	)

	scheduleService := schedule.NewService(schedules, slots, materializer, location)

	notifier := notification.NewAsynqNotifier(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisAsynqDB,
	})
	defer notifier.Close()

	bookingService := booking.NewBookingService(
		slots,
		appointments,
		reservations,
		lifecycle,
		booking.NewStripeGateway(),
		notifier,
		booking.NewRedisIdempotencyStore(),
		materializer,
		utils.GetCacheClient(),
		location,
		config.AppConfig.PlatformFeePercent,
		time.Duration(config.AppConfig.ReminderLeadMinutes)*time.Minute,
	)

	// Assemble the handler bundle.
	handlerBundle := handlers.NewHandlerBundle(
		&handlers.SlotsHandler{Service: bookingService},
		&handlers.BookingHandler{Service: bookingService, Appointments: lifecycle},
		&handlers.AppointmentHandler{Service: lifecycle, Booking: bookingService},
		&handlers.ScheduleHandler{Service: scheduleService},
		handlers.NewPaymentHandler(bookingService),
	)

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Background workers: notification consumer, maintenance sweeps and
	// the health monitor all stop when bgCancel fires.
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	worker := cron.InitNotificationWorker(lifecycle)

	sweeper := cron.NewSweeper(
		bookingService,
		lifecycle,
		materializer,
		schedules,
		time.Duration(config.AppConfig.SweepIntervalSeconds)*time.Second,
		time.Duration(config.AppConfig.NoShowSweepIntervalMins)*time.Minute,
		time.Duration(config.AppConfig.MaterializeIntervalHrs)*time.Hour,
	)
	sweeper.Start(bgCtx)

	utils.StartHealthMonitor(bgCtx, map[string]*redis.Client{
		"cache":       utils.GetCacheClient(),
		"auth":        utils.GetAuthCacheClient(),
		"idempotency": utils.GetIdempotencyClient(),
	}, database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	bgCancel()
	worker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
