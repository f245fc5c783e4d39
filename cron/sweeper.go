// File: cron/sweeper.go
package cron

import (
	"context"
	"time"

	scheduleRepo "github.com/roza-in/server/database/repository/schedule"
	"github.com/roza-in/server/services/appointment"
	"github.com/roza-in/server/services/booking"
	"github.com/roza-in/server/services/scheduling"
	"github.com/roza-in/server/utils"

	"go.uber.org/zap"
)

// sweepBatchSize caps how many rows one sweep pass processes. Leftovers
// are picked up next tick.
const sweepBatchSize = 200

// Sweeper drives the background maintenance loops: expiring lapsed payment
// holds, marking no-shows and keeping every doctor's slot horizon
// materialized. All three are idempotent, so running the sweeper on every
// service instance is safe; conditional writes decide the single winner.
type Sweeper struct {
	Booking      booking.BookingService
	Appointments appointment.Service
	Materializer *scheduling.Materializer
	Schedules    scheduleRepo.ScheduleRepository

	ExpiryInterval      time.Duration
	NoShowInterval      time.Duration
	MaterializeInterval time.Duration
}

// NewSweeper wires a sweeper from the configured intervals.
func NewSweeper(
	bookingSvc booking.BookingService,
	appts appointment.Service,
	mat *scheduling.Materializer,
	schedules scheduleRepo.ScheduleRepository,
	expiryInterval, noShowInterval, materializeInterval time.Duration,
) *Sweeper {
	if expiryInterval <= 0 {
		expiryInterval = time.Minute
	}
	if noShowInterval <= 0 {
		noShowInterval = 10 * time.Minute
	}
	if materializeInterval <= 0 {
		materializeInterval = 6 * time.Hour
	}
	return &Sweeper{
		Booking:             bookingSvc,
		Appointments:        appts,
		Materializer:        mat,
		Schedules:           schedules,
		ExpiryInterval:      expiryInterval,
		NoShowInterval:      noShowInterval,
		MaterializeInterval: materializeInterval,
	}
}

// Start launches the three loops; they stop when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.runExpiryLoop(ctx)
	go s.runNoShowLoop(ctx)
	go s.runMaterializeLoop(ctx)
}

func (s *Sweeper) runExpiryLoop(ctx context.Context) {
	ticker := time.NewTicker(s.ExpiryInterval)
	defer ticker.Stop()

	logger := utils.GetLogger()
	for {
		select {
		case <-ctx.Done():
			logger.Info("expiry sweep shutdown signal received")
			return
		case <-ticker.C:
			if _, err := s.Booking.SweepExpired(ctx, sweepBatchSize); err != nil {
				logger.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *Sweeper) runNoShowLoop(ctx context.Context) {
	ticker := time.NewTicker(s.NoShowInterval)
	defer ticker.Stop()

	logger := utils.GetLogger()
	for {
		select {
		case <-ctx.Done():
			logger.Info("no-show sweep shutdown signal received")
			return
		case <-ticker.C:
			if _, err := s.Appointments.SweepNoShows(ctx, sweepBatchSize); err != nil {
				logger.Error("no-show sweep failed", zap.Error(err))
			}
		}
	}
}

// runMaterializeLoop keeps every active doctor's horizon topped up. The
// first pass runs shortly after startup rather than a full interval later.
func (s *Sweeper) runMaterializeLoop(ctx context.Context) {
	logger := utils.GetLogger()

	startup := time.NewTimer(30 * time.Second)
	defer startup.Stop()
	select {
	case <-ctx.Done():
		return
	case <-startup.C:
		s.materializeAll(ctx)
	}

	ticker := time.NewTicker(s.MaterializeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("materialize loop shutdown signal received")
			return
		case <-ticker.C:
			s.materializeAll(ctx)
		}
	}
}

func (s *Sweeper) materializeAll(ctx context.Context) {
	logger := utils.GetLogger()

	doctorIDs, err := s.Schedules.ListActiveDoctorIDs(ctx)
	if err != nil {
		logger.Error("listing doctors for materialization failed", zap.Error(err))
		return
	}

	var created int64
	for _, id := range doctorIDs {
		n, err := s.Materializer.EnsureDoctor(ctx, id)
		if err != nil {
			logger.Error("horizon materialization failed",
				zap.String("doctorId", id), zap.Error(err))
			continue
		}
		created += n
	}
	if created > 0 {
		logger.Info("horizon materialization pass complete",
			zap.Int("doctors", len(doctorIDs)),
			zap.Int64("slotsCreated", created))
	}
}
