// File: cron/worker.go
package cron

import (
	"context"
	"encoding/json"
	"time"

	"github.com/roza-in/server/config"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/appointment"
	"github.com/roza-in/server/services/notification"
	"github.com/roza-in/server/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitNotificationWorker starts the asynq consumer for notification and
// reminder tasks in the background. Returns the server so shutdown can
// drain it. Delivery itself is the hand-off point to downstream channels;
// here it is a structured log line carrying the full payload.
func InitNotificationWorker(appts appointment.Service) *asynq.Server {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisAsynqDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeNotifyEvent, handleNotifyTask)
	mux.HandleFunc(notification.TypeReminderSend, handleReminderTask(appts))

	go monitorRedisConnection()

	go func() {
		logger := utils.GetLogger()
		logger.Info("starting notification worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("notification worker start failed",
					zap.Int("attempt", attempts),
					zap.Int("maxAttempts", maxAttempts),
					zap.Error(err))

				if attempts == maxAttempts {
					logger.Fatal("notification worker could not start, giving up")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()

	return srv
}

func handleNotifyTask(_ context.Context, task *asynq.Task) error {
	var p models.NotificationPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		utils.GetLogger().Error("invalid notification payload", zap.Error(err))
		return err
	}

	utils.GetLogger().Info("dispatching notification",
		zap.String("event", string(p.Event)),
		zap.String("appointmentId", p.AppointmentID),
		zap.String("patientId", p.PatientID),
		zap.String("doctorId", p.DoctorID),
		zap.String("date", p.Date),
		zap.Int("start", p.Start),
		zap.Any("detail", p.Detail))
	return nil
}

// handleReminderTask fires pre-appointment reminders. The appointment is
// re-read at fire time: a booking cancelled or moved since the reminder was
// queued must not ping the patient.
func handleReminderTask(appts appointment.Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.NotificationPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			utils.GetLogger().Error("invalid reminder payload", zap.Error(err))
			return err
		}

		appt, err := appts.Get(ctx, p.AppointmentID)
		if err != nil {
			utils.GetLogger().Warn("reminder target lookup failed",
				zap.String("appointmentId", p.AppointmentID),
				zap.Error(err))
			return err
		}
		if appt.Status != models.StatusConfirmed {
			utils.GetLogger().Info("reminder skipped, appointment no longer confirmed",
				zap.String("appointmentId", appt.ID),
				zap.String("status", string(appt.Status)))
			return nil
		}
		if appt.Date != p.Date || appt.Start != p.Start {
			utils.GetLogger().Info("reminder skipped, appointment was rescheduled",
				zap.String("appointmentId", appt.ID))
			return nil
		}

		utils.GetLogger().Info("dispatching appointment reminder",
			zap.String("appointmentId", appt.ID),
			zap.String("patientId", appt.PatientID),
			zap.String("date", appt.Date),
			zap.String("time", utils.MinutesToClock(appt.Start)))
		return nil
	}
}

// monitorRedisConnection pings the queue Redis periodically so a broken
// connection shows up in logs before tasks silently pile up.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisAsynqDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			utils.GetLogger().Warn("queue redis connection lost", zap.Error(err))
		}
		time.Sleep(10 * time.Second)
	}
}
