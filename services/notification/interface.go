// File: services/notification/interface.go
package notification

import (
	"time"

	"github.com/roza-in/server/models"
)

// Task type names shared between the enqueuing side and the worker.
const (
	TypeNotifyEvent  = "notify:event"
	TypeReminderSend = "reminder:send"
)

// Service queues booking lifecycle notifications for async delivery.
// Both methods are fire-and-forget: delivery problems are logged, never
// returned, so a flaky queue can't fail a booking that already happened.
type Service interface {
	Notify(p models.NotificationPayload)
	ScheduleReminder(p models.NotificationPayload, fireAt time.Time)
}
