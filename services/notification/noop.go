// File: services/notification/noop.go
package notification

import (
	"sync"
	"time"

	"github.com/roza-in/server/models"
)

// Recorder captures notifications instead of queuing them. Used in tests
// and as a safe default when no queue is configured.
type Recorder struct {
	mu        sync.Mutex
	Sent      []models.NotificationPayload
	Reminders []models.NotificationPayload
}

func (r *Recorder) Notify(p models.NotificationPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, p)
}

func (r *Recorder) ScheduleReminder(p models.NotificationPayload, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reminders = append(r.Reminders, p)
}

// Events lists the event names captured so far, in order.
func (r *Recorder) Events() []models.NotificationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.NotificationEvent, 0, len(r.Sent))
	for _, p := range r.Sent {
		out = append(out, p.Event)
	}
	return out
}
