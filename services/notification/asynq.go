// File: services/notification/asynq.go
package notification

import (
	"encoding/json"
	"time"

	"github.com/roza-in/server/models"
	"github.com/roza-in/server/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// AsynqNotifier enqueues notification tasks on Redis via asynq. The cron
// worker consumes them; reminders ride the same queue with a ProcessAt
// option so asynq handles the scheduling.
type AsynqNotifier struct {
	client *asynq.Client
}

// NewAsynqNotifier builds a notifier on its own asynq client.
func NewAsynqNotifier(redisOpt asynq.RedisClientOpt) *AsynqNotifier {
	return &AsynqNotifier{client: asynq.NewClient(redisOpt)}
}

func (n *AsynqNotifier) Notify(p models.NotificationPayload) {
	n.enqueue(TypeNotifyEvent, p, nil)
}

func (n *AsynqNotifier) ScheduleReminder(p models.NotificationPayload, fireAt time.Time) {
	n.enqueue(TypeReminderSend, p, []asynq.Option{asynq.ProcessAt(fireAt)})
}

func (n *AsynqNotifier) enqueue(taskType string, p models.NotificationPayload, opts []asynq.Option) {
	if p.QueuedAt.IsZero() {
		p.QueuedAt = time.Now().UTC()
	}
	b, err := json.Marshal(p)
	if err != nil {
		utils.GetLogger().Error("marshal notification payload failed",
			zap.String("task", taskType), zap.Error(err))
		return
	}
	task := asynq.NewTask(taskType, b)
	opts = append(opts, asynq.MaxRetry(5))

	if _, err := n.client.Enqueue(task, opts...); err != nil {
		utils.GetLogger().Error("enqueue notification task failed",
			zap.String("task", taskType),
			zap.String("event", string(p.Event)),
			zap.String("appointmentId", p.AppointmentID),
			zap.Error(err))
	}
}

// Close flushes the underlying asynq client.
func (n *AsynqNotifier) Close() error {
	return n.client.Close()
}
