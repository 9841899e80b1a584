package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ecocheck/ecocheck/internal/pkg/notify"
)

// QueueNotifier hands messages to the job queue instead of delivering them
// inline. The queue's deliverer does the actual sending with retries.
type QueueNotifier struct {
	queue *Queue
}

func NewQueueNotifier(q *Queue) *QueueNotifier {
	return &QueueNotifier{queue: q}
}

// Notify enqueues msg. An enqueue failure is returned so the caller can fall
// back to another channel.
func (n *QueueNotifier) Notify(ctx context.Context, msg notify.Message) error {
	payload := NotificationJobPayload{Message: msg}
	job, err := n.queue.EnqueueJob(ctx, JobTypeSendNotification, payload.ToMap())
	if err != nil {
		return fmt.Errorf("queue notification for report %s: %w", msg.ReportID, err)
	}
	log.Infof("[JobQueue] Notification %s for report %s queued as job %s", msg.Kind, msg.ReportID, job.ID)
	return nil
}

func (q *Queue) processNotificationJob(ctx context.Context, job *Job) error {
	payload, err := NotificationJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid notification payload: %w", err)
	}
	if payload.Message.ReportID == "" {
		return fmt.Errorf("notification payload has no report id")
	}
	return q.currentDeliverer().Notify(ctx, payload.Message)
}
