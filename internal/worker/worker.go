// Package worker runs background jobs dequeued from Redis.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vetsimposio/backend/internal/models"
	"github.com/vetsimposio/backend/internal/notify"
	"github.com/vetsimposio/backend/internal/pricing"
	"github.com/vetsimposio/backend/pkg/queue"
)

// AttendeeLister loads the recipients for a reminder blast.
type AttendeeLister interface {
	List(ctx context.Context, status string) ([]models.Attendee, error)
}

// ReminderProcessor sends the event countdown reminder to every paid
// attendee when a blast job arrives.
type ReminderProcessor struct {
	attendees  AttendeeLister
	dispatcher *notify.Dispatcher
	pricing    *pricing.Resolver
	queue      *queue.Queue
	logger     *zap.Logger
}

// NewReminderProcessor creates a reminder blast processor.
func NewReminderProcessor(attendees AttendeeLister, dispatcher *notify.Dispatcher, resolver *pricing.Resolver, q *queue.Queue, logger *zap.Logger) *ReminderProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderProcessor{attendees: attendees, dispatcher: dispatcher, pricing: resolver, queue: q, logger: logger}
}

// Process executes one reminder blast job.
func (p *ReminderProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeReminderBlast {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ReminderBlastPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	paid, err := p.attendees.List(ctx, models.StatusPaid)
	if err != nil {
		return fmt.Errorf("list paid attendees: %w", err)
	}
	if len(paid) == 0 {
		p.logger.Info("no paid attendees, skipping reminder blast", zap.String("job_id", job.ID))
		return nil
	}

	amount := p.pricing.BasePriceAt(time.Now())
	result := p.dispatcher.SendReminders(ctx, paid, amount, payload.DaysUntilEvent)
	p.logger.Info("reminder blast completed",
		zap.String("job_id", job.ID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ReminderProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("reminder worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
