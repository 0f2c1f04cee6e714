// Package notify dispatches transactional emails without ever letting the
// mail channel block or fail a payment operation.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetsimposio/backend/internal/metrics"
	"github.com/vetsimposio/backend/internal/models"
)

// bulkSendDelay spaces out sequential sends to stay under the SMTP
// provider's rate limit.
const bulkSendDelay = 100 * time.Millisecond

// Mailer sends a single email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// LogStore persists the email audit trail.
type LogStore interface {
	Insert(ctx context.Context, log *models.EmailLog) error
}

// Result reports a dispatch attempt. Confirmed is false when the send failed
// or did not complete within the timeout; the underlying send is not
// cancelled and its eventual outcome is still logged.
type Result struct {
	Confirmed bool
	Err       error
}

// BulkResult accumulates per-recipient outcomes of a reminder blast.
type BulkResult struct {
	Sent   int      `json:"sent"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// Dispatcher wraps a Mailer with a bounded wait and full failure
// containment: callers never receive an error and never have their own
// results altered by notification outcome.
type Dispatcher struct {
	mailer   Mailer
	logs     LogStore
	currency string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher. A zero timeout defaults to 10 seconds.
func NewDispatcher(mailer Mailer, logs LogStore, currency string, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{mailer: mailer, logs: logs, currency: currency, timeout: timeout, logger: logger}
}

// Dispatch sends one email, waiting at most the configured timeout. The send
// itself runs detached; on timeout it continues in the background and its
// outcome is logged when it completes.
func (d *Dispatcher) Dispatch(ctx context.Context, attendeeID *uuid.UUID, emailType, to, subject, html string) Result {
	if d.mailer == nil {
		d.logger.Warn("mailer not configured, skipping notification", zap.String("type", emailType), zap.String("to", to))
		return Result{Confirmed: false}
	}

	done := make(chan error, 1)
	go func() {
		err := d.mailer.Send(context.Background(), to, subject, html)
		d.record(attendeeID, emailType, to, subject, err)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			d.logger.Error("notification send failed",
				zap.String("type", emailType),
				zap.String("to", to),
				zap.Error(err),
			)
			return Result{Confirmed: false, Err: err}
		}
		d.logger.Info("notification sent", zap.String("type", emailType), zap.String("to", to))
		return Result{Confirmed: true}
	case <-time.After(d.timeout):
		d.logger.Warn("notification not confirmed within timeout",
			zap.String("type", emailType),
			zap.String("to", to),
			zap.Duration("timeout", d.timeout),
		)
		return Result{Confirmed: false}
	}
}

func (d *Dispatcher) record(attendeeID *uuid.UUID, emailType, to, subject string, sendErr error) {
	status := models.EmailLogStatusSent
	errMsg := ""
	var sentAt *time.Time
	if sendErr != nil {
		status = models.EmailLogStatusFailed
		errMsg = sendErr.Error()
	} else {
		now := time.Now()
		sentAt = &now
	}
	metrics.EmailsTotal.WithLabelValues(emailType, status).Inc()

	if d.logs == nil {
		return
	}
	log := &models.EmailLog{
		AttendeeID:     attendeeID,
		EmailType:      emailType,
		RecipientEmail: to,
		Subject:        subject,
		Status:         status,
		SentAt:         sentAt,
		ErrorMessage:   errMsg,
	}
	if err := d.logs.Insert(context.Background(), log); err != nil {
		d.logger.Error("insert email log failed", zap.Error(err))
	}
}

// PaymentConfirmed sends the digital-ticket confirmation.
func (d *Dispatcher) PaymentConfirmed(ctx context.Context, a *models.Attendee, amount float64) {
	data := ticketData(a, amount, d.currency)
	d.Dispatch(ctx, &a.ID, models.EmailTypePaymentConfirmation, a.Email,
		"✅ ¡Tu registro al II Simposio Veterinario está confirmado!",
		PaymentConfirmationHTML(data),
	)
}

// PaymentRejected sends the rejection notice with the decline reason.
func (d *Dispatcher) PaymentRejected(ctx context.Context, a *models.Attendee, amount float64, reason string) {
	data := ticketData(a, amount, d.currency)
	d.Dispatch(ctx, &a.ID, models.EmailTypePaymentRejected, a.Email,
		"✗ Tu pago no pudo ser procesado - II Simposio Veterinario 2026",
		PaymentRejectedHTML(data, reason),
	)
}

// PaymentPending acknowledges a payment the gateway is still processing.
func (d *Dispatcher) PaymentPending(ctx context.Context, a *models.Attendee, amount float64, method string) {
	data := ticketData(a, amount, d.currency)
	d.Dispatch(ctx, &a.ID, models.EmailTypePaymentPending, a.Email,
		"⏳ Tu inscripción está en proceso - II Simposio Veterinario 2026",
		PaymentPendingHTML(data, method),
	)
}

// SendReminders sequentially sends the event reminder to each attendee,
// accumulating per-recipient outcomes with a fixed delay between sends.
func (d *Dispatcher) SendReminders(ctx context.Context, attendees []models.Attendee, amount float64, daysUntilEvent int) BulkResult {
	subject := fmt.Sprintf("📅 ¡Faltan %d días! - II Simposio Veterinario 2026", daysUntilEvent)
	if daysUntilEvent == 1 {
		subject = "🎉 ¡Mañana es el Simposio Veterinario!"
	}

	var result BulkResult
	for i := range attendees {
		a := &attendees[i]
		data := ticketData(a, amount, d.currency)
		r := d.Dispatch(ctx, &a.ID, models.EmailTypeEventReminder, a.Email, subject, EventReminderHTML(data, daysUntilEvent))
		if r.Confirmed {
			result.Sent++
		} else {
			result.Failed++
			if r.Err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", a.Email, r.Err))
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: not confirmed", a.Email))
			}
		}
		time.Sleep(bulkSendDelay)
	}
	return result
}
