package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType for transactional notifications.
const (
	EmailTypePaymentConfirmation = "payment_confirmation"
	EmailTypePaymentRejected     = "payment_rejected"
	EmailTypePaymentPending      = "payment_pending"
	EmailTypeEventReminder       = "event_reminder"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records sent transactional emails.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	AttendeeID     *uuid.UUID `json:"attendee_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
