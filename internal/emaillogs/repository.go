// Package emaillogs persists the outbound-email audit trail.
package emaillogs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetsimposio/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records one send attempt.
func (r *Repository) Insert(ctx context.Context, log *models.EmailLog) error {
	const q = `
		INSERT INTO email_logs (attendee_id, email_type, recipient_email, subject, status, sent_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, q,
		log.AttendeeID, log.EmailType, log.RecipientEmail, log.Subject, log.Status, log.SentAt, log.ErrorMessage,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}
	return nil
}

// ListRecent returns the newest log entries, optionally filtered by type.
func (r *Repository) ListRecent(ctx context.Context, emailType string, limit int) ([]models.EmailLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `
		SELECT id, attendee_id, email_type, recipient_email, subject, status, sent_at, COALESCE(error_message, ''), created_at
		FROM email_logs
		WHERE ($1 = '' OR email_type = $1)
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, q, emailType, limit)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	defer rows.Close()

	var logs []models.EmailLog
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.AttendeeID, &l.EmailType, &l.RecipientEmail, &l.Subject, &l.Status, &l.SentAt, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan email log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
