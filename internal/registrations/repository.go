// Package registrations manages attendee intake and the registration store.
package registrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetsimposio/backend/internal/models"
)

const attendeeColumns = `id, full_name, dni, email, phone, role, COALESCE(organization, ''),
	status, COALESCE(payment_method, ''), COALESCE(payment_order_id, ''), ticket_code, created_at`

// Stats summarizes registrations for the admin dashboard.
type Stats struct {
	Total         int `json:"total"`
	Paid          int `json:"paid"`
	Pending       int `json:"pending"`
	Students      int `json:"students"`
	Professionals int `json:"professionals"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, a *models.Attendee) error {
	const q = `
		INSERT INTO attendees (full_name, dni, email, phone, role, organization, status, ticket_code)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, q,
		a.FullName, a.DNI, a.Email, a.Phone, a.Role, a.Organization, a.Status, a.TicketCode,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create attendee: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Attendee, error) {
	return r.getOne(ctx, `SELECT `+attendeeColumns+` FROM attendees WHERE id = $1`, id)
}

func (r *Repository) GetByDNI(ctx context.Context, dni string) (*models.Attendee, error) {
	return r.getOne(ctx, `SELECT `+attendeeColumns+` FROM attendees WHERE dni = $1`, dni)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Attendee, error) {
	return r.getOne(ctx, `SELECT `+attendeeColumns+` FROM attendees WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *Repository) GetByTicketCode(ctx context.Context, code string) (*models.Attendee, error) {
	return r.getOne(ctx, `SELECT `+attendeeColumns+` FROM attendees WHERE ticket_code = $1`, code)
}

// FindByPaymentRef locates the attendee whose stored order reference
// contains the gateway payment id. References are written as
// "mp_<method>_<paymentID>", so a substring match recovers the row.
func (r *Repository) FindByPaymentRef(ctx context.Context, paymentID string) (*models.Attendee, error) {
	if paymentID == "" {
		return nil, nil
	}
	const q = `SELECT ` + attendeeColumns + ` FROM attendees WHERE payment_order_id LIKE '%' || $1 || '%' LIMIT 1`
	return r.getOne(ctx, q, paymentID)
}

func (r *Repository) getOne(ctx context.Context, q string, arg any) (*models.Attendee, error) {
	var a models.Attendee
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&a.ID, &a.FullName, &a.DNI, &a.Email, &a.Phone, &a.Role, &a.Organization,
		&a.Status, &a.PaymentMethod, &a.PaymentOrderID, &a.TicketCode, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	return &a, nil
}

// MarkPaidIfPending flips status to paid only when the row is still pending,
// in one conditional UPDATE so concurrent confirmations cannot double-apply.
// Empty method or orderRef arguments leave the existing columns untouched.
// Returns (attendee, false, nil) when the row exists but was already paid.
func (r *Repository) MarkPaidIfPending(ctx context.Context, id uuid.UUID, method, orderRef string) (*models.Attendee, bool, error) {
	const q = `
		UPDATE attendees
		SET status = $2,
		    payment_method = COALESCE(NULLIF($3, ''), payment_method),
		    payment_order_id = COALESCE(NULLIF($4, ''), payment_order_id)
		WHERE id = $1 AND status = $5
		RETURNING ` + attendeeColumns

	var a models.Attendee
	err := r.pool.QueryRow(ctx, q, id, models.StatusPaid, method, orderRef, models.StatusPending).Scan(
		&a.ID, &a.FullName, &a.DNI, &a.Email, &a.Phone, &a.Role, &a.Organization,
		&a.Status, &a.PaymentMethod, &a.PaymentOrderID, &a.TicketCode, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// Row missing, or no longer pending. Disambiguate for the caller.
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mark attendee paid: %w", err)
	}
	return &a, true, nil
}

// SetPaymentRef stores the gateway reference while the payment is still in
// flight so a later webhook can associate its result with this attendee.
func (r *Repository) SetPaymentRef(ctx context.Context, id uuid.UUID, method, orderRef string) error {
	const q = `
		UPDATE attendees
		SET payment_method = $2, payment_order_id = $3
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, q, id, method, orderRef)
	if err != nil {
		return fmt.Errorf("set payment ref: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set payment ref: attendee %s not found", id)
	}
	return nil
}

// ForceMarkPaid marks an attendee paid unconditionally. Admin override path.
func (r *Repository) ForceMarkPaid(ctx context.Context, id uuid.UUID, method, orderRef string) (*models.Attendee, error) {
	const q = `
		UPDATE attendees
		SET status = $2, payment_method = $3, payment_order_id = $4
		WHERE id = $1
		RETURNING ` + attendeeColumns

	var a models.Attendee
	err := r.pool.QueryRow(ctx, q, id, models.StatusPaid, method, orderRef).Scan(
		&a.ID, &a.FullName, &a.DNI, &a.Email, &a.Phone, &a.Role, &a.Organization,
		&a.Status, &a.PaymentMethod, &a.PaymentOrderID, &a.TicketCode, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("force mark paid: %w", err)
	}
	return &a, nil
}

// RecordUnreconciled logs an approved charge whose attendee update failed so
// operators can resolve it by hand.
func (r *Repository) RecordUnreconciled(ctx context.Context, attendeeID uuid.UUID, paymentID, method string, amount float64) error {
	const q = `
		INSERT INTO unreconciled_payments (attendee_id, payment_id, method, amount)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.pool.Exec(ctx, q, attendeeID, paymentID, method, amount); err != nil {
		return fmt.Errorf("record unreconciled payment: %w", err)
	}
	return nil
}

// ListUnreconciled returns unresolved payment discrepancies, newest first.
func (r *Repository) ListUnreconciled(ctx context.Context) ([]models.UnreconciledPayment, error) {
	const q = `
		SELECT id, attendee_id, payment_id, method, amount, created_at
		FROM unreconciled_payments
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list unreconciled payments: %w", err)
	}
	defer rows.Close()

	var out []models.UnreconciledPayment
	for rows.Next() {
		var p models.UnreconciledPayment
		if err := rows.Scan(&p.ID, &p.AttendeeID, &p.PaymentID, &p.Method, &p.Amount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan unreconciled payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// List returns attendees newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status string) ([]models.Attendee, error) {
	const q = `
		SELECT ` + attendeeColumns + `
		FROM attendees
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, status)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var out []models.Attendee
	for rows.Next() {
		var a models.Attendee
		if err := rows.Scan(
			&a.ID, &a.FullName, &a.DNI, &a.Email, &a.Phone, &a.Role, &a.Organization,
			&a.Status, &a.PaymentMethod, &a.PaymentOrderID, &a.TicketCode, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes a registration. Returns false when the id does not exist.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM attendees WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete attendee: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Stats aggregates registration counts for the admin dashboard.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE role = 'student'),
			COUNT(*) FILTER (WHERE role = 'professional')
		FROM attendees`

	var s Stats
	if err := r.pool.QueryRow(ctx, q).Scan(&s.Total, &s.Paid, &s.Pending, &s.Students, &s.Professionals); err != nil {
		return nil, fmt.Errorf("attendee stats: %w", err)
	}
	return &s, nil
}
