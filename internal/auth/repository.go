package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetsimposio/backend/internal/models"
)

// Repository handles admin user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByEmail returns the admin with the given email, or (nil, nil).
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	const q = `SELECT id, email, password_hash, created_at FROM admin_users WHERE LOWER(email) = LOWER($1)`
	var u models.AdminUser
	err := r.pool.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &u, nil
}

// Seed inserts the initial admin account if the email is not taken.
func (r *Repository) Seed(ctx context.Context, email, passwordHash string) error {
	const q = `
		INSERT INTO admin_users (email, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, email, passwordHash); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
