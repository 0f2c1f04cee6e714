package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser is a dashboard operator account.
type AdminUser struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
