package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendeeRole is the registrant category.
const (
	RoleStudent      = "student"
	RoleProfessional = "professional"
)

// AttendeeStatus for the payment lifecycle. The only transition is
// pending -> paid; there is no reversal path.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// PaymentMethod values stored once an attendee is paid.
const (
	MethodYape   = "yape"
	MethodCard   = "card"
	MethodManual = "manual"
)

// Attendee is a single registration with its payment lifecycle state.
type Attendee struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	DNI            string    `json:"dni"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Role           string    `json:"role"`
	Organization   string    `json:"organization,omitempty"`
	Status         string    `json:"status"`
	PaymentMethod  string    `json:"payment_method,omitempty"`
	PaymentOrderID string    `json:"payment_order_id,omitempty"`
	TicketCode     string    `json:"ticket_code"`
	CreatedAt      time.Time `json:"created_at"`
}

// Paid reports whether the attendee has completed payment.
func (a *Attendee) Paid() bool {
	return a.Status == StatusPaid
}

// UnreconciledPayment records a gateway-approved charge whose attendee row
// could not be updated. Money has moved but the record did not; an operator
// resolves these manually.
type UnreconciledPayment struct {
	ID         uuid.UUID `json:"id"`
	AttendeeID uuid.UUID `json:"attendee_id"`
	PaymentID  string    `json:"payment_id"`
	Method     string    `json:"method"`
	Amount     float64   `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}
