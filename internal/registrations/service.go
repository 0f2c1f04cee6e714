package registrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetsimposio/backend/internal/models"
)

// Store is the persistence surface intake needs.
type Store interface {
	Create(ctx context.Context, a *models.Attendee) error
	GetByDNI(ctx context.Context, dni string) (*models.Attendee, error)
	GetByEmail(ctx context.Context, email string) (*models.Attendee, error)
}

// AlreadyPaidError signals a duplicate registration that already holds a
// confirmed ticket. The attendee is attached so callers can surface it.
type AlreadyPaidError struct {
	Field    string
	Attendee *models.Attendee
}

func (e *AlreadyPaidError) Error() string {
	return fmt.Sprintf("attendee with this %s is already registered and paid", e.Field)
}

// Service implements registration intake with dedup by DNI and email.
type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// RegisterInput is a validated intake request.
type RegisterInput struct {
	FullName     string
	DNI          string
	Email        string
	Phone        string
	Role         string
	Organization string
}

// Register creates a pending registration, or returns the existing one when
// the same person registers again before paying. A duplicate that already
// paid is rejected with AlreadyPaidError. The created flag is false when an
// existing pending row was reused.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Attendee, bool, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if existing, err := s.store.GetByDNI(ctx, in.DNI); err != nil {
		return nil, false, err
	} else if existing != nil {
		return s.resume(existing, "DNI")
	}

	if existing, err := s.store.GetByEmail(ctx, email); err != nil {
		return nil, false, err
	} else if existing != nil {
		return s.resume(existing, "email")
	}

	a := &models.Attendee{
		FullName:     strings.TrimSpace(in.FullName),
		DNI:          in.DNI,
		Email:        email,
		Phone:        in.Phone,
		Role:         in.Role,
		Organization: strings.TrimSpace(in.Organization),
		Status:       models.StatusPending,
		TicketCode:   newTicketCode(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, false, err
	}
	s.logger.Info("attendee registered",
		zap.String("attendee_id", a.ID.String()),
		zap.String("role", a.Role),
	)
	return a, true, nil
}

// resume hands back the existing pending row so the person can retry
// payment, or rejects when they already hold a ticket.
func (s *Service) resume(existing *models.Attendee, field string) (*models.Attendee, bool, error) {
	if existing.Paid() {
		return nil, false, &AlreadyPaidError{Field: field, Attendee: existing}
	}
	s.logger.Info("pending registration resumed",
		zap.String("attendee_id", existing.ID.String()),
		zap.String("matched_by", field),
	)
	return existing, false, nil
}

func newTicketCode() string {
	return "VET-" + strings.ToUpper(uuid.New().String()[:8])
}
