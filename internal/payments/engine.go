package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetsimposio/backend/internal/metrics"
	"github.com/vetsimposio/backend/internal/models"
	"github.com/vetsimposio/backend/internal/pricing"
)

// AttendeeStore is the registration persistence surface the engine needs.
// Lookups return (nil, nil) when no record matches. MarkPaidIfPending must be
// a single conditional update (only when status is still pending): that
// per-row check-then-set is the correctness mechanism for the race between
// the synchronous charge path and a concurrent webhook delivery.
type AttendeeStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Attendee, error)
	FindByPaymentRef(ctx context.Context, paymentID string) (*models.Attendee, error)
	MarkPaidIfPending(ctx context.Context, id uuid.UUID, method, orderRef string) (*models.Attendee, bool, error)
	SetPaymentRef(ctx context.Context, id uuid.UUID, method, orderRef string) error
	ForceMarkPaid(ctx context.Context, id uuid.UUID, method, orderRef string) (*models.Attendee, error)
	RecordUnreconciled(ctx context.Context, attendeeID uuid.UUID, paymentID, method string, amount float64) error
}

// Notifier dispatches transactional emails. Implementations must contain all
// failures: these calls can never error and never block beyond their own
// internal timeout, so notification outcome cannot alter a payment result.
type Notifier interface {
	PaymentConfirmed(ctx context.Context, a *models.Attendee, amount float64)
	PaymentRejected(ctx context.Context, a *models.Attendee, amount float64, reason string)
	PaymentPending(ctx context.Context, a *models.Attendee, amount float64, method string)
}

// Charge outcomes.
const (
	OutcomeApproved    = "approved"
	OutcomePending     = "pending"
	OutcomeAlreadyPaid = "already_paid"
)

// ChargeInput is a charge request against an existing registration.
type ChargeInput struct {
	AttendeeID   uuid.UUID
	Token        string
	Amount       float64 // client-claimed amount; re-verified before charging
	PayerEmail   string
	Method       string // models.MethodYape or models.MethodCard
	Installments int
	MethodID     string // gateway payment_method_id for card payments
	IssuerID     string
}

// ChargeOutcome is the result of a non-failed charge.
type ChargeOutcome struct {
	Attendee  *models.Attendee `json:"attendee"`
	PaymentID string           `json:"payment_id,omitempty"`
	Status    string           `json:"status"`
	Message   string           `json:"message,omitempty"`
}

// Engine reconciles registration state with the payment gateway's
// authoritative outcome, transitioning pending -> paid exactly once and
// coordinating exactly one notification per outcome.
type Engine struct {
	gateway     Gateway
	store       AttendeeStore
	notifier    Notifier
	pricing     *pricing.Resolver
	description string
	now         func() time.Time
	logger      *zap.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(gateway Gateway, store AttendeeStore, notifier Notifier, resolver *pricing.Resolver, description string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		gateway:     gateway,
		store:       store,
		notifier:    notifier,
		pricing:     resolver,
		description: description,
		now:         time.Now,
		logger:      logger,
	}
}

// Charge initiates a payment for a pending registration. The expected amount
// is recomputed server-side; a mismatch rejects before the gateway is
// contacted. On approval the registration is transitioned to paid with a
// conditional update. The dispatched notification can never change the
// returned result.
func (e *Engine) Charge(ctx context.Context, in ChargeInput) (*ChargeOutcome, error) {
	a, err := e.store.GetByID(ctx, in.AttendeeID)
	if err != nil {
		return nil, fmt.Errorf("load attendee: %w", err)
	}
	if a == nil {
		return nil, ErrAttendeeNotFound
	}
	if a.Paid() {
		// Duplicate submission for an already-completed registration:
		// success no-op, no gateway call, no email.
		return &ChargeOutcome{Attendee: a, Status: OutcomeAlreadyPaid}, nil
	}

	expected, err := e.pricing.VerifyAmount(in.Amount, in.Method, e.now())
	if err != nil {
		return nil, err
	}

	methodID := in.MethodID
	installments := in.Installments
	if in.Method == models.MethodYape {
		methodID = models.MethodYape
		installments = 1
	}

	result, err := e.gateway.CreatePayment(ctx, CreatePaymentInput{
		Token:          in.Token,
		Amount:         expected,
		Description:    e.description,
		PayerEmail:     in.PayerEmail,
		Installments:   installments,
		MethodID:       methodID,
		IssuerID:       in.IssuerID,
		IdempotencyKey: fmt.Sprintf("%s_%s_%d", in.Method, a.ID, e.now().UnixMilli()),
	})
	if err != nil {
		metrics.PaymentsTotal.WithLabelValues(in.Method, "error").Inc()
		return nil, fmt.Errorf("gateway charge: %w", err)
	}
	metrics.PaymentsTotal.WithLabelValues(in.Method, result.Status).Inc()

	orderRef := fmt.Sprintf("mp_%s_%s", in.Method, result.ID)

	switch {
	case result.Approved():
		updated, ok, err := e.store.MarkPaidIfPending(ctx, a.ID, in.Method, orderRef)
		if err != nil {
			e.logger.Error("paid but not recorded",
				zap.String("attendee_id", a.ID.String()),
				zap.String("payment_id", result.ID),
				zap.Error(err),
			)
			if recErr := e.store.RecordUnreconciled(ctx, a.ID, result.ID, in.Method, expected); recErr != nil {
				e.logger.Error("record unreconciled payment failed", zap.Error(recErr))
			}
			return nil, ErrPaidNotRecorded
		}
		if !ok {
			// Lost the race to a concurrent webhook: already paid.
			a.Status = models.StatusPaid
			return &ChargeOutcome{Attendee: a, PaymentID: result.ID, Status: OutcomeAlreadyPaid}, nil
		}
		e.notifier.PaymentConfirmed(ctx, updated, expected)
		return &ChargeOutcome{Attendee: updated, PaymentID: result.ID, Status: OutcomeApproved}, nil

	case result.Declined():
		// The record stays pending and retryable; rejection is best-effort
		// notified and surfaced with a localized explanation.
		e.notifier.PaymentRejected(ctx, a, expected, RejectionMessage(result.StatusDetail))
		return nil, newRejectionError(result.StatusDetail)

	default:
		// pending / in_process: associate the payment id with the record so
		// the webhook can locate it once the gateway settles.
		if err := e.store.SetPaymentRef(ctx, a.ID, in.Method, orderRef); err != nil {
			e.logger.Error("store payment ref failed", zap.String("attendee_id", a.ID.String()), zap.Error(err))
		}
		e.notifier.PaymentPending(ctx, a, expected, in.Method)
		return &ChargeOutcome{
			Attendee:  a,
			PaymentID: result.ID,
			Status:    OutcomePending,
			Message:   RejectionMessage("pending_contingency"),
		}, nil
	}
}

// Reconcile aligns the registration identified by a gateway payment id with
// the gateway's authoritative status. It is safe under duplicate delivery:
// once a registration is paid every further signal is a no-op.
func (e *Engine) Reconcile(ctx context.Context, paymentID string) error {
	result, err := e.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}

	a, err := e.store.FindByPaymentRef(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("find attendee for payment %s: %w", paymentID, err)
	}
	if a == nil {
		e.logger.Info("no attendee for payment", zap.String("payment_id", paymentID))
		return nil
	}
	if a.Paid() {
		e.logger.Info("attendee already paid", zap.String("attendee_id", a.ID.String()), zap.String("payment_id", paymentID))
		return nil
	}

	amount := e.pricing.ExpectedAt(e.now(), a.PaymentMethod)

	switch {
	case result.Approved():
		updated, ok, err := e.store.MarkPaidIfPending(ctx, a.ID, "", "")
		if err != nil {
			return fmt.Errorf("mark paid: %w", err)
		}
		if !ok {
			// Concurrent synchronous path won; nothing left to do.
			return nil
		}
		e.notifier.PaymentConfirmed(ctx, updated, amount)
		e.logger.Info("attendee marked paid via webhook",
			zap.String("attendee_id", a.ID.String()),
			zap.String("payment_id", paymentID),
		)

	case result.Declined():
		e.notifier.PaymentRejected(ctx, a, amount, RejectionMessage(result.StatusDetail))

	default:
		// pending / in_process: no state change and no notification; the
		// synchronous path already acknowledged the pending payment.
	}
	return nil
}

// MarkPaidManually is the trusted-operator override: force the registration
// to paid with a synthetic order reference and send the confirmation, without
// any payment verification.
func (e *Engine) MarkPaidManually(ctx context.Context, id uuid.UUID) (*models.Attendee, error) {
	a, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load attendee: %w", err)
	}
	if a == nil {
		return nil, ErrAttendeeNotFound
	}

	orderRef := fmt.Sprintf("manual_%d", e.now().UnixMilli())
	updated, err := e.store.ForceMarkPaid(ctx, id, models.MethodManual, orderRef)
	if err != nil {
		return nil, fmt.Errorf("mark paid: %w", err)
	}
	if updated == nil {
		return nil, ErrAttendeeNotFound
	}
	metrics.PaymentsTotal.WithLabelValues(models.MethodManual, GatewayStatusApproved).Inc()

	e.notifier.PaymentConfirmed(ctx, updated, e.pricing.BasePriceAt(e.now()))
	return updated, nil
}

// Status is a pass-through read of the gateway's view of a payment.
func (e *Engine) Status(ctx context.Context, paymentID string) (*PaymentResult, error) {
	return e.gateway.GetPayment(ctx, paymentID)
}
