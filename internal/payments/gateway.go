package payments

import "context"

// Gateway statuses as reported by MercadoPago. The gateway is the source of
// truth for payment outcome; stored registration state is reconciled to it.
const (
	GatewayStatusApproved  = "approved"
	GatewayStatusRejected  = "rejected"
	GatewayStatusCancelled = "cancelled"
	GatewayStatusPending   = "pending"
	GatewayStatusInProcess = "in_process"
)

// CreatePaymentInput carries a charge request to the gateway. Token comes
// from the gateway's client-side tokenization step; Installments, MethodID
// and IssuerID apply to card payments only.
type CreatePaymentInput struct {
	Token          string
	Amount         float64
	Description    string
	PayerEmail     string
	Installments   int
	MethodID       string // gateway payment_method_id, e.g. "yape" or "visa"
	IssuerID       string
	IdempotencyKey string
}

// PaymentResult is the gateway's view of a payment.
type PaymentResult struct {
	ID           string
	Status       string
	StatusDetail string
}

// Approved reports whether the gateway authorized the payment.
func (p *PaymentResult) Approved() bool {
	return p.Status == GatewayStatusApproved
}

// Declined reports whether the gateway terminally refused the payment.
func (p *PaymentResult) Declined() bool {
	return p.Status == GatewayStatusRejected || p.Status == GatewayStatusCancelled
}

// Gateway is the narrow payment-processor surface the reconciliation engine
// depends on, so it can be exercised against fakes without a network.
type Gateway interface {
	CreatePayment(ctx context.Context, in CreatePaymentInput) (*PaymentResult, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentResult, error)
}
