package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vetsimposio/backend/config"
)

// MercadoPagoClient talks to the MercadoPago payments REST API
// (POST /v1/payments, GET /v1/payments/{id}).
type MercadoPagoClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewMercadoPagoClient creates a gateway client from config.
func NewMercadoPagoClient(cfg config.MercadoPagoConfig, logger *zap.Logger) *MercadoPagoClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &MercadoPagoClient{
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type mpPayer struct {
	Email string `json:"email"`
}

type mpCreateRequest struct {
	Token             string  `json:"token"`
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description"`
	Installments      int     `json:"installments"`
	PaymentMethodID   string  `json:"payment_method_id"`
	IssuerID          int     `json:"issuer_id,omitempty"`
	Payer             mpPayer `json:"payer"`
}

type mpPaymentResponse struct {
	ID           int64  `json:"id"`
	Status       string `json:"status"`
	StatusDetail string `json:"status_detail"`
	Message      string `json:"message"` // set on API errors
}

// CreatePayment submits a charge. The caller's idempotency key lets the
// gateway collapse duplicate submissions of the same charge.
func (c *MercadoPagoClient) CreatePayment(ctx context.Context, in CreatePaymentInput) (*PaymentResult, error) {
	installments := in.Installments
	if installments == 0 {
		installments = 1
	}
	body := mpCreateRequest{
		Token:             in.Token,
		TransactionAmount: in.Amount,
		Description:       in.Description,
		Installments:      installments,
		PaymentMethodID:   in.MethodID,
		Payer:             mpPayer{Email: in.PayerEmail},
	}
	if in.IssuerID != "" {
		issuer, err := strconv.Atoi(in.IssuerID)
		if err != nil {
			return nil, fmt.Errorf("invalid issuer id %q: %w", in.IssuerID, err)
		}
		body.IssuerID = issuer
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("X-Idempotency-Key", in.IdempotencyKey)

	result, err := c.do(req)
	if err != nil {
		return nil, err
	}
	c.logger.Info("gateway payment created",
		zap.String("payment_id", result.ID),
		zap.String("status", result.Status),
		zap.String("status_detail", result.StatusDetail),
	)
	return result, nil
}

// GetPayment fetches the authoritative status of a payment by id.
func (c *MercadoPagoClient) GetPayment(ctx context.Context, paymentID string) (*PaymentResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	return c.do(req)
}

func (c *MercadoPagoClient) do(req *http.Request) (*PaymentResult, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	var payment mpPaymentResponse
	if err := json.Unmarshal(raw, &payment); err != nil {
		return nil, fmt.Errorf("decode gateway response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("gateway error %d: %s", resp.StatusCode, payment.Message)
	}

	return &PaymentResult{
		ID:           strconv.FormatInt(payment.ID, 10),
		Status:       payment.Status,
		StatusDetail: payment.StatusDetail,
	}, nil
}
