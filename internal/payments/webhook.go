package payments

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vetsimposio/backend/internal/metrics"
	"github.com/vetsimposio/backend/pkg/response"
)

// WebhookPayload is the notification body MercadoPago posts. The payload's
// own status is never trusted; only the payment id is used, then the
// authoritative status is fetched from the gateway.
type WebhookPayload struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// WebhookHandler handles gateway payment notifications.
type WebhookHandler struct {
	engine *Engine
	secret string
	logger *zap.Logger
}

// NewWebhookHandler creates a webhook handler. An empty secret disables
// signature verification (permissive fallback).
func NewWebhookHandler(engine *Engine, secret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{engine: engine, secret: secret, logger: logger}
}

func (h *WebhookHandler) isPaymentEvent(p WebhookPayload) bool {
	return p.Type == "payment" || p.Action == "payment.updated" || p.Action == "payment.created"
}

// Receive handles POST /webhooks/mercadopago. It acknowledges 200 regardless
// of internal outcome so the gateway does not retry-storm; the exceptions are
// a payload with no discoverable payment id (400) and an explicit signature
// failure (401).
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("webhook body unreadable", zap.Error(err))
		metrics.WebhooksTotal.WithLabelValues("malformed").Inc()
		response.BadRequest(c, "no payment id")
		return
	}

	if !h.isPaymentEvent(payload) {
		h.logger.Info("ignoring non-payment notification",
			zap.String("type", payload.Type),
			zap.String("action", payload.Action),
		)
		metrics.WebhooksTotal.WithLabelValues("ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	paymentID := payload.Data.ID
	if paymentID == "" {
		h.logger.Warn("webhook without payment id", zap.String("action", payload.Action))
		metrics.WebhooksTotal.WithLabelValues("malformed").Inc()
		response.BadRequest(c, "no payment id")
		return
	}

	xSignature := c.GetHeader("x-signature")
	if h.secret != "" && xSignature != "" {
		xRequestID := c.GetHeader("x-request-id")
		if !ValidateWebhookSignature(xSignature, xRequestID, paymentID, h.secret) {
			h.logger.Warn("webhook signature invalid", zap.String("payment_id", paymentID))
			metrics.WebhooksTotal.WithLabelValues("bad_signature").Inc()
			response.Unauthorized(c, "invalid signature")
			return
		}
	}

	// Internal failures are swallowed: a 200 here prevents the gateway from
	// amplifying a transient error into a retry storm.
	if err := h.engine.Reconcile(c.Request.Context(), paymentID); err != nil {
		h.logger.Error("webhook reconcile failed", zap.String("payment_id", paymentID), zap.Error(err))
		metrics.WebhooksTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusOK, gin.H{"received": true, "error": "internal error"})
		return
	}
	metrics.WebhooksTotal.WithLabelValues("processed").Inc()
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// Healthcheck handles GET /webhooks/mercadopago so the endpoint can be
// verified from the gateway panel.
func (h *WebhookHandler) Healthcheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "active",
		"service":   "MercadoPago Webhook",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
