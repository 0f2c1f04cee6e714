package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetsimposio/backend/internal/models"
)

func webhookRouter(h *WebhookHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/mercadopago", h.Receive)
	r.GET("/webhooks/mercadopago", h.Healthcheck)
	return r
}

func postWebhook(t *testing.T, r *gin.Engine, body map[string]any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func paymentEvent(paymentID string) map[string]any {
	return map[string]any{
		"type":   "payment",
		"action": "payment.updated",
		"data":   map[string]any{"id": paymentID},
	}
}

func TestWebhookApprovedMarksPaid(t *testing.T) {
	a := pendingAttendee()
	a.PaymentOrderID = "mp_yape_PAY123"
	gw := &fakeGateway{getResult: &PaymentResult{ID: "PAY123", Status: GatewayStatusApproved}}
	store := newFakeStore(a)
	notifier := &fakeNotifier{}
	h := NewWebhookHandler(testEngine(gw, store, notifier), "", nil)
	r := webhookRouter(h)

	w := postWebhook(t, r, paymentEvent("PAY123"), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	stored, _ := store.GetByID(context.Background(), a.ID)
	assert.Equal(t, models.StatusPaid, stored.Status)
	assert.Equal(t, 1, notifier.confirmed)

	// Duplicate delivery is acknowledged but changes nothing.
	w = postWebhook(t, r, paymentEvent("PAY123"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, notifier.confirmed)
}

func TestWebhookMissingPaymentID(t *testing.T) {
	h := NewWebhookHandler(testEngine(&fakeGateway{}, newFakeStore(), &fakeNotifier{}), "", nil)
	w := postWebhook(t, webhookRouter(h), map[string]any{"type": "payment"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookIgnoresNonPaymentEvents(t *testing.T) {
	gw := &fakeGateway{}
	h := NewWebhookHandler(testEngine(gw, newFakeStore(), &fakeNotifier{}), "", nil)
	body := map[string]any{"type": "plan", "action": "plan.updated", "data": map[string]any{"id": "X"}}
	w := postWebhook(t, webhookRouter(h), body, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, gw.getCalls)
}

func TestWebhookSignature(t *testing.T) {
	const secret = "hook-secret"
	a := pendingAttendee()
	a.PaymentOrderID = "mp_card_PAY9"
	gw := &fakeGateway{getResult: &PaymentResult{ID: "PAY9", Status: GatewayStatusApproved}}
	store := newFakeStore(a)
	h := NewWebhookHandler(testEngine(gw, store, &fakeNotifier{}), secret, nil)
	r := webhookRouter(h)

	t.Run("invalid signature rejected", func(t *testing.T) {
		w := postWebhook(t, r, paymentEvent("PAY9"), map[string]string{
			"x-signature":  "ts=111,v1=deadbeef",
			"x-request-id": "req-1",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		stored, _ := store.GetByID(context.Background(), a.ID)
		assert.Equal(t, models.StatusPending, stored.Status)
	})

	t.Run("valid signature accepted", func(t *testing.T) {
		w := postWebhook(t, r, paymentEvent("PAY9"), map[string]string{
			"x-signature":  signHeader("PAY9", "req-1", "1717171717", secret),
			"x-request-id": "req-1",
		})
		assert.Equal(t, http.StatusOK, w.Code)
		stored, _ := store.GetByID(context.Background(), a.ID)
		assert.Equal(t, models.StatusPaid, stored.Status)
	})
}

func TestWebhookNoSecretPermissiveFallback(t *testing.T) {
	a := pendingAttendee()
	a.PaymentOrderID = "mp_yape_PAY77"
	gw := &fakeGateway{getResult: &PaymentResult{ID: "PAY77", Status: GatewayStatusApproved}}
	store := newFakeStore(a)
	h := NewWebhookHandler(testEngine(gw, store, &fakeNotifier{}), "", nil)

	// Signature header present but no secret configured: accepted.
	w := postWebhook(t, webhookRouter(h), paymentEvent("PAY77"), map[string]string{
		"x-signature": "ts=1,v1=bogus",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	stored, _ := store.GetByID(context.Background(), a.ID)
	assert.Equal(t, models.StatusPaid, stored.Status)
}

func TestWebhookGatewayErrorStillAcks(t *testing.T) {
	gw := &fakeGateway{getErr: assert.AnError}
	h := NewWebhookHandler(testEngine(gw, newFakeStore(), &fakeNotifier{}), "", nil)
	w := postWebhook(t, webhookRouter(h), paymentEvent("PAYX"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookHealthcheck(t *testing.T) {
	h := NewWebhookHandler(testEngine(&fakeGateway{}, newFakeStore(), &fakeNotifier{}), "", nil)
	r := webhookRouter(h)
	req := httptest.NewRequest(http.MethodGet, "/webhooks/mercadopago", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "active")
}
