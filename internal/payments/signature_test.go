package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signHeader(paymentID, requestID, ts, secret string) string {
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", paymentID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestValidateWebhookSignature(t *testing.T) {
	const (
		secret    = "shared-secret"
		paymentID = "PAY123"
		requestID = "req-42"
		ts        = "1717171717"
	)
	valid := signHeader(paymentID, requestID, ts, secret)

	tests := []struct {
		name      string
		signature string
		requestID string
		paymentID string
		secret    string
		want      bool
	}{
		{"valid", valid, requestID, paymentID, secret, true},
		{"valid with spaces", "ts=" + ts + ", v1=" + valid[len("ts="+ts+",v1="):], requestID, paymentID, secret, true},
		{"wrong secret", valid, requestID, paymentID, "other-secret", false},
		{"tampered payment id", valid, requestID, "PAY999", secret, false},
		{"tampered request id", valid, "req-43", paymentID, secret, false},
		{"missing v1", "ts=" + ts, requestID, paymentID, secret, false},
		{"missing ts", "v1=deadbeef", requestID, paymentID, secret, false},
		{"garbage header", "not-a-signature", requestID, paymentID, secret, false},
		{"empty header", "", requestID, paymentID, secret, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateWebhookSignature(tt.signature, tt.requestID, tt.paymentID, tt.secret)
			assert.Equal(t, tt.want, got)
		})
	}
}
