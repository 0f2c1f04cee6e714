package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ValidateWebhookSignature checks MercadoPago's x-signature header.
// The header carries `ts=<timestamp>,v1=<hex>`; the hex digest is an
// HMAC-SHA256 over the manifest `id:<paymentID>;request-id:<requestID>;ts:<ts>;`
// keyed with the shared webhook secret.
func ValidateWebhookSignature(xSignature, xRequestID, paymentID, secret string) bool {
	var ts, hash string
	for _, part := range strings.Split(xSignature, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			hash = value
		}
	}
	if ts == "" || hash == "" {
		return false
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", paymentID, xRequestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(hash))
}
