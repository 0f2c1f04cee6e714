// Package pricing resolves the time-gated ticket price and the
// method-specific surcharge charged to the payer.
package pricing

import (
	"errors"
	"math"
	"time"

	"github.com/vetsimposio/backend/config"
	"github.com/vetsimposio/backend/internal/models"
)

// AmountTolerance is the maximum absolute deviation accepted between the
// amount a client claims and the amount recomputed server-side.
const AmountTolerance = 0.01

// ErrPriceMismatch means the client-submitted amount does not match the
// server-side recomputation; the caller should refresh pricing and retry.
var ErrPriceMismatch = errors.New("submitted amount does not match current price; refresh and retry")

// Resolver computes prices from injected configuration. It must be consulted
// at charge time; client-submitted amounts are never trusted.
type Resolver struct {
	cfg config.PricingConfig
}

// NewResolver creates a pricing resolver.
func NewResolver(cfg config.PricingConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// BasePriceAt returns the tier price in effect at t. The early tier applies
// strictly before the deadline; at and after the deadline the regular tier
// applies.
func (r *Resolver) BasePriceAt(t time.Time) float64 {
	if t.Before(r.cfg.Deadline) {
		return r.cfg.EarlyPrice
	}
	return r.cfg.RegularPrice
}

// TotalFor returns the amount the payer must be charged for the given base
// price and payment method. Card payments carry the configured surcharge;
// the wallet rail and manual payments carry none.
func (r *Resolver) TotalFor(base float64, method string) float64 {
	if method == models.MethodCard {
		return base * (1 + r.cfg.CardSurcharge)
	}
	return base
}

// ExpectedAt returns the full charge amount for the method at time t.
func (r *Resolver) ExpectedAt(t time.Time, method string) float64 {
	return r.TotalFor(r.BasePriceAt(t), method)
}

// VerifyAmount recomputes the expected amount for the method at time now and
// rejects claimed amounts deviating by more than AmountTolerance. This guards
// against stale cached tiers and tampered submissions.
func (r *Resolver) VerifyAmount(claimed float64, method string, now time.Time) (float64, error) {
	expected := r.ExpectedAt(now, method)
	if math.Abs(claimed-expected) > AmountTolerance {
		return expected, ErrPriceMismatch
	}
	return expected, nil
}

// Currency returns the configured currency code.
func (r *Resolver) Currency() string {
	return r.cfg.Currency
}
