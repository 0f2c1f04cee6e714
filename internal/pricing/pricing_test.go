package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vetsimposio/backend/config"
	"github.com/vetsimposio/backend/internal/models"
)

var testDeadline = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func testResolver() *Resolver {
	return NewResolver(config.PricingConfig{
		EarlyPrice:    250.00,
		RegularPrice:  350.00,
		Deadline:      testDeadline,
		CardSurcharge: 0.05,
		Currency:      "PEN",
	})
}

func TestBasePriceAt(t *testing.T) {
	r := testResolver()

	tests := []struct {
		name string
		at   time.Time
		want float64
	}{
		{"well before deadline", testDeadline.AddDate(0, -2, 0), 250.00},
		{"one second before deadline", testDeadline.Add(-time.Second), 250.00},
		{"exactly at deadline", testDeadline, 350.00},
		{"after deadline", testDeadline.Add(time.Hour), 350.00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.BasePriceAt(tt.at))
		})
	}
}

func TestTotalFor(t *testing.T) {
	r := testResolver()

	assert.InDelta(t, 262.50, r.TotalFor(250.00, models.MethodCard), AmountTolerance)
	assert.InDelta(t, 367.50, r.TotalFor(350.00, models.MethodCard), AmountTolerance)
	assert.Equal(t, 250.00, r.TotalFor(250.00, models.MethodYape))
	assert.Equal(t, 250.00, r.TotalFor(250.00, models.MethodManual))
}

func TestVerifyAmount(t *testing.T) {
	r := testResolver()
	early := testDeadline.Add(-24 * time.Hour)
	late := testDeadline.Add(24 * time.Hour)

	tests := []struct {
		name    string
		claimed float64
		method  string
		now     time.Time
		wantErr bool
	}{
		{"exact yape early", 250.00, models.MethodYape, early, false},
		{"exact card early", 262.50, models.MethodCard, early, false},
		{"within tolerance", 262.51, models.MethodCard, early, false},
		{"stale early tier after deadline", 250.00, models.MethodYape, late, true},
		{"tampered amount", 1.00, models.MethodCard, early, true},
		{"missing surcharge", 250.00, models.MethodCard, early, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.VerifyAmount(tt.claimed, tt.method, tt.now)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrPriceMismatch))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
