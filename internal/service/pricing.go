package service

import (
	"fmt"

	"blinklean/internal/config"
	"blinklean/internal/domain"
	"blinklean/internal/models"

	"github.com/shopspring/decimal"
)

// FixedPricing charges the same amount for every booking.
type FixedPricing struct {
	Rupees decimal.Decimal
}

func (p FixedPricing) Amount(_ *models.Booking) (decimal.Decimal, error) {
	return p.Rupees, nil
}

// PredictedPricing charges the booking's predicted price and falls back to
// Fallback when the booking carries none.
type PredictedPricing struct {
	Fallback decimal.Decimal
}

func (p PredictedPricing) Amount(b *models.Booking) (decimal.Decimal, error) {
	if b.PredictedPrice == nil || !b.PredictedPrice.IsPositive() {
		return p.Fallback, nil
	}
	return b.PredictedPrice.Round(2), nil
}

func NewPricingPolicy(cfg config.PaymentConfig) (domain.PricingPolicy, error) {
	fixed := decimal.NewFromInt(cfg.FixedAmount)
	switch cfg.Pricing {
	case "", "fixed":
		return FixedPricing{Rupees: fixed}, nil
	case "predicted":
		return PredictedPricing{Fallback: fixed}, nil
	default:
		return nil, fmt.Errorf("unknown pricing policy %q", cfg.Pricing)
	}
}
