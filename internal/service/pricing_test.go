package service

import (
	"testing"

	"blinklean/internal/config"
	"blinklean/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPricingPolicy(t *testing.T) {
	b := &models.Booking{PredictedPrice: decPtr("87.456")}

	p, err := NewPricingPolicy(config.PaymentConfig{FixedAmount: 199})
	require.NoError(t, err)
	amount, err := p.Amount(b)
	require.NoError(t, err)
	assert.Equal(t, "199", amount.String())

	p, err = NewPricingPolicy(config.PaymentConfig{Pricing: "predicted", FixedAmount: 199})
	require.NoError(t, err)
	amount, err = p.Amount(b)
	require.NoError(t, err)
	assert.Equal(t, "87.46", amount.StringFixed(2))

	amount, err = p.Amount(&models.Booking{})
	require.NoError(t, err)
	assert.Equal(t, "199", amount.String())

	_, err = NewPricingPolicy(config.PaymentConfig{Pricing: "auction"})
	assert.Error(t, err)
}
