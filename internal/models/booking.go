package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Booking struct {
	ID                int64            `json:"id"`
	UserID            int64            `json:"user_id"`
	PickupAddress     string           `json:"pickup_address"`
	Pincode           string           `json:"pincode"`
	SelectedMaterials []MaterialLine   `json:"selected_materials"`
	EstimatedWeight   *decimal.Decimal `json:"estimated_weight,omitempty"`
	PredictedPrice    *decimal.Decimal `json:"predicted_price,omitempty"`
	FinalWeight       *decimal.Decimal `json:"final_weight,omitempty"`
	FinalPayoutAmount *decimal.Decimal `json:"final_payout_amount,omitempty"`
	PaymentStatus     string           `json:"payment_status"` // pending, completed
	PickupDate        time.Time        `json:"pickup_date"`
	Status            string           `json:"status"` // scheduled, completed, cancelled, paid
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// IsSettled reports whether the booking reached its terminal paid state.
func (b *Booking) IsSettled() bool {
	return b.Status == BookingStatusPaid
}
