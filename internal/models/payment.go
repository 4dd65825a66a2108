package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID                   int64           `json:"id"`
	BookingID            int64           `json:"booking_id"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Status               string          `json:"payment_status"` // pending, success, failed
	Gateway              string          `json:"payment_gateway"`
	TransactionReference string          `json:"transaction_reference"`
	GatewayPaymentID     string          `json:"gateway_payment_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// PaymentCallback is the client-relayed gateway confirmation.
type PaymentCallback struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// OrderResult is returned to the client after a gateway order is created.
type OrderResult struct {
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	PaymentKey string `json:"payment_key"`
}
