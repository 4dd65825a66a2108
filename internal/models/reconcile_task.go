package models

import "time"

// ReconcileTask is a queued repair job for a booking whose payment settled
// but whose own status update did not.
type ReconcileTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	BookingID   int64      `json:"booking_id"`
	PaymentID   int64      `json:"payment_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}

// ReconcileMarkBookingPaid re-applies the paid status to a booking whose payment settled.
const ReconcileMarkBookingPaid = "mark_booking_paid"

// ReconcilePayload is stored as JSON in ReconcileTask.Payload.
type ReconcilePayload struct {
	OrderID          string `json:"order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Reason           string `json:"reason,omitempty"`
}
