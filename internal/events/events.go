package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventBookingCreated   = "booking_created"
	EventPaymentOrdered   = "payment_ordered"
	EventPaymentSucceeded = "payment_succeeded"
	EventPaymentFailed    = "payment_failed"
	EventBookingPaid      = "booking_paid"
	EventRateUpdated      = "rate_updated"
)

// BookingEventPayload is the booking snapshot sent to subscribers.
type BookingEventPayload struct {
	BookingID      int64            `json:"booking_id"`
	UserID         int64            `json:"user_id"`
	Pincode        string           `json:"pincode"`
	Status         string           `json:"status"`
	PickupDate     time.Time        `json:"pickup_date"`
	PredictedPrice *decimal.Decimal `json:"predicted_price,omitempty"`
}

// PaymentEventPayload describes a settlement step.
type PaymentEventPayload struct {
	BookingID            int64           `json:"booking_id"`
	PaymentID            int64           `json:"payment_id,omitempty"`
	TransactionReference string          `json:"transaction_reference"`
	GatewayPaymentID     string          `json:"gateway_payment_id,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Status               string          `json:"status"`
}

type RateEventPayload struct {
	RateID       int64           `json:"rate_id"`
	MaterialName string          `json:"material_name"`
	RatePerKg    decimal.Decimal `json:"rate_per_kg"`
}

type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	wildcard    []EventHandler
	onError     func(event *Event, err error)
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for an event type. "*" receives every event.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if eventType == "*" {
		b.wildcard = append(b.wildcard, handler)
		return
	}
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// OnError sets the callback for handler failures.
func (b *EventBus) OnError(fn func(event *Event, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Publish runs subscribers synchronously in registration order.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.wildcard...)
	onError := b.onError
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
