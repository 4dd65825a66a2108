package domain

import (
	"context"
	"time"

	"blinklean/internal/models"

	"github.com/shopspring/decimal"
)

type ZoneRepository interface {
	GetActiveZoneByPincode(ctx context.Context, pincode string) (*models.Zone, error)
	GetActiveZones(ctx context.Context) ([]*models.Zone, error)
	UpsertZone(ctx context.Context, zone *models.Zone) error
}

type RateRepository interface {
	GetActiveRateByName(ctx context.Context, name string) (*models.ScrapRate, error)
	GetActiveRates(ctx context.Context) ([]*models.ScrapRate, error)
	GetRateByID(ctx context.Context, id int64) (*models.ScrapRate, error)
	UpdateRate(ctx context.Context, id int64, ratePerKg decimal.Decimal) error
	UpsertRate(ctx context.Context, rate *models.ScrapRate) error
	CountRates(ctx context.Context) (int, error)
}

type UserRepository interface {
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	MarkBookingPaid(ctx context.Context, id int64) error
}

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	// TransitionPayment moves a payment from `from` to `to` and reports whether a row changed.
	TransitionPayment(ctx context.Context, reference, from, to, gatewayPaymentID string) (bool, error)
}

type ServiceRepository interface {
	GetServices(ctx context.Context) ([]*models.Service, error)
	UpsertService(ctx context.Context, service *models.Service) error
}

type ReconcileQueue interface {
	EnqueueReconcile(ctx context.Context, task *models.ReconcileTask) error
}

// Store is the shared key-value store used for the admission guard, caches and locks.
type Store interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// OrderRequest is a gateway order creation request. Amount is in paise.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
}

type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error)
	KeyID() string
}

type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) bool
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type ZoneResolver interface {
	Resolve(ctx context.Context, pincode string, lat, lng *float64) (*models.Eligibility, error)
}

type Valuator interface {
	Estimate(ctx context.Context, lines []models.MaterialLine) (*models.Valuation, error)
}

type AdmissionGuard interface {
	Held(ctx context.Context, requester string) (bool, error)
	Acquire(ctx context.Context, requester string) (bool, error)
}

type UserResolver interface {
	ResolveByPhone(ctx context.Context, phone string) (*models.User, error)
}

// PricingPolicy decides the amount charged for a booking, in rupees.
type PricingPolicy interface {
	Amount(booking *models.Booking) (decimal.Decimal, error)
}
