package api

import (
	"context"

	"blinklean/internal/models"
	"blinklean/internal/service"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/metadata"
)

type EligibilityResolver interface {
	Resolve(ctx context.Context, pincode string, lat, lng *float64) (*models.Eligibility, error)
}

type Estimator interface {
	Estimate(ctx context.Context, lines []models.MaterialLine) (*models.Valuation, error)
}

type BookingSubmitter interface {
	SubmitBooking(ctx context.Context, phone string, req service.SubmitBookingRequest) (*service.SubmitBookingResult, error)
}

type Settlement interface {
	CreateOrder(ctx context.Context, platform, phone string, bookingID int64) (*models.OrderResult, error)
	VerifyPayment(ctx context.Context, platform, phone string, cb models.PaymentCallback) (*service.VerifyResult, error)
	MarkOrderFailed(ctx context.Context, orderID string) error
}

type RateManager interface {
	ListRates(ctx context.Context) ([]*models.ScrapRate, error)
	UpdateRate(ctx context.Context, id int64, ratePerKg decimal.Decimal) (*models.ScrapRate, error)
}

type ServiceLister interface {
	ListServices(ctx context.Context, platform, pincode string) ([]models.ServiceListing, error)
}

// Services groups the operations exposed over HTTP and gRPC.
type Services struct {
	Zones    EligibilityResolver
	Valuator Estimator
	Bookings BookingSubmitter
	Payments Settlement
	Rates    RateManager
	Catalog  ServiceLister
}

// SettlementService implements SettlementServer on top of Services.
type SettlementService struct {
	svc Services
}

func NewSettlementService(svc Services) *SettlementService {
	return &SettlementService{svc: svc}
}

func (s *SettlementService) CheckEligibility(ctx context.Context, req *CheckEligibilityRequest) (*models.Eligibility, error) {
	e, err := s.svc.Zones.Resolve(ctx, req.Pincode, req.Latitude, req.Longitude)
	if err != nil {
		return nil, toStatus(err)
	}
	return e, nil
}

func (s *SettlementService) EstimateValue(ctx context.Context, req *EstimateValueRequest) (*ValuationResponse, error) {
	v, err := s.svc.Valuator.Estimate(ctx, req.Items)
	if err != nil {
		return nil, toStatus(err)
	}
	return newValuationResponse(v), nil
}

func (s *SettlementService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.OrderResult, error) {
	res, err := s.svc.Payments.CreateOrder(ctx, grpcPlatform(ctx), RequesterFrom(ctx), req.BookingID)
	if err != nil {
		return nil, toStatus(err)
	}
	return res, nil
}

func (s *SettlementService) VerifyPayment(ctx context.Context, req *models.PaymentCallback) (*service.VerifyResult, error) {
	res, err := s.svc.Payments.VerifyPayment(ctx, grpcPlatform(ctx), RequesterFrom(ctx), *req)
	if err != nil {
		return nil, toStatus(err)
	}
	return res, nil
}

func grpcPlatform(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	return first(md.Get(platformHeader))
}
