package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blinklean/internal/config"
	"blinklean/internal/domain"
	"blinklean/internal/events"
	"blinklean/internal/logging"
	"blinklean/internal/metrics"
	"blinklean/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	msgBookingScheduled = "Scrap pickup scheduled successfully"
	msgPickupInPast     = "Pickup date must be in the future"
	msgThrottled        = "Please wait before requesting another booking"
	msgZoneUnavailable  = "Service is not available in your area yet"
	msgScrapUnavailable = "Scrap service is currently not available for this pincode"
)

const (
	admissionAdmitted  = "admitted"
	admissionThrottled = "throttled"
	admissionRejected  = "rejected"
	admissionFailed    = "error"
)

// SubmitBookingRequest is a scrap pickup request from an authenticated requester.
type SubmitBookingRequest struct {
	PickupAddress   string                `json:"pickup_address"`
	Pincode         string                `json:"pincode"`
	Materials       []models.MaterialLine `json:"selected_materials"`
	EstimatedWeight *decimal.Decimal      `json:"estimated_weight,omitempty"`
	PredictedPrice  *decimal.Decimal      `json:"predicted_price,omitempty"`
	PickupDate      time.Time             `json:"pickup_date"`
}

type SubmitBookingResult struct {
	BookingID int64  `json:"booking_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// BookingService admits scrap pickup bookings.
type BookingService struct {
	bookings domain.BookingRepository
	zones    domain.ZoneResolver
	valuator domain.Valuator
	guard    domain.AdmissionGuard
	users    domain.UserResolver
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(
	bookings domain.BookingRepository,
	zones domain.ZoneResolver,
	valuator domain.Valuator,
	guard domain.AdmissionGuard,
	users domain.UserResolver,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		zones:    zones,
		valuator: valuator,
		guard:    guard,
		users:    users,
		eventBus: eventBus,
		logger:   orNop(logger),
		now:      time.Now,
	}
}

func (s *BookingService) validate(req *SubmitBookingRequest) error {
	req.PickupAddress = strings.TrimSpace(req.PickupAddress)
	req.Pincode = strings.TrimSpace(req.Pincode)

	if req.PickupAddress == "" {
		return domain.ValidationError{Field: "pickup_address", Msg: "is required"}
	}
	if !config.ValidPincode(req.Pincode) {
		return domain.ValidationError{Field: "pincode", Msg: "must be a valid 6-digit pincode"}
	}
	if err := validateMaterials(req.Materials); err != nil {
		return err
	}
	if req.EstimatedWeight != nil && req.EstimatedWeight.IsNegative() {
		return domain.ValidationError{Field: "estimated_weight", Msg: "must not be negative"}
	}
	if req.PredictedPrice != nil && req.PredictedPrice.IsNegative() {
		return domain.ValidationError{Field: "predicted_price", Msg: "must not be negative"}
	}
	if !req.PickupDate.After(s.now()) {
		return domain.ValidationError{Field: "pickup_date", Msg: msgPickupInPast}
	}
	return nil
}

// SubmitBooking validates, checks the cooldown and zone, persists the booking
// and arms the cooldown. Nothing is written and the guard stays unarmed on failure.
func (s *BookingService) SubmitBooking(ctx context.Context, phone string, req SubmitBookingRequest) (*SubmitBookingResult, error) {
	log := s.logger.With().Str("requester", logging.MaskPhone(phone)).Logger()

	if err := s.validate(&req); err != nil {
		metrics.IncAdmission(admissionRejected)
		return nil, err
	}

	held, err := s.guard.Held(ctx, phone)
	if err != nil {
		// guard store unavailable: admit without throttling
		log.Warn().Err(err).Msg("admission guard check failed")
	} else if held {
		metrics.IncAdmission(admissionThrottled)
		return nil, domain.ConflictError{Resource: "booking", Msg: msgThrottled, Retryable: true, Throttled: true}
	}

	eligibility, err := s.zones.Resolve(ctx, req.Pincode, nil, nil)
	if err != nil {
		metrics.IncAdmission(admissionFailed)
		return nil, fmt.Errorf("resolve zone: %w", err)
	}
	if !eligibility.Serviceable {
		metrics.IncAdmission(admissionRejected)
		return nil, domain.NotServiceableError{Pincode: req.Pincode, Advisory: msgZoneUnavailable}
	}
	if !eligibility.Allows(models.SubServiceScrap) {
		metrics.IncAdmission(admissionRejected)
		return nil, domain.NotServiceableError{Pincode: req.Pincode, Advisory: msgScrapUnavailable}
	}

	user, err := s.users.ResolveByPhone(ctx, phone)
	if err != nil {
		metrics.IncAdmission(admissionFailed)
		return nil, fmt.Errorf("resolve requester: %w", err)
	}

	booking := &models.Booking{
		UserID:            user.ID,
		PickupAddress:     req.PickupAddress,
		Pincode:           req.Pincode,
		SelectedMaterials: req.Materials,
		EstimatedWeight:   req.EstimatedWeight,
		PredictedPrice:    req.PredictedPrice,
		PaymentStatus:     models.BookingPaymentPending,
		PickupDate:        req.PickupDate,
		Status:            models.BookingStatusScheduled,
	}
	s.fillEstimates(ctx, booking, &log)

	if err := s.bookings.CreateBooking(ctx, booking); err != nil {
		metrics.IncAdmission(admissionFailed)
		return nil, fmt.Errorf("persist booking: %w", err)
	}

	armed, err := s.guard.Acquire(ctx, phone)
	switch {
	case err != nil:
		log.Warn().Err(err).Int64("booking_id", booking.ID).Msg("failed to arm admission guard")
	case !armed:
		log.Info().Int64("booking_id", booking.ID).Msg("admission guard already armed by a concurrent request")
	}

	s.publish(booking)
	metrics.IncAdmission(admissionAdmitted)
	log.Info().Int64("booking_id", booking.ID).Str("pincode", booking.Pincode).Msg("scrap booking admitted")

	return &SubmitBookingResult{
		BookingID: booking.ID,
		Status:    booking.Status,
		Message:   msgBookingScheduled,
	}, nil
}

// fillEstimates completes omitted estimates from the rate table when every material is priced.
func (s *BookingService) fillEstimates(ctx context.Context, b *models.Booking, log *zerolog.Logger) {
	if b.EstimatedWeight != nil && b.PredictedPrice != nil {
		return
	}
	valuation, err := s.valuator.Estimate(ctx, b.SelectedMaterials)
	if err != nil {
		log.Debug().Err(err).Msg("skipping estimate fill")
		return
	}
	if b.EstimatedWeight == nil {
		w := valuation.TotalWeight
		b.EstimatedWeight = &w
	}
	if b.PredictedPrice == nil {
		v := valuation.TotalEstimatedValue
		b.PredictedPrice = &v
	}
}

func (s *BookingService) publish(b *models.Booking) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:      b.ID,
		UserID:         b.UserID,
		Pincode:        b.Pincode,
		Status:         b.Status,
		PickupDate:     b.PickupDate,
		PredictedPrice: b.PredictedPrice,
	}
	if err := s.eventBus.PublishJSON(events.EventBookingCreated, payload); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", b.ID).Msg("failed to publish booking event")
	}
}
