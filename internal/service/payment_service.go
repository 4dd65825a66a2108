package service

import (
	"context"
	"encoding/json"
	"errors"
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
)

const (
	msgWebPaymentsDisabled = "Payments are currently disabled on web. Secure payment available in the BlinkLean mobile app."
	msgVerifyBypass        = "Platform execution bypass blocked. Access via app."
	msgPaymentSuccess      = "Payment successful. Your pickup is confirmed."
)

type VerifyResult struct {
	Message   string `json:"message"`
	BookingID int64  `json:"booking_id"`
	PaymentID int64  `json:"payment_id"`
}

type PaymentDeps struct {
	Bookings  domain.BookingRepository
	Payments  domain.PaymentRepository
	Users     domain.UserRepository
	Gateway   domain.PaymentGateway
	Verifier  domain.SignatureVerifier
	Pricing   domain.PricingPolicy
	Store     domain.Store
	Reconcile domain.ReconcileQueue
	EventBus  domain.EventPublisher
}

// PaymentService runs the two-phase order/verify settlement with the gateway.
type PaymentService struct {
	PaymentDeps
	cfg    config.PaymentConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewPaymentService(deps PaymentDeps, cfg config.PaymentConfig, logger *zerolog.Logger) *PaymentService {
	return &PaymentService{
		PaymentDeps: deps,
		cfg:         cfg,
		logger:      orNop(logger),
		now:         time.Now,
	}
}

func VerifyLockKey(orderID string) string {
	return "payment_verify:" + orderID
}

func (s *PaymentService) requireOwner(ctx context.Context, phone string, booking *models.Booking) error {
	owner, err := s.Users.GetUserByPhone(ctx, phone)
	if err != nil {
		var nf domain.NotFoundError
		if errors.As(err, &nf) {
			return domain.ErrNotOwner
		}
		return fmt.Errorf("resolve requester: %w", err)
	}
	if owner.ID != booking.UserID {
		return domain.ErrNotOwner
	}
	return nil
}

func (s *PaymentService) checkPlatform(platform, msg string) error {
	allowed := s.cfg.AllowedPlatform
	if allowed == "" {
		allowed = models.PlatformApp
	}
	if !strings.EqualFold(strings.TrimSpace(platform), allowed) {
		return domain.UnauthorizedError{Msg: msg, Forbidden: true}
	}
	return nil
}

// CreateOrder opens a gateway order for a booking owned by phone.
// A gateway failure leaves no payment row and is not retried.
func (s *PaymentService) CreateOrder(ctx context.Context, platform, phone string, bookingID int64) (*models.OrderResult, error) {
	if err := s.checkPlatform(platform, msgWebPaymentsDisabled); err != nil {
		metrics.IncSettlement("order", "forbidden")
		return nil, err
	}
	if bookingID <= 0 {
		return nil, domain.ValidationError{Field: "booking_id", Msg: "is required"}
	}

	booking, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.requireOwner(ctx, phone, booking); err != nil {
		return nil, err
	}
	if booking.IsSettled() {
		return nil, domain.ErrAlreadySettled
	}

	amount, err := s.Pricing.Amount(booking)
	if err != nil {
		return nil, fmt.Errorf("price booking: %w", err)
	}
	paise := amount.Shift(2).Round(0).IntPart()
	if paise <= 0 {
		return nil, domain.ValidationError{Field: "amount", Msg: "must be positive"}
	}

	receipt := fmt.Sprintf("receipt_%d_%d", booking.ID, s.now().UnixMilli())
	start := time.Now()
	order, err := s.Gateway.CreateOrder(ctx, domain.OrderRequest{
		Amount:   paise,
		Currency: s.currency(),
		Receipt:  receipt,
	})
	metrics.ObserveGateway(time.Since(start))
	if err != nil {
		metrics.IncSettlement("order", "upstream_error")
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("receipt", receipt).Msg("gateway order creation failed")
		var ue domain.UpstreamError
		if errors.As(err, &ue) {
			return nil, ue
		}
		return nil, domain.UpstreamError{Service: s.cfg.GatewayName, Msg: "Failed to create payment order", Err: err}
	}

	payment := &models.Payment{
		BookingID:            booking.ID,
		Amount:               amount,
		Currency:             s.currency(),
		Status:               models.PaymentStatusPending,
		Gateway:              s.cfg.GatewayName,
		TransactionReference: order.ID,
	}
	if err := s.Payments.CreatePayment(ctx, payment); err != nil {
		metrics.IncSettlement("order", "error")
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	s.publish(events.EventPaymentOrdered, payment, "")
	metrics.IncSettlement("order", "created")
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("order_id", order.ID).
		Str("requester", logging.MaskPhone(phone)).
		Msg("payment order created")

	currency := order.Currency
	if currency == "" {
		currency = s.currency()
	}
	return &models.OrderResult{
		OrderID:    order.ID,
		Amount:     order.Amount,
		Currency:   currency,
		PaymentKey: s.Gateway.KeyID(),
	}, nil
}

// VerifyPayment settles a pending payment from a signed gateway callback
// sent by the booking owner. A booking holds at most one success payment.
func (s *PaymentService) VerifyPayment(ctx context.Context, platform, phone string, cb models.PaymentCallback) (*VerifyResult, error) {
	if err := s.checkPlatform(platform, msgVerifyBypass); err != nil {
		metrics.IncSettlement("verify", "forbidden")
		return nil, err
	}

	cb.OrderID = strings.TrimSpace(cb.OrderID)
	cb.PaymentID = strings.TrimSpace(cb.PaymentID)
	cb.Signature = strings.TrimSpace(cb.Signature)
	if cb.OrderID == "" || cb.PaymentID == "" || cb.Signature == "" {
		return nil, domain.ValidationError{Msg: "razorpay_order_id, razorpay_payment_id and razorpay_signature are required"}
	}

	log := s.logger.With().Str("order_id", cb.OrderID).Str("gateway_payment_id", cb.PaymentID).Logger()

	if !s.Verifier.Verify(cb.OrderID, cb.PaymentID, cb.Signature) {
		metrics.IncSettlement("verify", "bad_signature")
		log.Warn().Msg("payment signature mismatch")
		return nil, domain.ErrSignatureInvalid
	}

	lockKey := VerifyLockKey(cb.OrderID)
	locked, err := s.Store.SetNX(ctx, lockKey, []byte(cb.PaymentID), s.lockTTL())
	switch {
	case err != nil:
		// the conditional update below still serializes the transition
		log.Warn().Err(err).Msg("verify lock unavailable")
	case !locked:
		metrics.IncSettlement("verify", "in_progress")
		return nil, domain.ErrVerifyInProgress
	default:
		defer func() {
			if err := s.Store.Delete(context.WithoutCancel(ctx), lockKey); err != nil {
				log.Warn().Err(err).Msg("failed to release verify lock")
			}
		}()
	}

	payment, err := s.Payments.GetPaymentByReference(ctx, cb.OrderID)
	if err != nil {
		return nil, err
	}
	switch payment.Status {
	case models.PaymentStatusSuccess:
		metrics.IncSettlement("verify", "duplicate")
		return nil, domain.ErrAlreadyVerified
	case models.PaymentStatusFailed:
		return nil, domain.ConflictError{Resource: "payment", Msg: "Payment order has already failed"}
	}

	booking, err := s.Bookings.GetBooking(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, phone, booking); err != nil {
		metrics.IncSettlement("verify", "forbidden")
		return nil, err
	}
	if booking.IsSettled() {
		metrics.IncSettlement("verify", "duplicate")
		return nil, domain.ErrAlreadySettled
	}

	changed, err := s.Payments.TransitionPayment(ctx, cb.OrderID, models.PaymentStatusPending, models.PaymentStatusSuccess, cb.PaymentID)
	if err != nil {
		metrics.IncSettlement("verify", "error")
		return nil, fmt.Errorf("settle payment: %w", err)
	}
	if !changed {
		metrics.IncSettlement("verify", "duplicate")
		current, err := s.Payments.GetPaymentByReference(ctx, cb.OrderID)
		if err == nil && current.Status == models.PaymentStatusSuccess {
			return nil, domain.ErrAlreadyVerified
		}
		// another order on the same booking settled first
		return nil, domain.ErrAlreadySettled
	}
	payment.Status = models.PaymentStatusSuccess
	payment.GatewayPaymentID = cb.PaymentID
	s.publish(events.EventPaymentSucceeded, payment, cb.PaymentID)

	if err := s.Bookings.MarkBookingPaid(ctx, payment.BookingID); err != nil {
		log.Error().Err(err).Int64("booking_id", payment.BookingID).Msg("payment settled but booking update failed, scheduling reconcile")
		s.scheduleReconcile(ctx, payment, cb, err, &log)
	} else {
		s.publish(events.EventBookingPaid, payment, cb.PaymentID)
	}

	metrics.IncSettlement("verify", "success")
	log.Info().Int64("booking_id", payment.BookingID).Msg("payment verified")

	return &VerifyResult{
		Message:   msgPaymentSuccess,
		BookingID: payment.BookingID,
		PaymentID: payment.ID,
	}, nil
}

// MarkOrderFailed records a gateway-reported failure for a pending order.
func (s *PaymentService) MarkOrderFailed(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.ValidationError{Field: "order_id", Msg: "is required"}
	}

	changed, err := s.Payments.TransitionPayment(ctx, orderID, models.PaymentStatusPending, models.PaymentStatusFailed, "")
	if err != nil {
		return fmt.Errorf("fail payment: %w", err)
	}
	payment, err := s.Payments.GetPaymentByReference(ctx, orderID)
	if err != nil {
		return err
	}
	if !changed {
		return domain.ConflictError{Resource: "payment", Msg: fmt.Sprintf("payment is %s, not pending", payment.Status)}
	}

	s.publish(events.EventPaymentFailed, payment, "")
	metrics.IncSettlement("order", "failed")
	s.logger.Info().Str("order_id", orderID).Int64("booking_id", payment.BookingID).Msg("payment order marked failed")
	return nil
}

func (s *PaymentService) scheduleReconcile(ctx context.Context, p *models.Payment, cb models.PaymentCallback, cause error, log *zerolog.Logger) {
	if s.Reconcile == nil {
		return
	}
	payload, _ := json.Marshal(models.ReconcilePayload{
		OrderID:          cb.OrderID,
		GatewayPaymentID: cb.PaymentID,
		Reason:           cause.Error(),
	})
	task := &models.ReconcileTask{
		TaskType:  models.ReconcileMarkBookingPaid,
		BookingID: p.BookingID,
		PaymentID: p.ID,
		Payload:   string(payload),
	}
	if err := s.Reconcile.EnqueueReconcile(context.WithoutCancel(ctx), task); err != nil {
		log.Error().Err(err).Int64("booking_id", p.BookingID).Msg("failed to enqueue reconcile task")
	}
}

func (s *PaymentService) publish(eventType string, p *models.Payment, gatewayPaymentID string) {
	if s.EventBus == nil {
		return
	}
	payload := events.PaymentEventPayload{
		BookingID:            p.BookingID,
		PaymentID:            p.ID,
		TransactionReference: p.TransactionReference,
		GatewayPaymentID:     gatewayPaymentID,
		Amount:               p.Amount,
		Currency:             p.Currency,
		Status:               p.Status,
	}
	if err := s.EventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish payment event")
	}
}

func (s *PaymentService) currency() string {
	if s.cfg.Currency == "" {
		return models.CurrencyINR
	}
	return s.cfg.Currency
}

func (s *PaymentService) lockTTL() time.Duration {
	if s.cfg.VerifyLockTTL <= 0 {
		return models.DefaultVerifyLockTTL * time.Second
	}
	return s.cfg.VerifyLockTTL
}
