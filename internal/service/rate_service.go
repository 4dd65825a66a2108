package service

import (
	"context"
	"fmt"

	"blinklean/internal/domain"
	"blinklean/internal/events"
	"blinklean/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RateService maintains the per-kilogram scrap rate table.
type RateService struct {
	rates    domain.RateRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewRateService(rates domain.RateRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *RateService {
	return &RateService{rates: rates, eventBus: eventBus, logger: orNop(logger)}
}

func (s *RateService) ListRates(ctx context.Context) ([]*models.ScrapRate, error) {
	rates, err := s.rates.GetActiveRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	return rates, nil
}

// UpdateRate sets a new rate per kilogram, rounded to paise.
func (s *RateService) UpdateRate(ctx context.Context, id int64, ratePerKg decimal.Decimal) (*models.ScrapRate, error) {
	if id <= 0 {
		return nil, domain.ValidationError{Field: "id", Msg: "must be positive"}
	}
	if ratePerKg.IsNegative() {
		return nil, domain.ValidationError{Field: "rate_per_kg", Msg: "must not be negative"}
	}
	ratePerKg = ratePerKg.Round(2)

	if err := s.rates.UpdateRate(ctx, id, ratePerKg); err != nil {
		return nil, err
	}
	rate, err := s.rates.GetRateByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		payload := events.RateEventPayload{RateID: rate.ID, MaterialName: rate.MaterialName, RatePerKg: rate.RatePerKg}
		if err := s.eventBus.PublishJSON(events.EventRateUpdated, payload); err != nil {
			s.logger.Error().Err(err).Int64("rate_id", id).Msg("failed to publish rate event")
		}
	}
	s.logger.Info().Int64("rate_id", id).Str("material", rate.MaterialName).Str("rate_per_kg", rate.RatePerKg.StringFixed(2)).Msg("scrap rate updated")
	return rate, nil
}
