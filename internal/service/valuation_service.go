package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blinklean/internal/domain"
	"blinklean/internal/models"

	"github.com/shopspring/decimal"
)

// ValuationService prices scrap materials against the active rate table.
type ValuationService struct {
	rates domain.RateRepository
}

func NewValuationService(rates domain.RateRepository) *ValuationService {
	return &ValuationService{rates: rates}
}

// Estimate rounds each line to two places before summing, then rounds the total.
// An unknown material fails the whole estimate.
func (s *ValuationService) Estimate(ctx context.Context, lines []models.MaterialLine) (*models.Valuation, error) {
	if err := validateMaterials(lines); err != nil {
		return nil, err
	}

	result := &models.Valuation{
		TotalEstimatedValue: decimal.Zero,
		TotalWeight:         decimal.Zero,
		Currency:            models.CurrencyINR,
		Items:               make([]models.ValuationLine, 0, len(lines)),
		Message:             models.ValuationAdvisory,
	}

	sum := decimal.Zero
	for _, line := range lines {
		rate, err := s.rates.GetActiveRateByName(ctx, line.MaterialName)
		if err != nil {
			var nf domain.NotFoundError
			if errors.As(err, &nf) {
				return nil, domain.NotFoundError{
					Resource: "scrap rate",
					Msg:      fmt.Sprintf("Material rate for %s not found", line.MaterialName),
					Err:      err,
				}
			}
			return nil, fmt.Errorf("load rate for %s: %w", line.MaterialName, err)
		}

		value := rate.RatePerKg.Mul(line.EstimatedWeight).Round(2)
		sum = sum.Add(value)
		result.TotalWeight = result.TotalWeight.Add(line.EstimatedWeight)
		result.Items = append(result.Items, models.ValuationLine{
			Material:           line.MaterialName,
			EstimatedWeight:    line.EstimatedWeight,
			RatePerKg:          rate.RatePerKg,
			ItemEstimatedValue: value,
		})
	}
	result.TotalEstimatedValue = sum.Round(2)
	return result, nil
}

func validateMaterials(lines []models.MaterialLine) error {
	if len(lines) == 0 {
		return domain.ValidationError{Field: "items", Msg: "at least one material is required"}
	}
	for i, line := range lines {
		if strings.TrimSpace(line.MaterialName) == "" {
			return domain.ValidationError{Field: fmt.Sprintf("items[%d].material_name", i), Msg: "is required"}
		}
		if !line.EstimatedWeight.IsPositive() {
			return domain.ValidationError{Field: fmt.Sprintf("items[%d].estimated_weight", i), Msg: "must be greater than 0"}
		}
	}
	return nil
}
