package api

import (
	"encoding/json"

	"blinklean/internal/models"

	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func weight(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

type ValuationItem struct {
	Material           string      `json:"material"`
	EstimatedWeight    json.Number `json:"estimated_weight"`
	RatePerKg          json.Number `json:"rate_per_kg"`
	ItemEstimatedValue json.Number `json:"item_estimated_value"`
}

// ValuationResponse renders amounts as JSON numbers with two decimals.
type ValuationResponse struct {
	TotalEstimatedValue json.Number     `json:"total_estimated_value"`
	Currency            string          `json:"currency"`
	Items               []ValuationItem `json:"items"`
	Message             string          `json:"message"`
}

func newValuationResponse(v *models.Valuation) *ValuationResponse {
	resp := &ValuationResponse{
		TotalEstimatedValue: money(v.TotalEstimatedValue),
		Currency:            v.Currency,
		Items:               make([]ValuationItem, 0, len(v.Items)),
		Message:             v.Message,
	}
	for _, it := range v.Items {
		resp.Items = append(resp.Items, ValuationItem{
			Material:           it.Material,
			EstimatedWeight:    weight(it.EstimatedWeight),
			RatePerKg:          money(it.RatePerKg),
			ItemEstimatedValue: money(it.ItemEstimatedValue),
		})
	}
	return resp
}

type rateResponse struct {
	ID           int64       `json:"id"`
	MaterialName string      `json:"material_name"`
	RatePerKg    json.Number `json:"rate_per_kg"`
	IsActive     bool        `json:"is_active"`
	LastUpdated  string      `json:"last_updated"`
}

func newRateResponse(r *models.ScrapRate) rateResponse {
	return rateResponse{
		ID:           r.ID,
		MaterialName: r.MaterialName,
		RatePerKg:    money(r.RatePerKg),
		IsActive:     r.IsActive,
		LastUpdated:  r.LastUpdated.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
