package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ScrapRate struct {
	ID           int64           `json:"id" yaml:"id"`
	MaterialName string          `json:"material_name" yaml:"material_name"`
	RatePerKg    decimal.Decimal `json:"rate_per_kg" yaml:"-"`
	IsActive     bool            `json:"is_active" yaml:"is_active"`
	LastUpdated  time.Time       `json:"last_updated" yaml:"-"`
}

// MaterialLine is one requested material with its weight in kilograms.
type MaterialLine struct {
	MaterialName    string          `json:"material_name"`
	EstimatedWeight decimal.Decimal `json:"estimated_weight"`
}

// ValuationLine is the priced breakdown of a single material line.
type ValuationLine struct {
	Material           string          `json:"material"`
	EstimatedWeight    decimal.Decimal `json:"estimated_weight"`
	RatePerKg          decimal.Decimal `json:"rate_per_kg"`
	ItemEstimatedValue decimal.Decimal `json:"item_estimated_value"`
}

type Valuation struct {
	TotalEstimatedValue decimal.Decimal `json:"total_estimated_value"`
	TotalWeight         decimal.Decimal `json:"-"`
	Currency            string          `json:"currency"`
	Items               []ValuationLine `json:"items"`
	Message             string          `json:"message"`
}
