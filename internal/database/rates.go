package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blinklean/internal/domain"
	"blinklean/internal/models"

	"github.com/shopspring/decimal"
)

const rateColumns = `id, material_name, rate_per_kg, is_active, last_updated`

func scanRate(row rowScanner) (*models.ScrapRate, error) {
	var r models.ScrapRate
	if err := row.Scan(&r.ID, &r.MaterialName, &r.RatePerKg, &r.IsActive, &r.LastUpdated); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetActiveRateByName ищет активный тариф по точному названию материала
func (db *DB) GetActiveRateByName(ctx context.Context, name string) (*models.ScrapRate, error) {
	query := `SELECT ` + rateColumns + ` FROM scrap_rates WHERE material_name = ? AND is_active = 1`
	rate, err := scanRate(db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError{Resource: "scrap rate", Msg: fmt.Sprintf("Rate not found for material: %s", name), Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate by name: %w", err)
	}
	return rate, nil
}

func (db *DB) GetRateByID(ctx context.Context, id int64) (*models.ScrapRate, error) {
	query := `SELECT ` + rateColumns + ` FROM scrap_rates WHERE id = ?`
	rate, err := scanRate(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError{Resource: "scrap rate", Msg: "Scrap rate not found", Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate: %w", err)
	}
	return rate, nil
}

func (db *DB) GetActiveRates(ctx context.Context) ([]*models.ScrapRate, error) {
	query := `SELECT ` + rateColumns + ` FROM scrap_rates WHERE is_active = 1 ORDER BY material_name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active rates: %w", err)
	}
	defer rows.Close()

	var rates []*models.ScrapRate
	for rows.Next() {
		r, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// UpdateRate меняет цену за килограмм
func (db *DB) UpdateRate(ctx context.Context, id int64, ratePerKg decimal.Decimal) error {
	query := `UPDATE scrap_rates SET rate_per_kg = ?, last_updated = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, ratePerKg.String(), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update rate: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFoundError{Resource: "scrap rate", Msg: "Scrap rate not found"}
	}
	return nil
}

// UpsertRate создает тариф или обновляет существующий по названию материала
func (db *DB) UpsertRate(ctx context.Context, r *models.ScrapRate) error {
	now := time.Now()
	query := `INSERT INTO scrap_rates (material_name, rate_per_kg, is_active, last_updated)
              VALUES (?, ?, ?, ?)
              ON CONFLICT(material_name) DO UPDATE SET
                  rate_per_kg = excluded.rate_per_kg,
                  is_active = excluded.is_active,
                  last_updated = excluded.last_updated`
	if _, err := db.ExecContext(ctx, query, r.MaterialName, r.RatePerKg.String(), r.IsActive, now); err != nil {
		return fmt.Errorf("failed to upsert rate: %w", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT id FROM scrap_rates WHERE material_name = ?`, r.MaterialName).Scan(&r.ID); err != nil {
		return fmt.Errorf("failed to read rate id: %w", err)
	}
	r.LastUpdated = now
	return nil
}

// CountRates возвращает количество тарифов, включая неактивные
func (db *DB) CountRates(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scrap_rates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rates: %w", err)
	}
	return n, nil
}
