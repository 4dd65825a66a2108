package database

import (
	"context"
	"fmt"

	"blinklean/internal/models"
)

func (db *DB) GetServices(ctx context.Context) ([]*models.Service, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, category, description, app_only FROM services ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Description, &s.AppOnly); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, &s)
	}
	return services, rows.Err()
}

func (db *DB) UpsertService(ctx context.Context, s *models.Service) error {
	query := `INSERT INTO services (id, name, category, description, app_only)
              VALUES (NULLIF(?, 0), ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  name = excluded.name,
                  category = excluded.category,
                  description = excluded.description,
                  app_only = excluded.app_only`
	result, err := db.ExecContext(ctx, query, s.ID, s.Name, s.Category, s.Description, s.AppOnly)
	if err != nil {
		return fmt.Errorf("failed to upsert service: %w", err)
	}
	if s.ID == 0 {
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		s.ID = id
	}
	return nil
}
