package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blinklean/internal/domain"
	"blinklean/internal/models"
)

const zoneColumns = `id, city_name, area_name, pincode, scrap_service_available, cleaning_service_available,
       vehicle_service_available, laundry_service_available, is_active,
       min_latitude, max_latitude, min_longitude, max_longitude`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanZone(row rowScanner) (*models.Zone, error) {
	var z models.Zone
	err := row.Scan(
		&z.ID, &z.CityName, &z.AreaName, &z.Pincode,
		&z.ScrapAvailable, &z.CleaningAvailable, &z.VehicleAvailable, &z.LaundryAvailable,
		&z.IsActive,
		&z.MinLatitude, &z.MaxLatitude, &z.MinLongitude, &z.MaxLongitude,
	)
	if err != nil {
		return nil, err
	}
	return &z, nil
}

// GetActiveZoneByPincode возвращает активную зону для пинкода
func (db *DB) GetActiveZoneByPincode(ctx context.Context, pincode string) (*models.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE pincode = ? AND is_active = 1 ORDER BY id LIMIT 1`
	zone, err := scanZone(db.QueryRowContext(ctx, query, pincode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError{Resource: "zone", Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get zone by pincode: %w", err)
	}
	return zone, nil
}

// GetActiveZones возвращает все активные зоны
func (db *DB) GetActiveZones(ctx context.Context) ([]*models.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE is_active = 1 ORDER BY id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active zones: %w", err)
	}
	defer rows.Close()

	var zones []*models.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// UpsertZone создает зону или обновляет существующую по ID
func (db *DB) UpsertZone(ctx context.Context, z *models.Zone) error {
	query := `INSERT INTO zones (id, city_name, area_name, pincode, scrap_service_available, cleaning_service_available,
                  vehicle_service_available, laundry_service_available, is_active,
                  min_latitude, max_latitude, min_longitude, max_longitude)
              VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  city_name = excluded.city_name,
                  area_name = excluded.area_name,
                  pincode = excluded.pincode,
                  scrap_service_available = excluded.scrap_service_available,
                  cleaning_service_available = excluded.cleaning_service_available,
                  vehicle_service_available = excluded.vehicle_service_available,
                  laundry_service_available = excluded.laundry_service_available,
                  is_active = excluded.is_active,
                  min_latitude = excluded.min_latitude,
                  max_latitude = excluded.max_latitude,
                  min_longitude = excluded.min_longitude,
                  max_longitude = excluded.max_longitude`
	result, err := db.ExecContext(ctx, query,
		z.ID, z.CityName, z.AreaName, z.Pincode,
		z.ScrapAvailable, z.CleaningAvailable, z.VehicleAvailable, z.LaundryAvailable,
		z.IsActive,
		z.MinLatitude, z.MaxLatitude, z.MinLongitude, z.MaxLongitude,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert zone: %w", err)
	}
	if z.ID == 0 {
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		z.ID = id
	}
	return nil
}
