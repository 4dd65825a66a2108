package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	inMemory := path == ":memory:" || strings.Contains(path, "mode=memory")
	dsn := path
	if !inMemory {
		// Создаем директорию для БД, если её нет
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// каждое соединение к :memory: получает свою пустую базу
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if inMemory {
		if _, err := sqlDB.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := createTables(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: sqlDB, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            phone_number TEXT UNIQUE NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS zones (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            city_name TEXT NOT NULL,
            area_name TEXT NOT NULL,
            pincode TEXT NOT NULL,
            scrap_service_available BOOLEAN NOT NULL DEFAULT 0,
            cleaning_service_available BOOLEAN NOT NULL DEFAULT 0,
            vehicle_service_available BOOLEAN NOT NULL DEFAULT 0,
            laundry_service_available BOOLEAN NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            min_latitude REAL NOT NULL DEFAULT 0,
            max_latitude REAL NOT NULL DEFAULT 0,
            min_longitude REAL NOT NULL DEFAULT 0,
            max_longitude REAL NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS scrap_rates (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            material_name TEXT UNIQUE NOT NULL,
            rate_per_kg TEXT NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS scrap_bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(id),
            pickup_address TEXT NOT NULL,
            pincode TEXT NOT NULL,
            selected_materials TEXT NOT NULL,
            estimated_weight TEXT,
            predicted_price TEXT,
            final_weight TEXT,
            final_payout_amount TEXT,
            payment_status TEXT NOT NULL DEFAULT 'pending',
            pickup_date DATETIME NOT NULL,
            status TEXT NOT NULL DEFAULT 'scheduled',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS payments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id INTEGER NOT NULL REFERENCES scrap_bookings(id),
            amount TEXT NOT NULL,
            currency TEXT NOT NULL DEFAULT 'INR',
            payment_status TEXT NOT NULL DEFAULT 'pending',
            payment_gateway TEXT NOT NULL,
            transaction_reference TEXT UNIQUE NOT NULL,
            gateway_payment_id TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS services (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            category TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            app_only BOOLEAN NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS reconcile_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            payment_id INTEGER NOT NULL DEFAULT 0,
            payload TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_zones_pincode ON zones(pincode, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_scrap_bookings_user_id ON scrap_bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scrap_bookings_status ON scrap_bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_booking_id ON payments(booking_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_booking_success ON payments(booking_id) WHERE payment_status = 'success'`,
		`CREATE INDEX IF NOT EXISTS idx_reconcile_queue_status ON reconcile_queue(status, next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Ping проверяет соединение с базой
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}
