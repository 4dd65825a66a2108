package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blinklean/internal/domain"
	"blinklean/internal/models"
)

const userColumns = `id, phone_number, name, email, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Phone, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = ?`
	user, err := scanUser(db.QueryRowContext(ctx, query, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by phone: %w", err)
	}
	return user, nil
}

// CreateUser создает пользователя; если телефон уже занят, возвращает существующую запись
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	query := `INSERT INTO users (phone_number, name, email, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)
              ON CONFLICT(phone_number) DO NOTHING`
	if _, err := db.ExecContext(ctx, query, user.Phone, user.Name, user.Email, now, now); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	stored, err := db.GetUserByPhone(ctx, user.Phone)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}
