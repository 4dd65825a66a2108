package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blinklean/internal/domain"
	"blinklean/internal/models"

	"github.com/mattn/go-sqlite3"
)

const paymentColumns = `id, booking_id, amount, currency, payment_status, payment_gateway, transaction_reference,
       gateway_payment_id, created_at, updated_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID, &p.BookingID, &p.Amount, &p.Currency, &p.Status, &p.Gateway,
		&p.TransactionReference, &p.GatewayPaymentID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment сохраняет платеж; transaction_reference уникален
func (db *DB) CreatePayment(ctx context.Context, p *models.Payment) error {
	now := time.Now()
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}
	query := `INSERT INTO payments (booking_id, amount, currency, payment_status, payment_gateway,
                  transaction_reference, gateway_payment_id, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		p.BookingID,
		p.Amount.String(),
		p.Currency,
		p.Status,
		p.Gateway,
		p.TransactionReference,
		p.GatewayPaymentID,
		now,
		now,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return domain.ConflictError{Resource: "payment", Msg: "transaction reference already recorded"}
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (db *DB) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_reference = ?`
	payment, err := scanPayment(db.QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

func (db *DB) GetPaymentsByBooking(ctx context.Context, bookingID int64) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = ? ORDER BY id`
	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// TransitionPayment меняет статус только если текущий равен from.
// Переход в success не выполняется, если у заявки уже есть успешный платеж.
// Возвращает false, если строка не изменилась.
func (db *DB) TransitionPayment(ctx context.Context, reference, from, to, gatewayPaymentID string) (bool, error) {
	query := `UPDATE payments
              SET payment_status = ?, gateway_payment_id = CASE WHEN ? = '' THEN gateway_payment_id ELSE ? END, updated_at = ?
              WHERE transaction_reference = ? AND payment_status = ?
                AND (? <> 'success' OR NOT EXISTS (
                    SELECT 1 FROM payments paid
                    WHERE paid.booking_id = payments.booking_id AND paid.payment_status = 'success'))`
	result, err := db.ExecContext(ctx, query, to, gatewayPaymentID, gatewayPaymentID, time.Now(), reference, from, to)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return false, nil
		}
		return false, fmt.Errorf("failed to transition payment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}
