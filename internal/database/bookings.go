package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blinklean/internal/domain"
	"blinklean/internal/models"

	"github.com/shopspring/decimal"
)

const bookingColumns = `id, user_id, pickup_address, pincode, selected_materials, estimated_weight, predicted_price,
       final_weight, final_payout_amount, payment_status, pickup_date, status, created_at, updated_at`

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b         models.Booking
		materials string

		estWeight, predicted, final, payout decimal.NullDecimal
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.PickupAddress, &b.Pincode, &materials,
		&estWeight, &predicted, &final, &payout,
		&b.PaymentStatus, &b.PickupDate, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(materials), &b.SelectedMaterials); err != nil {
		return nil, fmt.Errorf("failed to decode selected materials: %w", err)
	}
	b.EstimatedWeight = decimalPtr(estWeight)
	b.PredictedPrice = decimalPtr(predicted)
	b.FinalWeight = decimalPtr(final)
	b.FinalPayoutAmount = decimalPtr(payout)
	return &b, nil
}

// CreateBooking сохраняет заявку на вывоз в исходном порядке материалов
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	materials, err := json.Marshal(booking.SelectedMaterials)
	if err != nil {
		return fmt.Errorf("failed to encode selected materials: %w", err)
	}

	now := time.Now()
	if booking.Status == "" {
		booking.Status = models.BookingStatusScheduled
	}
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = models.BookingPaymentPending
	}

	query := `INSERT INTO scrap_bookings (user_id, pickup_address, pincode, selected_materials, estimated_weight,
                  predicted_price, final_weight, final_payout_amount, payment_status, pickup_date, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		booking.UserID,
		booking.PickupAddress,
		booking.Pincode,
		string(materials),
		nullDecimal(booking.EstimatedWeight),
		nullDecimal(booking.PredictedPrice),
		nullDecimal(booking.FinalWeight),
		nullDecimal(booking.FinalPayoutAmount),
		booking.PaymentStatus,
		booking.PickupDate,
		booking.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// GetBooking возвращает заявку по ID
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM scrap_bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// MarkBookingPaid переводит заявку в статус paid. Повторный вызов не ошибка.
func (db *DB) MarkBookingPaid(ctx context.Context, id int64) error {
	query := `UPDATE scrap_bookings SET status = ?, payment_status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, models.BookingStatusPaid, models.BookingPaymentCompleted, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}
