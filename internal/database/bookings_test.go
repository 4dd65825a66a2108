package database

import (
	"context"
	"testing"
	"time"

	"blinklean/internal/domain"
	"blinklean/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBooking(t *testing.T, db *DB) (*models.User, *models.Booking) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Phone: "9000000001"}
	require.NoError(t, db.CreateUser(ctx, user))

	price := decimal.RequireFromString("60.00")
	booking := &models.Booking{
		UserID:        user.ID,
		PickupAddress: "12 MG Road",
		Pincode:       "560040",
		SelectedMaterials: []models.MaterialLine{
			{MaterialName: "Newspapers", EstimatedWeight: decimal.NewFromInt(2)},
			{MaterialName: "Metal", EstimatedWeight: decimal.NewFromInt(1)},
		},
		PredictedPrice: &price,
		PickupDate:     time.Now().Add(48 * time.Hour),
	}
	require.NoError(t, db.CreateBooking(ctx, booking))
	return user, booking
}

func TestBookingLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user, booking := createTestBooking(t, db)
	require.NotZero(t, booking.ID)

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, models.BookingStatusScheduled, got.Status)
	assert.Equal(t, models.BookingPaymentPending, got.PaymentStatus)
	require.Len(t, got.SelectedMaterials, 2)
	assert.Equal(t, "Newspapers", got.SelectedMaterials[0].MaterialName)
	assert.Equal(t, "Metal", got.SelectedMaterials[1].MaterialName)
	require.NotNil(t, got.PredictedPrice)
	assert.True(t, got.PredictedPrice.Equal(decimal.NewFromInt(60)))
	assert.Nil(t, got.EstimatedWeight)
	assert.WithinDuration(t, booking.PickupDate, got.PickupDate, time.Second)

	require.NoError(t, db.MarkBookingPaid(ctx, booking.ID))
	got, err = db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSettled())
	assert.Equal(t, models.BookingPaymentCompleted, got.PaymentStatus)

	// repeat is harmless
	require.NoError(t, db.MarkBookingPaid(ctx, booking.ID))
}

func TestBookingNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_, err := db.GetBooking(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	err = db.MarkBookingPaid(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestBookingRequiresUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.CreateBooking(context.Background(), &models.Booking{
		UserID:        777,
		PickupAddress: "x",
		Pincode:       "560040",
		PickupDate:    time.Now(),
	})
	assert.Error(t, err)
}
