package database

import (
	"context"
	"testing"

	"blinklean/internal/domain"
	"blinklean/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZones(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	active := &models.Zone{
		ID: 1, CityName: "Bengaluru", AreaName: "Vijayanagar", Pincode: "560040",
		ScrapAvailable: true, CleaningAvailable: true, IsActive: true,
		MinLatitude: 12.96, MaxLatitude: 12.98, MinLongitude: 77.52, MaxLongitude: 77.54,
	}
	inactive := &models.Zone{ID: 2, CityName: "Bengaluru", AreaName: "Old Vijayanagar", Pincode: "560040"}
	require.NoError(t, db.UpsertZone(ctx, active))
	require.NoError(t, db.UpsertZone(ctx, inactive))

	t.Run("ActiveRowIsAuthoritative", func(t *testing.T) {
		z, err := db.GetActiveZoneByPincode(ctx, "560040")
		require.NoError(t, err)
		assert.Equal(t, int64(1), z.ID)
		assert.True(t, z.ScrapAvailable)
		assert.InDelta(t, 12.96, z.MinLatitude, 1e-9)
	})

	t.Run("UnknownPincode", func(t *testing.T) {
		_, err := db.GetActiveZoneByPincode(ctx, "110001")
		var nf domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("UpsertUpdates", func(t *testing.T) {
		active.ScrapAvailable = false
		require.NoError(t, db.UpsertZone(ctx, active))
		z, err := db.GetActiveZoneByPincode(ctx, "560040")
		require.NoError(t, err)
		assert.False(t, z.ScrapAvailable)
	})

	t.Run("AutoID", func(t *testing.T) {
		z := &models.Zone{CityName: "Mysuru", AreaName: "Kuvempunagar", Pincode: "570023", IsActive: true}
		require.NoError(t, db.UpsertZone(ctx, z))
		assert.NotZero(t, z.ID)

		zones, err := db.GetActiveZones(ctx)
		require.NoError(t, err)
		assert.Len(t, zones, 2)
	})
}

func TestRates(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	rate := &models.ScrapRate{MaterialName: "Copper", RatePerKg: decimal.RequireFromString("400.50"), IsActive: true}
	require.NoError(t, db.UpsertRate(ctx, rate))
	require.NotZero(t, rate.ID)
	require.NoError(t, db.UpsertRate(ctx, &models.ScrapRate{MaterialName: "Glass Bottles", RatePerKg: decimal.NewFromInt(2)}))

	got, err := db.GetActiveRateByName(ctx, "Copper")
	require.NoError(t, err)
	assert.True(t, got.RatePerKg.Equal(decimal.RequireFromString("400.5")))

	t.Run("InactiveIsNotFound", func(t *testing.T) {
		_, err := db.GetActiveRateByName(ctx, "Glass Bottles")
		var nf domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Contains(t, nf.Error(), "Glass Bottles")
	})

	t.Run("ExactNameOnly", func(t *testing.T) {
		_, err := db.GetActiveRateByName(ctx, "copper")
		assert.Error(t, err)
	})

	t.Run("Update", func(t *testing.T) {
		require.NoError(t, db.UpdateRate(ctx, rate.ID, decimal.NewFromInt(420)))
		got, err := db.GetRateByID(ctx, rate.ID)
		require.NoError(t, err)
		assert.Equal(t, "420", got.RatePerKg.String())

		err = db.UpdateRate(ctx, 999, decimal.NewFromInt(1))
		var nf domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("ListActive", func(t *testing.T) {
		rates, err := db.GetActiveRates(ctx)
		require.NoError(t, err)
		require.Len(t, rates, 1)
		assert.Equal(t, "Copper", rates[0].MaterialName)
	})
}

func TestServices(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.UpsertService(ctx, &models.Service{ID: 2, Name: "Home Cleaning", Category: "Cleaning", AppOnly: true}))
	require.NoError(t, db.UpsertService(ctx, &models.Service{ID: 1, Name: "Scrap Pickup", Category: "Recycling"}))

	services, err := db.GetServices(ctx)
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "Scrap Pickup", services[0].Name)
	assert.True(t, services[1].AppOnly)
}

func TestUsers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	u := &models.User{Phone: "9876543210"}
	require.NoError(t, db.CreateUser(ctx, u))
	require.NotZero(t, u.ID)

	// same phone resolves to the same row
	again := &models.User{Phone: "9876543210", Name: "ignored"}
	require.NoError(t, db.CreateUser(ctx, again))
	assert.Equal(t, u.ID, again.ID)
	assert.Empty(t, again.Name)

	byPhone, err := db.GetUserByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byPhone.ID)

	_, err = db.GetUserByPhone(ctx, "0000000000")
	var nf domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
