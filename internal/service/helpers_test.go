package service

import (
	"context"
	"testing"
	"time"

	"blinklean/internal/database"
	"blinklean/internal/models"
	"blinklean/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testPhone       = "9876543210"
	testOtherPhone  = "9123456789"
	testPincode     = "400001"
	testNoScrapPin  = "560001"
	testInactivePin = "110001"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func setupTestStore(t *testing.T) (*miniredis.Miniredis, *repository.RedisStore) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, repository.NewRedisStore(client)
}

var testZones = []models.Zone{
	{
		ID: 1, CityName: "Mumbai", AreaName: "Fort", Pincode: testPincode,
		ScrapAvailable: true, CleaningAvailable: true, IsActive: true,
		MinLatitude: 18.92, MaxLatitude: 18.95, MinLongitude: 72.82, MaxLongitude: 72.85,
	},
	{
		ID: 2, CityName: "Bengaluru", AreaName: "MG Road", Pincode: testNoScrapPin,
		LaundryAvailable: true, IsActive: true,
		MinLatitude: 12.96, MaxLatitude: 12.99, MinLongitude: 77.59, MaxLongitude: 77.62,
	},
	{
		ID: 3, CityName: "Delhi", AreaName: "Connaught Place", Pincode: testInactivePin,
		ScrapAvailable: true, IsActive: false,
	},
}

var testRates = map[string]string{
	"newspapers": "15",
	"metal":      "30",
	"copper":     "400",
}

func seedTestCatalog(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()
	for i := range testZones {
		z := testZones[i]
		require.NoError(t, db.UpsertZone(ctx, &z))
	}
	for name, rate := range testRates {
		require.NoError(t, db.UpsertRate(ctx, &models.ScrapRate{
			MaterialName: name,
			RatePerKg:    decimal.RequireFromString(rate),
			IsActive:     true,
		}))
	}
}

func tomorrow() time.Time {
	return time.Now().Add(24 * time.Hour).Truncate(time.Second)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
