package service

import (
	"context"
	"testing"
	"time"

	"blinklean/internal/config"
	"blinklean/internal/domain"
	"blinklean/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *config.Catalog {
	return &config.Catalog{
		Zones: append([]models.Zone(nil), testZones...),
		Rates: []config.CatalogRate{
			{MaterialName: "newspapers", RatePerKg: 15, IsActive: true},
			{MaterialName: "metal", RatePerKg: 30, IsActive: true},
			{MaterialName: "glass bottles", RatePerKg: 2, IsActive: true},
		},
		Services: []models.Service{
			{ID: 1, Name: "Scrap Pickup", Category: "scrap"},
			{ID: 2, Name: "Home Cleaning", Category: "cleaning"},
			{ID: 3, Name: "Laundry", Category: "laundry", AppOnly: true},
		},
	}
}

func newCatalogService(t *testing.T) (*CatalogService, *ZoneService) {
	t.Helper()
	db := setupTestDB(t)
	_, store := setupTestStore(t)
	zones := NewZoneService(db, store, time.Minute, nil)
	svc := NewCatalogService(db, zones, store, 5*time.Minute, nil)
	_, err := svc.Seed(context.Background(), testCatalog())
	require.NoError(t, err)
	return svc, zones
}

func listingByName(ls []models.ServiceListing, name string) models.ServiceListing {
	for _, l := range ls {
		if l.Name == name {
			return l
		}
	}
	return models.ServiceListing{}
}

func TestCatalogService_ListServices(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalogService(t)

	t.Run("AppWithoutPincode", func(t *testing.T) {
		ls, err := svc.ListServices(ctx, "app", "")
		require.NoError(t, err)
		require.Len(t, ls, 3)
		for _, l := range ls {
			assert.True(t, l.BookingEnabled, l.Name)
		}
		assert.Equal(t, "Scrap pickup available in your area", listingByName(ls, "Scrap Pickup").Message)
		assert.Empty(t, listingByName(ls, "Laundry").Message)
	})

	t.Run("WebWithoutPincode", func(t *testing.T) {
		ls, err := svc.ListServices(ctx, "web", "")
		require.NoError(t, err)
		scrap := listingByName(ls, "Scrap Pickup")
		assert.True(t, scrap.BookingEnabled)
		assert.Equal(t, "Scrap pickup available in your area", scrap.Message)
		assert.Equal(t, "Available via BlinkLean App", listingByName(ls, "Laundry").Message)
	})

	t.Run("AppInactiveZoneLaunchingSoon", func(t *testing.T) {
		for _, pin := range []string{testInactivePin, "999999"} {
			ls, err := svc.ListServices(ctx, "app", pin)
			require.NoError(t, err)
			for _, l := range ls {
				assert.False(t, l.BookingEnabled, l.Name)
				assert.Equal(t, "Launching soon in your area", l.Message, l.Name)
			}
		}
	})

	t.Run("WebOnlyScrapBookable", func(t *testing.T) {
		ls, err := svc.ListServices(ctx, "WEB", testPincode)
		require.NoError(t, err)
		scrap := listingByName(ls, "Scrap Pickup")
		assert.True(t, scrap.BookingEnabled)
		assert.Equal(t, "Scrap pickup available in your area", scrap.Message)

		cleaning := listingByName(ls, "Home Cleaning")
		assert.False(t, cleaning.BookingEnabled)
		assert.Equal(t, "Available via BlinkLean App", cleaning.Message)
	})

	t.Run("ScrapLaunchingSoon", func(t *testing.T) {
		ls, err := svc.ListServices(ctx, "app", testNoScrapPin)
		require.NoError(t, err)
		scrap := listingByName(ls, "Scrap Pickup")
		assert.False(t, scrap.BookingEnabled)
		assert.Equal(t, "Launching soon in your area", scrap.Message)
		assert.True(t, listingByName(ls, "Laundry").BookingEnabled)
		cleaning := listingByName(ls, "Home Cleaning")
		assert.False(t, cleaning.BookingEnabled)
		assert.Equal(t, "Not available in your area yet", cleaning.Message)
	})

	t.Run("InvalidPlatform", func(t *testing.T) {
		_, err := svc.ListServices(ctx, "desktop", "")
		var ve domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Invalid platform header. Must be web or app", ve.Msg)
	})

	t.Run("Cached", func(t *testing.T) {
		_, err := svc.ListServices(ctx, "app", testPincode)
		require.NoError(t, err)
		ok, err := svc.store.Exists(ctx, ServicesKey("app", testPincode))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.store.Exists(ctx, ServicesKey("app", ""))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "services:app:all", ServicesKey("app", ""))
	})
}

func TestCatalogService_Seed(t *testing.T) {
	ctx := context.Background()

	t.Run("RatesSeededOnlyIntoEmptyTable", func(t *testing.T) {
		db := setupTestDB(t)
		_, store := setupTestStore(t)
		svc := NewCatalogService(db, NewZoneService(db, store, time.Minute, nil), store, time.Minute, nil)

		res, err := svc.Seed(ctx, testCatalog())
		require.NoError(t, err)
		assert.Equal(t, SeedResult{Zones: 3, Rates: 3, Services: 3}, *res)

		r, err := db.GetActiveRateByName(ctx, "glass bottles")
		require.NoError(t, err)
		require.NoError(t, db.UpdateRate(ctx, r.ID, dec("3.5")))

		res, err = svc.Seed(ctx, testCatalog())
		require.NoError(t, err)
		assert.Equal(t, 0, res.Rates)

		r, err = db.GetActiveRateByName(ctx, "glass bottles")
		require.NoError(t, err)
		assert.Equal(t, "3.50", r.RatePerKg.StringFixed(2))
	})

	t.Run("FlushesCaches", func(t *testing.T) {
		db := setupTestDB(t)
		_, store := setupTestStore(t)
		zones := NewZoneService(db, store, time.Minute, nil)
		svc := NewCatalogService(db, zones, store, time.Minute, nil)

		e, err := zones.Resolve(ctx, testPincode, nil, nil)
		require.NoError(t, err)
		assert.False(t, e.Serviceable)

		_, err = svc.Seed(ctx, testCatalog())
		require.NoError(t, err)

		e, err = zones.Resolve(ctx, testPincode, nil, nil)
		require.NoError(t, err)
		assert.True(t, e.Serviceable)
	})

	t.Run("InvalidCatalog", func(t *testing.T) {
		db := setupTestDB(t)
		_, store := setupTestStore(t)
		svc := NewCatalogService(db, nil, store, time.Minute, nil)

		c := testCatalog()
		c.Zones[1].Pincode = "12"
		_, err := svc.Seed(ctx, c)
		var ve domain.ValidationError
		assert.ErrorAs(t, err, &ve)

		_, err = svc.Seed(ctx, nil)
		assert.Error(t, err)
	})
}
