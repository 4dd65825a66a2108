package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blinklean/internal/config"
	"blinklean/internal/database"
	"blinklean/internal/events"
	"blinklean/internal/gateway"
	"blinklean/internal/models"
	"blinklean/internal/repository"
	"blinklean/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testPhone      = "9876543210"
	testOtherPhone = "9123456789"
	testPincode    = "400001"
	testJWTSecret  = "test-jwt-secret"
	testKeySecret  = "test_secret"
	testAdminKey   = "admin-key"
	testViewerKey  = "viewer-key"
)

type testStack struct {
	db     *database.DB
	mr     *miniredis.Miniredis
	cfg    config.APIConfig
	svc    Services
	signer *gateway.Signer
	tokens *TokenAuth
}

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true},
		GRPC:    config.APIGRPCConfig{Enabled: true},
		Auth: config.APIAuthConfig{
			JWTSecret: testJWTSecret,
			APIKeys: []config.APIClientKey{
				{Key: testAdminKey, Name: "ops", Permissions: []string{PermWriteRates, PermWritePayments}},
				{Key: testViewerKey, Name: "viewer", Permissions: []string{"read:rates"}},
			},
		},
	}
}

func newTestStack(t *testing.T, cfg config.APIConfig) *testStack {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewDB(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := repository.NewRedisStore(client)

	require.NoError(t, db.UpsertZone(ctx, &models.Zone{
		ID: 1, CityName: "Mumbai", AreaName: "Fort", Pincode: testPincode,
		ScrapAvailable: true, CleaningAvailable: true, IsActive: true,
	}))
	for name, rate := range map[string]string{"newspapers": "15", "metal": "30"} {
		require.NoError(t, db.UpsertRate(ctx, &models.ScrapRate{
			MaterialName: name,
			RatePerKg:    decimal.RequireFromString(rate),
			IsActive:     true,
		}))
	}
	require.NoError(t, db.UpsertService(ctx, &models.Service{ID: 1, Name: "Scrap Pickup", Category: "scrap"}))
	require.NoError(t, db.UpsertService(ctx, &models.Service{ID: 2, Name: "Home Cleaning", Category: "cleaning"}))

	payCfg := config.PaymentConfig{
		KeyID:           "rzp_test_key",
		KeySecret:       testKeySecret,
		Pricing:         "fixed",
		FixedAmount:     199,
		Currency:        models.CurrencyINR,
		AllowedPlatform: models.PlatformApp,
		VerifyLockTTL:   30 * time.Second,
	}
	pricing, err := service.NewPricingPolicy(payCfg)
	require.NoError(t, err)

	bus := events.NewEventBus()
	signer := gateway.NewSigner(testKeySecret)
	zones := service.NewZoneService(db, store, time.Minute, nil)
	valuator := service.NewValuationService(db)

	svc := Services{
		Zones:    zones,
		Valuator: valuator,
		Bookings: service.NewBookingService(db, zones, valuator, service.NewAdmissionGuard(store, 10*time.Second), service.NewUserService(db), bus, nil),
		Payments: service.NewPaymentService(service.PaymentDeps{
			Bookings:  db,
			Payments:  db,
			Users:     db,
			Gateway:   gateway.NewStubGateway(payCfg.KeyID),
			Verifier:  signer,
			Pricing:   pricing,
			Store:     store,
			Reconcile: db,
			EventBus:  bus,
		}, payCfg, nil),
		Rates:   service.NewRateService(db, bus, nil),
		Catalog: service.NewCatalogService(db, zones, store, time.Minute, nil),
	}

	return &testStack{
		db:     db,
		mr:     mr,
		cfg:    cfg,
		svc:    svc,
		signer: signer,
		tokens: NewTokenAuth(cfg.Auth.JWTSecret),
	}
}

func (s *testStack) token(t *testing.T, phone string) string {
	t.Helper()
	tok, err := s.tokens.Issue(phone, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (s *testStack) createBooking(t *testing.T, phone string) int64 {
	t.Helper()
	ctx := context.Background()
	user, err := service.NewUserService(s.db).ResolveByPhone(ctx, phone)
	require.NoError(t, err)
	b := &models.Booking{
		UserID:            user.ID,
		PickupAddress:     "12 Marine Drive",
		Pincode:           testPincode,
		SelectedMaterials: []models.MaterialLine{{MaterialName: "metal", EstimatedWeight: decimal.NewFromInt(1)}},
		PickupDate:        time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, s.db.CreateBooking(ctx, b))
	return b.ID
}

func (s *testStack) httpHandler(checks ...HealthCheck) http.Handler {
	return NewHTTPServer(s.cfg, s.svc, checks, nil).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"]
}

func decimalOf(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
