package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"blinklean/internal/config"
	"blinklean/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestTokenAuth(t *testing.T) {
	auth := NewTokenAuth(testJWTSecret)

	tok, err := auth.Issue(testPhone, time.Hour)
	require.NoError(t, err)

	phone, err := auth.Requester("Bearer " + tok)
	require.NoError(t, err)
	assert.Equal(t, testPhone, phone)

	phone, err = auth.Requester("bearer  " + tok)
	require.NoError(t, err)
	assert.Equal(t, testPhone, phone)

	cases := []struct {
		name   string
		header func(t *testing.T) string
		msg    string
	}{
		{"Missing", func(*testing.T) string { return "" }, "missing bearer token"},
		{"NotBearer", func(*testing.T) string { return "Basic abc" }, "missing bearer token"},
		{"Expired", func(t *testing.T) string {
			tok, err := auth.Issue(testPhone, -time.Minute)
			require.NoError(t, err)
			return "Bearer " + tok
		}, "token expired"},
		{"WrongSecret", func(t *testing.T) string {
			tok, err := NewTokenAuth("other-secret").Issue(testPhone, time.Hour)
			require.NoError(t, err)
			return "Bearer " + tok
		}, "invalid token"},
		{"NoExpiry", func(t *testing.T) string {
			tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Phone: testPhone}).SignedString([]byte(testJWTSecret))
			require.NoError(t, err)
			return "Bearer " + tok
		}, "invalid token"},
		{"NoPhone", func(t *testing.T) string {
			claims := Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
			tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
			require.NoError(t, err)
			return "Bearer " + tok
		}, "token has no phone claim"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Requester(tc.header(t))
			var ue domain.UnauthorizedError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tc.msg, ue.Msg)
		})
	}
}

func TestKeyAuth(t *testing.T) {
	keys := NewKeyAuth(config.APIAuthConfig{
		APIKeys: []config.APIClientKey{
			{Key: "ops-key", Name: "ops", Permissions: []string{PermWriteRates}},
			{Key: "read-key", Name: "reader", Permissions: []string{"read:rates"}},
			{Key: "root-key", Name: "root"},
		},
	})
	assert.Equal(t, apiKeyHeaderDefault, keys.Header())

	name, err := keys.Authorize("ops-key", PermWriteRates)
	require.NoError(t, err)
	assert.Equal(t, "ops", name)

	name, err = keys.Authorize("root-key", PermWriteRates)
	require.NoError(t, err)
	assert.Equal(t, "root", name)

	_, err = keys.Authorize("read-key", PermWriteRates)
	var ue domain.UnauthorizedError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Forbidden)

	_, err = keys.Authorize("unknown", PermWriteRates)
	require.ErrorAs(t, err, &ue)
	assert.False(t, ue.Forbidden)

	_, err = keys.Authorize("  ", PermWriteRates)
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "missing api key", ue.Msg)

	custom := NewKeyAuth(config.APIAuthConfig{HeaderAPIKey: " X-Admin-Key "})
	assert.Equal(t, "x-admin-key", custom.Header())
}

func TestRequesterContext(t *testing.T) {
	assert.Empty(t, RequesterFrom(context.Background()))
	assert.Equal(t, testPhone, RequesterFrom(withRequester(context.Background(), testPhone)))
}

func TestRateLimiter(t *testing.T) {
	off := newRateLimiter(config.APIRateLimitConfig{})
	for i := 0; i < 100; i++ {
		require.True(t, off.allow("a"))
	}

	lim := newRateLimiter(config.APIRateLimitConfig{RPS: 0.001, Burst: 2})
	assert.True(t, lim.allow("a"))
	assert.True(t, lim.allow("a"))
	assert.False(t, lim.allow("a"))
	assert.True(t, lim.allow("b"), "buckets are per client")
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		http int
		code codes.Code
	}{
		{domain.ValidationError{Field: "pincode", Msg: "bad"}, http.StatusBadRequest, codes.InvalidArgument},
		{domain.NotServiceableError{Pincode: "400001"}, http.StatusBadRequest, codes.InvalidArgument},
		{domain.NotFoundError{Resource: "booking"}, http.StatusNotFound, codes.NotFound},
		{domain.UnauthorizedError{Msg: "no"}, http.StatusUnauthorized, codes.Unauthenticated},
		{domain.UnauthorizedError{Msg: "web", Forbidden: true}, http.StatusForbidden, codes.PermissionDenied},
		{domain.ConflictError{Msg: "already verified"}, http.StatusConflict, codes.AlreadyExists},
		{domain.ConflictError{Msg: "wait", Throttled: true}, http.StatusTooManyRequests, codes.ResourceExhausted},
		{domain.UpstreamError{Service: "gateway"}, http.StatusBadGateway, codes.Unavailable},
		{domain.IntegrityError{Msg: "signature"}, http.StatusBadRequest, codes.InvalidArgument},
		{fmt.Errorf("wrapped: %w", domain.ErrBookingNotFound), http.StatusNotFound, codes.NotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, codes.DeadlineExceeded},
		{errors.New("disk on fire"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			got, _ := httpStatus(tc.err)
			assert.Equal(t, tc.http, got)
			assert.Equal(t, tc.code, status.Code(toStatus(tc.err)))
		})
	}

	_, msg := httpStatus(errors.New("sql: connection reset"))
	assert.Equal(t, msgInternal, msg)
	assert.NoError(t, toStatus(nil))
}
