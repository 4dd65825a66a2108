package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"blinklean/internal/config"
	"blinklean/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRazorpayClient_CreateOrder(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(19900), body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.True(t, strings.HasPrefix(body["receipt"].(string), "receipt_12_"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_XYZ","amount":19900,"currency":"INR","receipt":"receipt_12_1","status":"created"}`))
	}))
	defer srv.Close()

	c := NewRazorpayClient(config.PaymentConfig{BaseURL: srv.URL + "/v1/", KeyID: "rzp_test_key", KeySecret: "secret"}, nil)
	order, err := c.CreateOrder(context.Background(), domain.OrderRequest{Amount: 19900, Currency: "INR", Receipt: "receipt_12_1"})
	require.NoError(t, err)
	assert.Equal(t, "order_XYZ", order.ID)
	assert.Equal(t, int64(19900), order.Amount)
	assert.Equal(t, "rzp_test_key", c.KeyID())
	assert.Equal(t, int32(1), calls.Load())
}

func TestRazorpayClient_Errors(t *testing.T) {
	t.Run("GatewayRejects", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
		}))
		defer srv.Close()

		c := NewRazorpayClient(config.PaymentConfig{BaseURL: srv.URL, KeyID: "k", KeySecret: "s"}, nil)
		_, err := c.CreateOrder(context.Background(), domain.OrderRequest{Amount: 1, Currency: "INR"})
		var ue domain.UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.Contains(t, err.Error(), "amount too small")
		// no retry on failure
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("Timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		c := NewRazorpayClient(config.PaymentConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, nil)
		_, err := c.CreateOrder(context.Background(), domain.OrderRequest{Amount: 100, Currency: "INR"})
		var ue domain.UpstreamError
		assert.ErrorAs(t, err, &ue)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		c := NewRazorpayClient(config.PaymentConfig{BaseURL: srv.URL}, nil)
		_, err := c.CreateOrder(context.Background(), domain.OrderRequest{Amount: 100, Currency: "INR"})
		var ue domain.UpstreamError
		assert.ErrorAs(t, err, &ue)
	})

	t.Run("EmptyOrderID", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"amount":100}`))
		}))
		defer srv.Close()

		c := NewRazorpayClient(config.PaymentConfig{BaseURL: srv.URL}, nil)
		_, err := c.CreateOrder(context.Background(), domain.OrderRequest{Amount: 100, Currency: "INR"})
		assert.Error(t, err)
	})

	t.Run("Unreachable", func(t *testing.T) {
		c := NewRazorpayClient(config.PaymentConfig{BaseURL: "http://127.0.0.1:1"}, nil)
		_, err := c.CreateOrder(context.Background(), domain.OrderRequest{Amount: 100, Currency: "INR"})
		var ue domain.UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.NotNil(t, errors.Unwrap(ue))
	})
}

func TestSigner(t *testing.T) {
	s := NewSigner("test_secret")

	sig := s.Sign("order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.True(t, s.Verify("order_1", "pay_1", sig))

	assert.False(t, s.Verify("order_1", "pay_2", sig))
	assert.False(t, s.Verify("order_2", "pay_1", sig))
	assert.False(t, s.Verify("order_1", "pay_1", strings.ToUpper(sig)))
	assert.False(t, s.Verify("order_1", "pay_1", ""))
	assert.False(t, NewSigner("other").Verify("order_1", "pay_1", sig))
}

func TestStubGateway(t *testing.T) {
	g := NewStubGateway("rzp_dev")
	a, err := g.CreateOrder(context.Background(), domain.OrderRequest{Amount: 100, Currency: "INR", Receipt: "r"})
	require.NoError(t, err)
	b, err := g.CreateOrder(context.Background(), domain.OrderRequest{Amount: 100, Currency: "INR", Receipt: "r"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, int64(100), a.Amount)
	assert.Equal(t, "rzp_dev", g.KeyID())
}
