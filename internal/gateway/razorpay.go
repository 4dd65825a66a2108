package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"blinklean/internal/config"
	"blinklean/internal/domain"

	"github.com/rs/zerolog"
)

// RazorpayClient creates orders against a Razorpay-compatible orders API.
// Calls are never retried.
type RazorpayClient struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
	logger    *zerolog.Logger
}

func NewRazorpayClient(cfg config.PaymentConfig, logger *zerolog.Logger) *RazorpayClient {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RazorpayClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

func (c *RazorpayClient) KeyID() string { return c.keyID }

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type gatewayErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.GatewayOrder, error) {
	body, err := json.Marshal(createOrderRequest{Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt})
	if err != nil {
		return nil, fmt.Errorf("encode order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, domain.UpstreamError{Service: "razorpay", Msg: "Failed to create payment order", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.UpstreamError{Service: "razorpay", Msg: "Failed to create payment order", Err: err}
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("receipt", req.Receipt).
		Dur("latency", time.Since(start)).
		Msg("gateway order response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ge gatewayErrorBody
		_ = json.Unmarshal(respBody, &ge)
		return nil, domain.UpstreamError{
			Service: "razorpay",
			Msg:     "Failed to create payment order",
			Err:     fmt.Errorf("gateway status %d: %s %s", resp.StatusCode, ge.Error.Code, ge.Error.Description),
		}
	}

	var order domain.GatewayOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, domain.UpstreamError{Service: "razorpay", Msg: "Failed to create payment order", Err: fmt.Errorf("decode order: %w", err)}
	}
	if order.ID == "" {
		return nil, domain.UpstreamError{Service: "razorpay", Msg: "Failed to create payment order", Err: fmt.Errorf("gateway returned empty order id")}
	}
	return &order, nil
}
