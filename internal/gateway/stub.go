package gateway

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"blinklean/internal/domain"
)

// StubGateway issues local order ids for development; no money moves.
type StubGateway struct {
	keyID string
	seq   atomic.Int64
}

func NewStubGateway(keyID string) *StubGateway {
	return &StubGateway{keyID: keyID}
}

func (s *StubGateway) KeyID() string { return s.keyID }

func (s *StubGateway) CreateOrder(_ context.Context, req domain.OrderRequest) (*domain.GatewayOrder, error) {
	id := fmt.Sprintf("order_stub_%d_%d", time.Now().UnixNano(), s.seq.Add(1))
	return &domain.GatewayOrder{
		ID:       id,
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}
