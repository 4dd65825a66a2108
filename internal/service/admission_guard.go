package service

import (
	"context"
	"time"

	"blinklean/internal/domain"
)

// AdmissionGuard throttles booking submissions per requester.
// Held and Acquire are separate calls, so two concurrent first requests can
// both pass Held; only one of them wins Acquire.
type AdmissionGuard struct {
	store    domain.Store
	cooldown time.Duration
}

func NewAdmissionGuard(store domain.Store, cooldown time.Duration) *AdmissionGuard {
	return &AdmissionGuard{store: store, cooldown: cooldown}
}

func GuardKey(requester string) string {
	return "booking_spam:" + requester
}

func (g *AdmissionGuard) Held(ctx context.Context, requester string) (bool, error) {
	return g.store.Exists(ctx, GuardKey(requester))
}

// Acquire arms the guard and reports false if it was already armed.
func (g *AdmissionGuard) Acquire(ctx context.Context, requester string) (bool, error) {
	return g.store.SetNX(ctx, GuardKey(requester), []byte("1"), g.cooldown)
}
