package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"blinklean/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStore serves from primary and switches to fallback on the first
// primary error. The primary is retried once per recoveryInterval.
type FailoverStore struct {
	primary   domain.Store
	fallback  domain.Store
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverStore(primary, fallback domain.Store, logger *zerolog.Logger) *FailoverStore {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// IsDegraded reports whether requests are currently served by the fallback.
func (r *FailoverStore) IsDegraded() bool {
	return r.isDown.Load()
}

func (r *FailoverStore) markDown(op string, err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Str("op", op).Msg("Primary store failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

func (r *FailoverStore) shouldTryPrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverStore) recovered() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary store recovered")
	}
}

func (r *FailoverStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if r.shouldTryPrimary() {
		ok, err := r.primary.SetNX(ctx, key, value, ttl)
		if err == nil {
			r.recovered()
			return ok, nil
		}
		r.markDown("setnx", err)
	}
	return r.fallback.SetNX(ctx, key, value, ttl)
}

func (r *FailoverStore) Get(ctx context.Context, key string) ([]byte, error) {
	if r.shouldTryPrimary() {
		val, err := r.primary.Get(ctx, key)
		if err == nil || errors.Is(err, ErrNotFound) {
			r.recovered()
			return val, err
		}
		r.markDown("get", err)
	}
	return r.fallback.Get(ctx, key)
}

func (r *FailoverStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if r.shouldTryPrimary() {
		err := r.primary.Set(ctx, key, value, ttl)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown("set", err)
	}
	return r.fallback.Set(ctx, key, value, ttl)
}

func (r *FailoverStore) Exists(ctx context.Context, key string) (bool, error) {
	if r.shouldTryPrimary() {
		ok, err := r.primary.Exists(ctx, key)
		if err == nil {
			r.recovered()
			return ok, nil
		}
		r.markDown("exists", err)
	}
	return r.fallback.Exists(ctx, key)
}

// Delete clears the key in both stores.
func (r *FailoverStore) Delete(ctx context.Context, keys ...string) error {
	if err := r.fallback.Delete(ctx, keys...); err != nil {
		return err
	}
	if r.shouldTryPrimary() {
		if err := r.primary.Delete(ctx, keys...); err != nil {
			r.markDown("delete", err)
		}
	}
	return nil
}

func (r *FailoverStore) DeletePrefix(ctx context.Context, prefix string) error {
	if err := r.fallback.DeletePrefix(ctx, prefix); err != nil {
		return err
	}
	if r.shouldTryPrimary() {
		if err := r.primary.DeletePrefix(ctx, prefix); err != nil {
			r.markDown("delete_prefix", err)
		}
	}
	return nil
}

func (r *FailoverStore) Ping(ctx context.Context) error {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if p, ok := r.primary.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			r.markDown("ping", err)
			return nil
		}
		r.recovered()
	}
	return nil
}
