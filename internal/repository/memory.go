package repository

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore is a process-local store used when Redis is not configured
// or while it is unreachable.
type MemoryStore struct {
	items *cache.Cache
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{items: cache.New(cache.NoExpiration, cleanupInterval)}
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return cache.NoExpiration
	}
	return ttl
}

// SetNX uses cache.Add, which fails when an unexpired item already exists.
func (m *MemoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := m.items.Add(key, value, expiration(ttl)); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	val, ok := m.items.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return val.([]byte), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.items.Set(key, value, expiration(ttl))
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.items.Get(key)
	return ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.items.Delete(k)
	}
	return nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	for k := range m.items.Items() {
		if strings.HasPrefix(k, prefix) {
			m.items.Delete(k)
		}
	}
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
