package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"blinklean/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	t.Cleanup(func() { _ = Close(client) })
	return s, client
}

func TestRedisStore(t *testing.T) {
	s, client := newTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	t.Run("SetNXOnlyOnce", func(t *testing.T) {
		ok, err := store.SetNX(ctx, "booking_spam:9876543210", []byte("1"), 10*time.Second)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.SetNX(ctx, "booking_spam:9876543210", []byte("1"), 10*time.Second)
		require.NoError(t, err)
		assert.False(t, ok)

		s.FastForward(11 * time.Second)

		ok, err = store.SetNX(ctx, "booking_spam:9876543210", []byte("1"), 10*time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("SetGetExists", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "eligibility:560040::", []byte(`{"serviceable":true}`), time.Minute))

		val, err := store.Get(ctx, "eligibility:560040::")
		require.NoError(t, err)
		assert.JSONEq(t, `{"serviceable":true}`, string(val))

		ok, err := store.Exists(ctx, "eligibility:560040::")
		require.NoError(t, err)
		assert.True(t, ok)

		s.FastForward(2 * time.Minute)
		_, err = store.Get(ctx, "eligibility:560040::")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeletePrefix", func(t *testing.T) {
		for i := 0; i < 350; i++ {
			require.NoError(t, store.Set(ctx, fmt.Sprintf("services:app:%d", i), []byte("x"), time.Minute))
		}
		require.NoError(t, store.Set(ctx, "other:key", []byte("x"), time.Minute))

		require.NoError(t, store.DeletePrefix(ctx, "services:"))

		keys := s.Keys()
		for _, k := range keys {
			assert.NotContains(t, k, "services:")
		}
		assert.False(t, s.Exists("services:app:99"))
		assert.False(t, s.Exists("services:app:349"))
		assert.True(t, s.Exists("other:key"))

		require.NoError(t, store.DeletePrefix(ctx, "services:"))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
		require.NoError(t, store.Delete(ctx, "a"))
		require.NoError(t, store.Delete(ctx))
		assert.False(t, s.Exists("a"))
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}

func TestRedisStore_ServerDown(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewRedisStore(client)
	s.Close()

	ctx := context.Background()
	_, err = store.SetNX(ctx, "k", []byte("v"), time.Second)
	assert.Error(t, err)
	_, err = store.Get(ctx, "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, store.Ping(ctx))
}

func TestRedisStore_NilClient(t *testing.T) {
	store := NewRedisStore(nil)
	ctx := context.Background()

	_, err := store.SetNX(ctx, "k", nil, time.Second)
	assert.Error(t, err)
	_, err = store.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, store.Set(ctx, "k", nil, 0))
	_, err = store.Exists(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, "k"))
	assert.Error(t, store.DeletePrefix(ctx, "k"))
	assert.Error(t, store.Ping(ctx))
	assert.NoError(t, Close(nil))
}
