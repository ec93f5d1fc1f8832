package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Record(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, errors.New("store down")
}

func TestPolicyLimiter_Allow(t *testing.T) {
	t.Run("allows requests under every limit", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 5, time.Minute).
			AddLimit(ratelimit.ScopeRead, 5, time.Minute).
			Build()
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), policy)

		for range 5 {
			allowed, exceeded, err := limiter.Allow(context.Background(), "client1",
				[]ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeRead})

			require.NoError(t, err)
			assert.True(t, allowed)
			assert.Nil(t, exceeded)
		}
	})

	t.Run("reports the scope that was exceeded", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, 100, time.Minute).
			AddLimit(ratelimit.ScopeAuth, 2, time.Minute).
			Build()
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), policy)
		scopes := []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeAuth}

		for range 2 {
			allowed, _, _ := limiter.Allow(context.Background(), "client1", scopes)
			assert.True(t, allowed)
		}

		allowed, exceeded, err := limiter.Allow(context.Background(), "client1", scopes)

		require.NoError(t, err)
		assert.False(t, allowed)
		require.NotNil(t, exceeded)
		assert.Equal(t, ratelimit.ScopeAuth, exceeded.Scope)
		assert.Equal(t, int64(3), exceeded.Count)
		assert.Equal(t, int64(2), exceeded.Config.Max)
		assert.Contains(t, exceeded.String(), "auth scope, 3/2")
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().AddLimit(ratelimit.ScopeWrite, 1, time.Minute).Build()
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), policy)
		scopes := []ratelimit.Scope{ratelimit.ScopeWrite}

		allowed, _, _ := limiter.Allow(context.Background(), "client1", scopes)
		assert.True(t, allowed)

		allowed, _, _ = limiter.Allow(context.Background(), "client1", scopes)
		assert.False(t, allowed, "client1 should be rate limited")

		allowed, _, err := limiter.Allow(context.Background(), "client2", scopes)

		require.NoError(t, err)
		assert.True(t, allowed, "client2 should still be allowed")
	})

	t.Run("ignores scopes without limits", func(t *testing.T) {
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), ratelimit.NewPolicyBuilder().Build())

		allowed, exceeded, err := limiter.Allow(context.Background(), "client1", []ratelimit.Scope{ratelimit.ScopeRead})

		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Nil(t, exceeded)
	})

	t.Run("allows again after the window lapses", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().AddLimit(ratelimit.ScopeGlobal, 1, 50*time.Millisecond).Build()
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), policy)
		scopes := []ratelimit.Scope{ratelimit.ScopeGlobal}

		_, _, _ = limiter.Allow(context.Background(), "client1", scopes)

		allowed, _, _ := limiter.Allow(context.Background(), "client1", scopes)
		assert.False(t, allowed)

		time.Sleep(60 * time.Millisecond)

		allowed, _, err := limiter.Allow(context.Background(), "client1", scopes)

		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().AddLimit(ratelimit.ScopeGlobal, 10, time.Minute).Build()
		limiter := ratelimit.NewPolicyLimiter(failingStore{}, policy)

		allowed, _, err := limiter.Allow(context.Background(), "client1", []ratelimit.Scope{ratelimit.ScopeGlobal})

		require.Error(t, err)
		assert.False(t, allowed)
	})
}

func TestPolicyLimiter_AllowRoute(t *testing.T) {
	t.Run("enforces the tightest route window", func(t *testing.T) {
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), ratelimit.DefaultPolicy())
		limits := []ratelimit.LimitConfig{
			{Window: time.Minute, Max: 2},
			{Window: time.Hour, Max: 100},
		}

		for range 2 {
			allowed, _, err := limiter.AllowRoute(context.Background(), "client1", "/api/urls/shorten", limits)

			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, exceeded, err := limiter.AllowRoute(context.Background(), "client1", "/api/urls/shorten", limits)

		require.NoError(t, err)
		assert.False(t, allowed)
		require.NotNil(t, exceeded)
		assert.Empty(t, exceeded.Scope)
		assert.Equal(t, "3/2 requests in 1m0s", exceeded.String())
	})

	t.Run("routes have separate budgets", func(t *testing.T) {
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), ratelimit.DefaultPolicy())
		limits := []ratelimit.LimitConfig{{Window: time.Minute, Max: 1}}

		allowed, _, _ := limiter.AllowRoute(context.Background(), "client1", "/a", limits)
		assert.True(t, allowed)

		allowed, _, _ = limiter.AllowRoute(context.Background(), "client1", "/b", limits)
		assert.True(t, allowed)
	})
}

func TestDefaultPolicy(t *testing.T) {
	policy := ratelimit.DefaultPolicy()

	for _, scope := range []ratelimit.Scope{
		ratelimit.ScopeGlobal, ratelimit.ScopeRead, ratelimit.ScopeWrite, ratelimit.ScopeAuth,
	} {
		assert.NotEmpty(t, policy.Limits[scope], "scope %s should have limits", scope)
	}

	assert.Less(t, policy.Limits[ratelimit.ScopeAuth][0].Max, policy.Limits[ratelimit.ScopeWrite][0].Max)
}
