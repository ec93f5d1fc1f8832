package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/ratelimit"
)

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store,
// used when no Redis address is configured.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	// Timestamps are appended in order, so the live ones are a suffix.
	timestamps := s.requests[key]
	first := len(timestamps)

	for i, ts := range timestamps {
		if ts.After(cutoff) {
			first = i

			break
		}
	}

	live := append(timestamps[first:len(timestamps):len(timestamps)], now)
	s.requests[key] = live

	return int64(len(live)), nil
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
