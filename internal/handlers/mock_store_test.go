package handlers_test

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/analytics"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
)

const testURL = "https://example.com/very/long/path"

// mockStore is a memory store whose reads can be forced to fail.
type mockStore struct {
	*store.MemoryStore
	getErr error
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (*shortener.Mapping, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}

	return m.MemoryStore.GetByID(ctx, id)
}

// recorder captures published analytics events.
type recorder struct {
	mu      sync.Mutex
	created []analytics.LinkCreatedEvent
	visited []analytics.LinkVisitedEvent
	err     error
}

func (r *recorder) publishers() *analytics.Publishers {
	return &analytics.Publishers{
		Created: func(_ context.Context, e *analytics.LinkCreatedEvent) error {
			r.mu.Lock()
			defer r.mu.Unlock()

			r.created = append(r.created, *e)

			return r.err
		},
		Visited: func(_ context.Context, e *analytics.LinkVisitedEvent) error {
			r.mu.Lock()
			defer r.mu.Unlock()

			r.visited = append(r.visited, *e)

			return r.err
		},
		Expired: func(_ context.Context, _ *analytics.LinkExpiredEvent) error {
			return r.err
		},
	}
}

// clock is a settable time source for the shortener service.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}
