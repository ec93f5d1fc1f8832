package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval is how often the sweeper scans when not configured.
const DefaultSweepInterval = time.Minute

// ExpiredHook is called for every mapping the sweeper deletes.
type ExpiredHook func(ctx context.Context, m *Mapping)

// Sweeper periodically deletes expired mappings.
type Sweeper struct {
	store     Repository
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
	onExpired ExpiredHook
	cancel    context.CancelFunc
	done      chan struct{}
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepClock replaces time.Now.
func WithSweepClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		s.now = now
	}
}

// WithExpiredHook registers a callback for deleted mappings.
func WithExpiredHook(hook ExpiredHook) SweeperOption {
	return func(s *Sweeper) {
		s.onExpired = hook
	}
}

// NewSweeper creates a sweeper. A non-positive interval uses DefaultSweepInterval.
func NewSweeper(store Repository, interval time.Duration, logger *zap.Logger, opts ...SweeperOption) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	s := &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start runs the sweep loop in the background until ctx is cancelled or
// Shutdown is called.
func (s *Sweeper) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.loop(ctx)

	s.logger.Info("expiration sweeper started", zap.Duration("interval", s.interval))

	return nil
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

// run performs one sweep and never lets a failure escape the loop.
func (s *Sweeper) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweep panicked", zap.Any("panic", r))
		}
	}()

	deleted, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("sweep failed", zap.Int("deleted", deleted), zap.Error(err))

		return
	}

	if deleted > 0 {
		s.logger.Info("sweep completed", zap.Int("deleted", deleted))
	} else {
		s.logger.Debug("no expired mappings found")
	}
}

// Sweep scans every mapping once and deletes the expired ones. It stops at
// the first store failure and returns how many were deleted before it.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	mappings, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list mappings: %w", err)
	}

	now := s.now()
	deleted := 0

	for _, m := range mappings {
		if !m.Expired(now) {
			continue
		}

		s.logger.Info("deleting expired mapping",
			zap.String("code", string(m.ShortCode)),
			zap.Time("expiredAt", m.ExpiresAt),
		)

		err = s.store.Delete(ctx, m.ID)
		if errors.Is(err, ErrNotFound) {
			// Already removed by a concurrent resolution.
			continue
		}

		if err != nil {
			return deleted, fmt.Errorf("delete mapping %d: %w", m.ID, err)
		}

		deleted++

		if s.onExpired != nil {
			s.onExpired(ctx, m)
		}
	}

	return deleted, nil
}

// Shutdown stops the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Shutdown() error {
	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done

	s.logger.Info("expiration sweeper stopped")

	return nil
}
