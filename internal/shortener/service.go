package shortener

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/serroba/shortlink/internal/apperr"
	"github.com/serroba/shortlink/internal/base62"
	"go.uber.org/zap"
)

const (
	msgNotFound = "URL not found"
	msgExpired  = "URL has expired"
)

// OwnerResolver turns a caller's bearer token into the owner id recorded on
// mappings. Failures must carry apperr.KindUnauthorized.
type OwnerResolver interface {
	OwnerFromToken(ctx context.Context, token string) (string, error)
}

// Config holds the externally supplied settings of the service.
type Config struct {
	// BaseURL prefixes every short code, e.g. "http://localhost:8888/".
	BaseURL string
	// DefaultExpireMinutes applies when a request does not name one.
	DefaultExpireMinutes int64
}

// ShortenRequest is the input of Shorten. ExpireMinutes of zero means
// "use the configured default".
type ShortenRequest struct {
	LongURL       string
	Token         string
	ExpireMinutes int64
}

// Service creates, refreshes and resolves mappings.
type Service struct {
	store     Repository
	owners    OwnerResolver
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
	onExpired ExpiredHook
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithOnExpired registers a callback for mappings Resolve finds expired and
// deletes.
func WithOnExpired(hook ExpiredHook) Option {
	return func(s *Service) {
		s.onExpired = hook
	}
}

// NewService creates a new shortening and resolution service.
func NewService(store Repository, owners OwnerResolver, cfg Config, logger *zap.Logger, opts ...Option) *Service {
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}

	s := &Service{
		store:  store,
		owners: owners,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ShortURL returns the public URL for a code.
func (s *Service) ShortURL(code Code) string {
	return s.cfg.BaseURL + string(code)
}

// Shorten returns the mapping for req.LongURL. A live mapping is reused and
// its expiry pushed out; an expired one is replaced by a new mapping with a
// new code.
func (s *Service) Shorten(ctx context.Context, req ShortenRequest) (*Mapping, error) {
	const op = "shortener.Shorten"

	owner, err := s.owners.OwnerFromToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	if err = ValidateLongURL(req.LongURL); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidArgument, op, err)
	}

	if req.ExpireMinutes < 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, op, "expireMinutes must be positive")
	}

	minutes := s.cfg.DefaultExpireMinutes
	if req.ExpireMinutes > 0 {
		minutes = req.ExpireMinutes
	}

	now := s.now()

	existing, err := s.store.GetByLongURL(ctx, req.LongURL)

	switch {
	case err == nil && !existing.Expired(now):
		return s.refresh(ctx, op, existing, now, minutes)
	case err == nil:
		s.logger.Info("replacing expired mapping",
			zap.String("code", string(existing.ShortCode)),
			zap.Time("expiredAt", existing.ExpiresAt),
		)

		err = s.store.Delete(ctx, existing.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, storeError(op, err)
		}

		if err == nil && s.onExpired != nil {
			s.onExpired(ctx, existing)
		}
	case !errors.Is(err, ErrNotFound):
		return nil, storeError(op, err)
	}

	created, err := s.create(ctx, req.LongURL, owner, now, minutes)
	if errors.Is(err, ErrConflict) {
		// A concurrent request created the mapping first; reuse it.
		existing, err = s.store.GetByLongURL(ctx, req.LongURL)
		if err != nil {
			return nil, storeError(op, err)
		}

		return s.refresh(ctx, op, existing, now, minutes)
	}

	if err != nil {
		return nil, storeError(op, err)
	}

	s.logger.Info("created mapping",
		zap.Int64("id", created.ID),
		zap.String("code", string(created.ShortCode)),
		zap.String("owner", owner),
	)

	return created, nil
}

func (s *Service) refresh(ctx context.Context, op string, m *Mapping, now time.Time, minutes int64) (*Mapping, error) {
	m.ExpiresAt = now.Add(time.Duration(minutes) * time.Minute)

	if err := s.store.UpdateExpiration(ctx, m.ID, m.ExpiresAt, m.OwnerID); err != nil {
		return nil, storeError(op, err)
	}

	s.logger.Debug("refreshed mapping",
		zap.String("code", string(m.ShortCode)),
		zap.Time("expiresAt", m.ExpiresAt),
	)

	return m, nil
}

func (s *Service) create(ctx context.Context, longURL, owner string, now time.Time, minutes int64) (*Mapping, error) {
	id, err := s.store.NextID(ctx)
	if err != nil {
		return nil, err
	}

	code, err := base62.Encode(id)
	if err != nil {
		return nil, err
	}

	m := &Mapping{
		ID:        id,
		LongURL:   longURL,
		ShortCode: Code(code),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(minutes) * time.Minute),
		Clicks:    0,
		OwnerID:   owner,
	}

	if err = s.store.Create(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// Resolve returns the mapping behind a short code or full short URL and
// records one click. An expired mapping is deleted and reported as expired.
func (s *Service) Resolve(ctx context.Context, codeOrURL string) (*Mapping, error) {
	const op = "shortener.Resolve"

	m, err := s.lookup(ctx, op, codeOrURL)
	if err != nil {
		return nil, err
	}

	if m.Expired(s.now()) {
		err = s.store.Delete(ctx, m.ID)

		switch {
		case err == nil:
			if s.onExpired != nil {
				s.onExpired(ctx, m)
			}
		case !errors.Is(err, ErrNotFound):
			s.logger.Warn("failed to delete expired mapping",
				zap.String("code", string(m.ShortCode)),
				zap.Error(err),
			)
		}

		s.logger.Info("short code has expired",
			zap.String("code", string(m.ShortCode)),
			zap.Time("expiredAt", m.ExpiresAt),
		)

		return nil, apperr.New(apperr.KindExpired, op, msgExpired)
	}

	clicks, err := s.store.IncrementClicks(ctx, m.ID)
	if err != nil {
		return nil, storeError(op, err)
	}

	m.Clicks = clicks

	s.logger.Debug("resolved short code",
		zap.String("code", string(m.ShortCode)),
		zap.Int64("clicks", clicks),
	)

	return m, nil
}

// UpdateExpiration moves a mapping's expiry to now+minutes and records the
// caller as its owner. Any authenticated caller may do this.
func (s *Service) UpdateExpiration(ctx context.Context, codeOrURL string, minutes int64, token string) error {
	const op = "shortener.UpdateExpiration"

	owner, err := s.owners.OwnerFromToken(ctx, token)
	if err != nil {
		return err
	}

	if minutes <= 0 {
		return apperr.New(apperr.KindInvalidArgument, op, "minutes must be positive")
	}

	m, err := s.lookup(ctx, op, codeOrURL)
	if err != nil {
		return err
	}

	expiresAt := s.now().Add(time.Duration(minutes) * time.Minute)

	if err = s.store.UpdateExpiration(ctx, m.ID, expiresAt, owner); err != nil {
		return storeError(op, err)
	}

	s.logger.Info("updated expiration",
		zap.String("code", string(m.ShortCode)),
		zap.String("owner", owner),
		zap.Time("expiresAt", expiresAt),
	)

	return nil
}

// lookup strips the base URL, decodes the code and loads the mapping.
// It does not check expiry.
func (s *Service) lookup(ctx context.Context, op, codeOrURL string) (*Mapping, error) {
	input := strings.TrimSpace(codeOrURL)
	if input == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, op, "short code is blank")
	}

	code, _ := strings.CutPrefix(input, s.cfg.BaseURL)

	id, err := base62.Decode(code)
	if err != nil {
		// No stored mapping can have an undecodable code.
		return nil, &apperr.Error{Kind: apperr.KindNotFound, Op: op, Msg: msgNotFound, Err: err}
	}

	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(op, err)
	}

	return m, nil
}

// storeError tags a repository failure with a kind unless it already has one.
func storeError(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Msg: msgNotFound, Err: err}
	}

	var tagged *apperr.Error
	if errors.As(err, &tagged) {
		return err
	}

	return apperr.Wrap(apperr.KindInternal, op, err)
}
