package container

import (
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/analytics"
	"github.com/serroba/shortlink/internal/auth"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"go.uber.org/zap"
)

const generatedSecretLength = 48

// AuthPackage provides *auth.Service.
func AuthPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*auth.Service, error) {
		opts := do.MustInvoke[*Options](i)
		repo := do.MustInvoke[Repository](i)
		logger := do.MustInvoke[*zap.Logger](i)

		secret := opts.JWTSecret
		if secret == "" {
			generate, err := nanoid.Standard(generatedSecretLength)
			if err != nil {
				return nil, err
			}

			secret = generate()

			logger.Warn("no JWT secret configured, tokens will not survive a restart")
		}

		ttl := time.Duration(opts.TokenTTLMinutes) * time.Minute

		return auth.NewService(repo, secret, ttl, logger.Named("auth"))
	})
}

// ShortenerPackage provides *shortener.Service. Links Resolve finds expired
// are reported as link.expired events.
func ShortenerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)
		repo := do.MustInvoke[Repository](i)
		owners := do.MustInvoke[*auth.Service](i)
		events := do.MustInvoke[*analytics.Publishers](i)
		logger := do.MustInvoke[*zap.Logger](i).Named("shortener")

		cfg := shortener.Config{
			BaseURL:              opts.PublicBaseURL(),
			DefaultExpireMinutes: int64(opts.DefaultExpireMinutes),
		}

		return shortener.NewService(repo, owners, cfg, logger,
			shortener.WithOnExpired(events.ExpiredHook(analytics.CauseResolve, logger)),
		), nil
	})
}

// SweeperPackage provides *shortener.Sweeper. The injector stops it on shutdown.
func SweeperPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Sweeper, error) {
		opts := do.MustInvoke[*Options](i)
		repo := do.MustInvoke[Repository](i)
		events := do.MustInvoke[*analytics.Publishers](i)
		logger := do.MustInvoke[*zap.Logger](i).Named("sweeper")

		interval := time.Duration(opts.SweepIntervalSeconds) * time.Second

		return shortener.NewSweeper(repo, interval, logger,
			shortener.WithExpiredHook(events.ExpiredHook(analytics.CauseSweep, logger)),
		), nil
	})
}

// RateLimitPackage provides *ratelimit.PolicyLimiter backed by Redis when
// available, memory otherwise.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		r := do.MustInvoke[*Redis](i)

		var limits ratelimit.Store = store.NewRateLimitMemoryStore()
		if r.Client != nil {
			limits = store.NewRateLimitRedisStore(r.Client)
		}

		return ratelimit.NewPolicyLimiter(limits, ratelimit.DefaultPolicy()), nil
	})
}
