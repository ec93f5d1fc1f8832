package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/analytics"
	"github.com/serroba/shortlink/internal/auth"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/health"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// HTTPPackage provides the *chi.Mux and the huma.API with every route
// registered. Invoking huma.API is what mounts the routes on the router.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)

		config := huma.DefaultConfig("URL Shortener", "1.0.0")
		config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
			handlers.BearerScheme: {
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
			},
		}

		api := humachi.New(router, config)
		api.UseMiddleware(middleware.RequestMeta(api))

		if opts.RateLimit {
			limiter := do.MustInvoke[*ratelimit.PolicyLimiter](i)
			api.UseMiddleware(middleware.PolicyRateLimiter(api, limiter,
				ratelimit.NewOperationScopeResolver(), logger.Named("ratelimit")))
		}

		urls := handlers.NewURLHandler(
			do.MustInvoke[*shortener.Service](i),
			do.MustInvoke[*analytics.Publishers](i),
			logger.Named("http"),
		)
		accounts := handlers.NewAuthHandler(do.MustInvoke[*auth.Service](i))

		handlers.RegisterRoutes(api, urls, accounts)
		health.RegisterRoutes(api, health.NewHandler(do.MustInvoke[Repository](i), redisChecker(i), logger))

		return api, nil
	})
}

// redisChecker returns nil, not a typed nil, when Redis is disabled.
func redisChecker(i *do.Injector) health.Checker {
	r := do.MustInvoke[*Redis](i)
	if r.Client == nil {
		return nil
	}

	return health.NewRedisChecker(r.Client)
}
