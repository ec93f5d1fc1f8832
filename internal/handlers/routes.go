package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/ratelimit"
)

// BearerScheme names the security scheme declared in the OpenAPI components.
const BearerScheme = "bearer"

var bearer = []map[string][]string{{BearerScheme: {}}}

// RegisterRoutes registers the URL and auth routes with per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, urls *URLHandler, accounts *AuthHandler) {
	// Shorten is the only write that creates rows, so it gets its own budget.
	huma.Register(api, huma.Operation{
		OperationID: "shorten-url",
		Method:      http.MethodPost,
		Path:        "/api/urls/shorten",
		Summary:     "Create short URL",
		Description: "Creates a short URL, or refreshes the expiry of the live one for the same URL.",
		Tags:        []string{"URLs"},
		Security:    bearer,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 30},
					{Window: time.Hour, Max: 500},
				},
			},
		},
	}, urls.Shorten)

	huma.Register(api, huma.Operation{
		OperationID: "resolve-url",
		Method:      http.MethodGet,
		Path:        "/api/urls/{shortCode}",
		Summary:     "Resolve short URL",
		Description: "Returns the original URL and counts one click. Expired links answer 410.",
		Tags:        []string{"URLs"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRead},
		},
	}, urls.Resolve)

	huma.Register(api, huma.Operation{
		OperationID: "update-expiration",
		Method:      http.MethodPut,
		Path:        "/api/urls/{shortCode}/expiration",
		Summary:     "Update expiration",
		Description: "Moves the expiry of a short URL to now plus the given minutes.",
		Tags:        []string{"URLs"},
		Security:    bearer,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeWrite},
		},
	}, urls.UpdateExpiration)

	huma.Register(api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/auth/register",
		Summary:     "Register",
		Tags:        []string{"Auth"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeAuth},
		},
	}, accounts.Register)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/auth/login",
		Summary:     "Log in",
		Tags:        []string{"Auth"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeAuth},
		},
	}, accounts.Login)
}
