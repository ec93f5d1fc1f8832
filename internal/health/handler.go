package health

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Handler handles health check operations.
type Handler struct {
	database Checker
	redis    Checker
	logger   *zap.Logger
}

// NewHandler creates a new health handler. A nil redis checker reports
// Redis as disabled.
func NewHandler(database, redis Checker, logger *zap.Logger) *Handler {
	return &Handler{database: database, redis: redis, logger: logger}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Redis    string `json:"redis"`
	}
}

// Check performs a health check of the application and its dependencies.
// A failing database makes the service down, a failing Redis only degrades it.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Database = statusHealthy
	resp.Body.Redis = statusDisabled

	if h.redis != nil {
		resp.Body.Redis = statusHealthy

		if err := h.redis.Ping(ctx); err != nil {
			h.logger.Warn("redis health check failed", zap.Error(err))
			resp.Body.Redis = statusUnhealthy
			resp.Body.Status = "degraded"
		}
	}

	if err := h.database.Ping(ctx); err != nil {
		h.logger.Error("database health check failed", zap.Error(err))
		resp.Body.Database = statusUnhealthy
		resp.Body.Status = "down"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes. Health checks are not rate limited.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Check)
}
