package handlers

import (
	"context"
	"time"

	"github.com/serroba/shortlink/internal/analytics"
	"github.com/serroba/shortlink/internal/auth"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// URLHandler handles URL shortening operations.
type URLHandler struct {
	service *shortener.Service
	events  *analytics.Publishers
	logger  *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(service *shortener.Service, events *analytics.Publishers, logger *zap.Logger) *URLHandler {
	return &URLHandler{
		service: service,
		events:  events,
		logger:  logger,
	}
}

// Shorten creates a short URL, or refreshes the live one for the same URL,
// and returns the full short URL.
func (h *URLHandler) Shorten(ctx context.Context, req *ShortenRequest) (*TextResponse, error) {
	m, err := h.service.Shorten(ctx, shortener.ShortenRequest{
		LongURL:       req.URL,
		Token:         auth.BearerToken(req.Authorization),
		ExpireMinutes: req.ExpireMinutes,
	})
	if err != nil {
		return nil, httpError(err)
	}

	meta := analytics.RequestMetaFromContext(ctx)
	event := &analytics.LinkCreatedEvent{
		Code:      string(m.ShortCode),
		LongURL:   m.LongURL,
		Owner:     m.OwnerID,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}

	if err = h.events.Created(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	return text(h.service.ShortURL(m.ShortCode)), nil
}

// Resolve returns the original URL behind a short code.
func (h *URLHandler) Resolve(ctx context.Context, req *ResolveRequest) (*TextResponse, error) {
	m, err := h.service.Resolve(ctx, req.ShortCode)
	if err != nil {
		return nil, httpError(err)
	}

	meta := analytics.RequestMetaFromContext(ctx)
	event := &analytics.LinkVisitedEvent{
		Code:      string(m.ShortCode),
		Clicks:    m.Clicks,
		VisitedAt: time.Now().UTC(),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}

	if err = h.events.Visited(ctx, event); err != nil {
		h.logger.Error("failed to publish access event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	return text(m.LongURL), nil
}

// UpdateExpiration moves a link's expiry to now plus the given minutes.
func (h *URLHandler) UpdateExpiration(ctx context.Context, req *UpdateExpirationRequest) (*TextResponse, error) {
	err := h.service.UpdateExpiration(ctx, req.ShortCode, req.Minutes, auth.BearerToken(req.Authorization))
	if err != nil {
		return nil, httpError(err)
	}

	return text("Expiration updated"), nil
}
