package store

import (
	"context"

	"github.com/serroba/shortlink/internal/analytics"
	"go.uber.org/zap"
)

// LogSink is an analytics.Store that writes each event as a structured log
// line for a downstream log pipeline to aggregate.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new logging analytics store.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("analytics")}
}

func (s *LogSink) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	s.logger.Info("link created",
		zap.String("code", event.Code),
		zap.String("url", event.LongURL),
		zap.String("owner", event.Owner),
		zap.Time("createdAt", event.CreatedAt),
		zap.Time("expiresAt", event.ExpiresAt),
		zap.String("clientIp", event.ClientIP),
	)

	return nil
}

func (s *LogSink) SaveLinkVisited(_ context.Context, event *analytics.LinkVisitedEvent) error {
	s.logger.Info("link visited",
		zap.String("code", event.Code),
		zap.Int64("clicks", event.Clicks),
		zap.Time("visitedAt", event.VisitedAt),
		zap.String("referrer", event.Referrer),
		zap.String("userAgent", event.UserAgent),
	)

	return nil
}

func (s *LogSink) SaveLinkExpired(_ context.Context, event *analytics.LinkExpiredEvent) error {
	s.logger.Info("link expired",
		zap.String("code", event.Code),
		zap.String("url", event.LongURL),
		zap.Int64("clicks", event.Clicks),
		zap.Time("expiredAt", event.ExpiredAt),
		zap.String("cause", string(event.Cause)),
	)

	return nil
}

var _ analytics.Store = (*LogSink)(nil)
