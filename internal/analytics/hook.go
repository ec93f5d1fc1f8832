package analytics

import (
	"context"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// ExpiredHook publishes a LinkExpiredEvent for every mapping removed by cause.
// Publish failures are logged and dropped.
func (p *Publishers) ExpiredHook(cause ExpiryCause, logger *zap.Logger) shortener.ExpiredHook {
	return func(ctx context.Context, m *shortener.Mapping) {
		event := &LinkExpiredEvent{
			Code:      string(m.ShortCode),
			LongURL:   m.LongURL,
			Clicks:    m.Clicks,
			ExpiredAt: m.ExpiresAt,
			DeletedAt: time.Now().UTC(),
			Cause:     cause,
		}

		if err := p.Expired(ctx, event); err != nil {
			logger.Error("failed to publish expiry event",
				zap.String("code", event.Code),
				zap.String("cause", string(cause)),
				zap.Error(err),
			)
		}
	}
}
