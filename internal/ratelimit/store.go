package ratelimit

import (
	"context"
	"time"
)

// Store counts requests per key over a sliding window. Keys are built by the
// limiter as "<client>:<scope>:<windowMs>" or "<client>:route:<path>:<windowMs>".
type Store interface {
	// Record adds one hit for key, drops hits older than window and returns
	// the hits left, including this one.
	Record(ctx context.Context, key string, window time.Duration) (int64, error)
}
