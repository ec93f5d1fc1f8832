// Package analytics defines the link lifecycle events published by the
// service and consumed by the analytics worker.
package analytics

import "time"

const (
	TopicLinkCreated = "link.created"
	TopicLinkVisited = "link.visited"
	TopicLinkExpired = "link.expired"
)

// ExpiryCause says which path removed an expired link.
type ExpiryCause string

const (
	CauseSweep   ExpiryCause = "sweep"
	CauseResolve ExpiryCause = "resolve"
)

// LinkCreatedEvent is emitted when Shorten writes a new mapping.
type LinkCreatedEvent struct {
	Code      string    `json:"code"`
	LongURL   string    `json:"longUrl"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
}

// LinkVisitedEvent is emitted for every successful resolution.
type LinkVisitedEvent struct {
	Code      string    `json:"code"`
	Clicks    int64     `json:"clicks"`
	VisitedAt time.Time `json:"visitedAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
	Referrer  string    `json:"referrer"`
}

// LinkExpiredEvent is emitted when an expired mapping is deleted.
type LinkExpiredEvent struct {
	Code      string      `json:"code"`
	LongURL   string      `json:"longUrl"`
	Clicks    int64       `json:"clicks"`
	ExpiredAt time.Time   `json:"expiredAt"`
	DeletedAt time.Time   `json:"deletedAt"`
	Cause     ExpiryCause `json:"cause"`
}
