package shortener

import "time"

// Code represents a short URL code.
type Code string

// Mapping links a long URL to the short code derived from its row id.
type Mapping struct {
	ID        int64
	LongURL   string
	ShortCode Code
	CreatedAt time.Time
	ExpiresAt time.Time
	Clicks    int64
	OwnerID   string
}

// Expired reports whether the mapping lapsed before now. Resolution and the
// sweeper both decide deletion with this predicate.
func (m *Mapping) Expired(now time.Time) bool {
	return m.ExpiresAt.Before(now)
}
