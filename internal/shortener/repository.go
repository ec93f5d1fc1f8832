package shortener

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by a Repository when no mapping matches.
	ErrNotFound = errors.New("mapping not found")
	// ErrConflict is returned by Create when the long URL or code is taken.
	ErrConflict = errors.New("mapping already exists")
)

// Repository is the durable table of mappings.
type Repository interface {
	// NextID reserves a fresh identifier so the short code can be computed
	// before the row is written.
	NextID(ctx context.Context) (int64, error)

	// Create inserts a mapping whose ID and ShortCode are already set.
	// Returns ErrConflict if the long URL or code already exists.
	Create(ctx context.Context, m *Mapping) error

	GetByID(ctx context.Context, id int64) (*Mapping, error)
	GetByLongURL(ctx context.Context, longURL string) (*Mapping, error)

	// UpdateExpiration sets the expiry and owner of a mapping.
	UpdateExpiration(ctx context.Context, id int64, expiresAt time.Time, ownerID string) error

	// IncrementClicks atomically adds one click and returns the new count.
	IncrementClicks(ctx context.Context, id int64) (int64, error)

	Delete(ctx context.Context, id int64) error

	// List returns every mapping.
	List(ctx context.Context) ([]*Mapping, error)
}
