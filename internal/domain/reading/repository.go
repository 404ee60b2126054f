package reading

import (
	"context"
	"time"
)

// Repository is the Reading Store.
type Repository interface {
	// FindLatest returns the most recent reading of userID by recorded_at.
	FindLatest(ctx context.Context, userID string) (Reading, bool, error)
	Insert(ctx context.Context, userID string, r Reading) error
	// ListSince returns readings recorded at or after since, oldest first.
	// A positive limit keeps the newest limit rows.
	ListSince(ctx context.Context, userID string, since time.Time, limit int) ([]Reading, error)
}

// Publisher announces persisted readings to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, userID string, r Reading) error
	Name() string
	Close() error
}
