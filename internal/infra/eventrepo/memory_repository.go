package eventrepo

import (
	"context"
	"sync"

	"github.com/yanqian/aduba/internal/domain/events"
)

// MemoryRepository keeps events in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string][]events.Event
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string][]events.Event)}
}

// List walks the user's events backwards so the newest insert comes first.
func (r *MemoryRepository) List(_ context.Context, userID, date string) ([]events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.rows[userID]
	out := make([]events.Event, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		if date == "" || rows[i].EventDate == date {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

func (r *MemoryRepository) Insert(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[e.UserID] = append(r.rows[e.UserID], e)
	return nil
}

var _ events.Repository = (*MemoryRepository)(nil)
