package readingrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/aduba/internal/domain/reading"
)

// MemoryRepository keeps readings per user in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string][]reading.Reading
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string][]reading.Reading)}
}

// FindLatest returns the reading with the greatest RecordedAt.
func (r *MemoryRepository) FindLatest(_ context.Context, userID string) (reading.Reading, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.rows[userID]
	if len(rows) == 0 {
		return reading.Reading{}, false, nil
	}
	return rows[len(rows)-1], true, nil
}

// Insert keeps rows ordered by RecordedAt so reads stay cheap.
func (r *MemoryRepository) Insert(_ context.Context, userID string, rd reading.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.rows[userID]
	i := sort.Search(len(rows), func(i int) bool { return rows[i].RecordedAt.After(rd.RecordedAt) })
	rows = append(rows, reading.Reading{})
	copy(rows[i+1:], rows[i:])
	rows[i] = rd
	r.rows[userID] = rows
	return nil
}

// ListSince returns readings at or after since in ascending order, keeping the
// newest limit rows.
func (r *MemoryRepository) ListSince(_ context.Context, userID string, since time.Time, limit int) ([]reading.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.rows[userID]
	start := sort.Search(len(rows), func(i int) bool { return !rows[i].RecordedAt.Before(since) })
	out := append([]reading.Reading(nil), rows[start:]...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

var _ reading.Repository = (*MemoryRepository)(nil)
