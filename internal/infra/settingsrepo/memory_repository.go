package settingsrepo

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/aduba/internal/domain/settings"
)

// MemoryRepository keeps device settings in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]settings.DeviceSettings
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]settings.DeviceSettings)}
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (settings.DeviceSettings, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.rows[userID]
	return s, ok, nil
}

func (r *MemoryRepository) Insert(_ context.Context, s settings.DeviceSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.UserID] = s
	return nil
}

func (r *MemoryRepository) UpdateNotifications(_ context.Context, userID string, enabled bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[userID]
	if !ok {
		return nil
	}
	s.NotificationsEnabled = enabled
	s.UpdatedAt = at
	r.rows[userID] = s
	return nil
}

var _ settings.Repository = (*MemoryRepository)(nil)
