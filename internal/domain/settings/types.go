package settings

import (
	"context"
	"time"
)

// DeviceSettings holds the per-user preferences of a composter.
type DeviceSettings struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	DeviceID             string    `json:"device_id"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// UpdateRequest is the body accepted by the settings endpoint.
type UpdateRequest struct {
	NotificationsEnabled *bool `json:"notifications_enabled"`
}

// Repository persists device settings, one row per user.
type Repository interface {
	Get(ctx context.Context, userID string) (DeviceSettings, bool, error)
	Insert(ctx context.Context, s DeviceSettings) error
	UpdateNotifications(ctx context.Context, userID string, enabled bool, at time.Time) error
}
