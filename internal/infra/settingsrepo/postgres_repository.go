package settingsrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/aduba/internal/domain/settings"
)

// PostgresRepository persists settings in the device_settings table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (settings.DeviceSettings, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, user_id::text, device_id, notifications_enabled, updated_at
		FROM device_settings
		WHERE user_id = $1
		LIMIT 1
	`, userID)
	if err != nil {
		return settings.DeviceSettings{}, false, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return settings.DeviceSettings{}, false, rows.Err()
	}
	var s settings.DeviceSettings
	if err := rows.Scan(&s.ID, &s.UserID, &s.DeviceID, &s.NotificationsEnabled, &s.UpdatedAt); err != nil {
		return settings.DeviceSettings{}, false, fmt.Errorf("scan settings: %w", err)
	}
	return s, true, rows.Err()
}

func (r *PostgresRepository) Insert(ctx context.Context, s settings.DeviceSettings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO device_settings (id, user_id, device_id, notifications_enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.UserID, s.DeviceID, s.NotificationsEnabled, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateNotifications(ctx context.Context, userID string, enabled bool, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE device_settings SET notifications_enabled = $2, updated_at = $3
		WHERE user_id = $1
	`, userID, enabled, at)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

var _ settings.Repository = (*PostgresRepository)(nil)
