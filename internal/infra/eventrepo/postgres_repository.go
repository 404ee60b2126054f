package eventrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/aduba/internal/domain/events"
)

// PostgresRepository persists events in the events table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) List(ctx context.Context, userID, date string) ([]events.Event, error) {
	query := `
		SELECT id::text, user_id::text, event_type, description, to_char(event_date, 'YYYY-MM-DD'), created_at
		FROM events
		WHERE user_id = $1`
	args := []any{userID}
	if date != "" {
		query += ` AND event_date = $2::date`
		args = append(args, date)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	var out []events.Event
	for rows.Next() {
		var (
			e       events.Event
			created time.Time
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.EventType, &e.Description, &e.EventDate, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.CreatedAt = created.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Insert(ctx context.Context, e events.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (id, user_id, event_type, description, event_date, created_at)
		VALUES ($1, $2, $3, $4, $5::date, $6)
	`, e.ID, e.UserID, e.EventType, e.Description, e.EventDate, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

var _ events.Repository = (*PostgresRepository)(nil)
