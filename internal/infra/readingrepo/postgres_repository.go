package readingrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/aduba/internal/domain/reading"
)

const selectColumns = `id::text, device_id, humidity, temperature, soil_humidity, ph_level,
		composter_rotation, reservoir_rotation, capacity_status, recorded_at`

// PostgresRepository persists readings in the sensor_readings table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FindLatest returns the newest reading of the user.
func (r *PostgresRepository) FindLatest(ctx context.Context, userID string) (reading.Reading, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM sensor_readings
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`, userID)
	if err != nil {
		return reading.Reading{}, false, fmt.Errorf("query latest reading: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return reading.Reading{}, false, rows.Err()
	}
	rd, err := scanReading(rows)
	if err != nil {
		return reading.Reading{}, false, err
	}
	return rd, true, rows.Err()
}

// Insert writes one reading row.
func (r *PostgresRepository) Insert(ctx context.Context, userID string, rd reading.Reading) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sensor_readings (id, user_id, device_id, humidity, temperature, soil_humidity,
			ph_level, composter_rotation, reservoir_rotation, capacity_status, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rd.ID, userID, rd.DeviceID, rd.Humidity, rd.Temperature, rd.SoilHumidity,
		rd.PHLevel, rd.ComposterRotation, rd.ReservoirRotation, string(rd.CapacityStatus), rd.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// ListSince returns readings at or after since, oldest first. A positive limit
// keeps the newest rows.
func (r *PostgresRepository) ListSince(ctx context.Context, userID string, since time.Time, limit int) ([]reading.Reading, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM sensor_readings
		WHERE user_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC`
	args := []any{userID, since}
	if limit > 0 {
		query = `
			SELECT * FROM (
				SELECT ` + selectColumns + `
				FROM sensor_readings
				WHERE user_id = $1 AND recorded_at >= $2
				ORDER BY recorded_at DESC
				LIMIT $3
			) recent
			ORDER BY recorded_at ASC`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()
	var out []reading.Reading
	for rows.Next() {
		rd, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

func scanReading(rows pgx.Rows) (reading.Reading, error) {
	var (
		rd       reading.Reading
		capacity string
		recorded time.Time
	)
	err := rows.Scan(&rd.ID, &rd.DeviceID, &rd.Humidity, &rd.Temperature, &rd.SoilHumidity,
		&rd.PHLevel, &rd.ComposterRotation, &rd.ReservoirRotation, &capacity, &recorded)
	if err != nil {
		return reading.Reading{}, fmt.Errorf("scan reading: %w", err)
	}
	rd.CapacityStatus = reading.CapacityStatus(capacity)
	rd.RecordedAt = recorded.UTC()
	return rd, nil
}

var _ reading.Repository = (*PostgresRepository)(nil)
