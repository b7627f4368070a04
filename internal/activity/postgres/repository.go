// Package postgres provides the Postgres-backed activity repository.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garrikyx/FItflow/internal/activity"
	"github.com/garrikyx/FItflow/internal/activity/outbox"
	"github.com/garrikyx/FItflow/internal/platform/events"
)

// Repository provides Postgres-backed persistence for activities and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists the record and its activity.created event inside a single transaction.
func (r *Repository) Create(ctx context.Context, record activity.Record) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertActivity = `INSERT INTO activities (activity_id, user_id, exercise_type, duration_min, intensity, calories_burned, location, notes, recorded_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, insertActivity,
		record.ID,
		record.UserID,
		record.ExerciseType,
		record.Duration,
		string(record.Intensity),
		record.CaloriesBurned,
		nullIfEmpty(record.Location),
		nullIfEmpty(record.Notes),
		record.Timestamp,
	)
	if err != nil {
		return err
	}

	err = outbox.Enqueue(ctx, tx, outbox.Event{
		AggregateType: "activity",
		AggregateID:   record.ID,
		EventType:     events.TypeActivityCreated,
		Topic:         events.TopicActivityEvents,
		PartitionKey:  record.UserID,
		Payload: events.ActivityCreated{
			ActivityID:     record.ID,
			UserID:         record.UserID,
			ExerciseType:   record.ExerciseType,
			DurationMin:    record.Duration,
			Intensity:      string(record.Intensity),
			CaloriesBurned: record.CaloriesBurned,
			Timestamp:      record.Timestamp,
		},
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListByUser returns a user's activities newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]activity.Record, error) {
	const query = `SELECT activity_id, user_id, exercise_type, duration_min, intensity, calories_burned,
            COALESCE(location, ''), COALESCE(notes, ''), recorded_at
        FROM activities WHERE user_id=$1
        ORDER BY recorded_at DESC, activity_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]activity.Record, 0, limit)
	for rows.Next() {
		var (
			rec       activity.Record
			intensity string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ExerciseType, &rec.Duration, &intensity, &rec.CaloriesBurned, &rec.Location, &rec.Notes, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Intensity = activity.Intensity(intensity)
		rec.Timestamp = rec.Timestamp.UTC()
		results = append(results, rec)
	}
	return results, rows.Err()
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
