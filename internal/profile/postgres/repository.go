// Package postgres provides the Postgres-backed profile repository.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
	"github.com/garrikyx/FItflow/internal/profile"
)

const selectColumns = `SELECT user_id, COALESCE(fitness_goal, ''), health_conditions, preferences, height_cm, weight_kg, age,
            COALESCE(gender, ''), COALESCE(activity_level, ''), created_at, updated_at
        FROM profiles WHERE user_id=$1`

// Repository stores profiles in the profiles table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get implements profile.Repository.
func (r *Repository) Get(ctx context.Context, userID string) (*profile.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, selectColumns, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", userID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Upsert implements profile.Repository. The row is created if missing and then
// locked with FOR UPDATE, so concurrent upserts of one user apply in turn.
func (r *Repository) Upsert(ctx context.Context, userID string, at time.Time, apply func(*profile.Profile)) (*profile.Profile, error) {
	var result *profile.Profile
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		seed := profile.New(userID, at)
		prefs, err := json.Marshal(seed.Preferences)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO profiles (user_id, health_conditions, preferences, created_at, updated_at)
             VALUES ($1, '[]'::jsonb, $2, $3, $3)
             ON CONFLICT (user_id) DO NOTHING`,
			userID, prefs, at,
		); err != nil {
			return err
		}

		current, err := scanProfile(tx.QueryRow(ctx, selectColumns+` FOR UPDATE`, userID))
		if err != nil {
			return err
		}
		apply(current)
		current.UserID = userID
		current.UpdatedAt = at

		if err := update(ctx, tx, current); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func update(ctx context.Context, tx pgx.Tx, p *profile.Profile) error {
	conditions, err := json.Marshal(p.HealthConditions)
	if err != nil {
		return err
	}
	prefs, err := json.Marshal(p.Preferences)
	if err != nil {
		return err
	}

	const stmt = `UPDATE profiles SET
            fitness_goal = $2,
            health_conditions = $3,
            preferences = $4,
            height_cm = $5,
            weight_kg = $6,
            age = $7,
            gender = $8,
            activity_level = $9,
            updated_at = $10
        WHERE user_id = $1`

	_, err = tx.Exec(ctx, stmt,
		p.UserID,
		nullIfEmpty(string(p.FitnessGoal)),
		conditions,
		prefs,
		p.Height,
		p.Weight,
		p.Age,
		nullIfEmpty(p.Gender),
		nullIfEmpty(p.ActivityLevel),
		p.UpdatedAt,
	)
	return err
}

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	var (
		p          profile.Profile
		goal       string
		conditions []byte
		prefs      []byte
	)
	if err := row.Scan(
		&p.UserID, &goal, &conditions, &prefs, &p.Height, &p.Weight, &p.Age,
		&p.Gender, &p.ActivityLevel, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.FitnessGoal = profile.Goal(goal)
	if err := json.Unmarshal(conditions, &p.HealthConditions); err != nil {
		return nil, fmt.Errorf("decode health_conditions: %w", err)
	}
	if err := json.Unmarshal(prefs, &p.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
