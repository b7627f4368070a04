//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/garrikyx/FItflow/internal/activity"
	"github.com/garrikyx/FItflow/internal/platform/events"
	"github.com/garrikyx/FItflow/internal/platform/testsupport"
)

func TestRepositoryWritesActivityAndOutboxTogether(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pool := testsupport.StartPostgres(ctx, t)
	repo := NewRepository(pool)

	calories := 310.0
	userID := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)
	older := activity.Record{ID: uuid.NewString(), UserID: userID, ExerciseType: "rowing", Duration: 20, Intensity: activity.IntensityLow, Timestamp: base.Add(-time.Hour)}
	newer := activity.Record{ID: uuid.NewString(), UserID: userID, ExerciseType: "running", Duration: 40, Intensity: activity.IntensityHigh, Timestamp: base, CaloriesBurned: &calories, Notes: "tempo"}

	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	records, err := repo.ListByUser(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, newer.ID, records[0].ID)
	require.Equal(t, "tempo", records[0].Notes)
	require.NotNil(t, records[0].CaloriesBurned)
	require.InDelta(t, calories, *records[0].CaloriesBurned, 0.001)
	require.Equal(t, older.ID, records[1].ID)
	require.Nil(t, records[1].CaloriesBurned)

	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE event_type=$1 AND partition_key=$2 AND published_at IS NULL`,
		events.TypeActivityCreated, userID,
	).Scan(&count))
	require.Equal(t, 2, count)

	limited, err := repo.ListByUser(ctx, userID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestRepositoryRollsBackOnDuplicateID(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pool := testsupport.StartPostgres(ctx, t)
	repo := NewRepository(pool)

	record := activity.Record{ID: uuid.NewString(), UserID: "dup-user", ExerciseType: "yoga", Duration: 15, Intensity: activity.IntensityLow, Timestamp: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, record))
	require.Error(t, repo.Create(ctx, record))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE aggregate_id=$1`, record.ID).Scan(&count))
	require.Equal(t, 1, count)
}
