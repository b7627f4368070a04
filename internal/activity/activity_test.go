package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
)

func TestCreateActivityAssignsIDAndTimestamp(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo)
	fixed := time.Date(2025, time.March, 3, 7, 30, 0, 0, time.FixedZone("CET", 3600))
	svc.now = func() time.Time { return fixed }

	record, err := svc.CreateActivity(context.Background(), CreateInput{
		UserID:       "user-1",
		ExerciseType: "running",
		Duration:     30,
		Intensity:    IntensityHigh,
	})
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)
	require.Equal(t, fixed.UTC(), record.Timestamp)
	require.Equal(t, time.UTC, record.Timestamp.Location())

	stored, err := repo.ListByUser(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, record.ID, stored[0].ID)
}

func TestCreateActivityPropagatesRepositoryError(t *testing.T) {
	svc := NewService(failingRepo{err: errors.New("db down")})

	_, err := svc.CreateActivity(context.Background(), CreateInput{UserID: "u", ExerciseType: "yoga", Duration: 10, Intensity: IntensityLow})
	require.EqualError(t, err, "db down")
}

func TestListActivitiesNewestFirstAndLimited(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo)
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return ts }
		_, err := svc.CreateActivity(context.Background(), CreateInput{UserID: "user-1", ExerciseType: "swim", Duration: 20, Intensity: IntensityModerate})
		require.NoError(t, err)
	}

	records, err := svc.ListActivities(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Len(t, records, DefaultListLimit)
	require.Equal(t, base.Add(24*time.Hour), records[0].Timestamp)
	for i := 1; i < len(records); i++ {
		require.True(t, records[i-1].Timestamp.After(records[i].Timestamp))
	}

	records, err = svc.ListActivities(context.Background(), "user-1", 5)
	require.NoError(t, err)
	require.Len(t, records, 5)

	records, err = svc.ListActivities(context.Background(), "user-1", 1000)
	require.NoError(t, err)
	require.Len(t, records, 25)
}

func TestListActivitiesUnknownUserIsEmpty(t *testing.T) {
	records, err := NewService(NewInMemoryRepository()).ListActivities(context.Background(), "ghost", 5)
	require.NoError(t, err)
	require.Empty(t, records)
	require.NotNil(t, records)
}

func TestListActivitiesRequiresUser(t *testing.T) {
	_, err := NewService(NewInMemoryRepository()).ListActivities(context.Background(), "", 5)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestInMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	require.NoError(t, repo.Create(context.Background(), Record{ID: "a", UserID: "u", Timestamp: time.Now()}))

	first, err := repo.ListByUser(context.Background(), "u", 0)
	require.NoError(t, err)
	first[0].ExerciseType = "mutated"

	second, err := repo.ListByUser(context.Background(), "u", 0)
	require.NoError(t, err)
	require.Empty(t, second[0].ExerciseType)
}

type failingRepo struct{ err error }

func (f failingRepo) Create(context.Context, Record) error { return f.err }

func (f failingRepo) ListByUser(context.Context, string, int) ([]Record, error) {
	return nil, f.err
}
