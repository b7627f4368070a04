// Package activity implements the activity log: immutable exercise records per user.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
)

// Intensity grades how hard an exercise session was.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

const (
	// DefaultListLimit matches the page size the activity log has always returned.
	DefaultListLimit = 20
	// MaxListLimit caps a single page.
	MaxListLimit = 100
)

// Record is one logged exercise session. Records are never updated.
type Record struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	ExerciseType   string    `json:"exerciseType"`
	Duration       int       `json:"duration"`
	Intensity      Intensity `json:"intensity"`
	Timestamp      time.Time `json:"timestamp"`
	CaloriesBurned *float64  `json:"caloriesBurned,omitempty"`
	Location       string    `json:"location,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

// Repository captures persistence operations.
type Repository interface {
	Create(ctx context.Context, record Record) error
	// ListByUser returns records newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]Record, error)
}

// CreateInput is the validated payload for a new record.
type CreateInput struct {
	UserID         string
	ExerciseType   string
	Duration       int
	Intensity      Intensity
	CaloriesBurned *float64
	Location       string
	Notes          string
}

// Service orchestrates activity workflows.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateActivity assigns an id and timestamp and persists the record.
func (s *Service) CreateActivity(ctx context.Context, input CreateInput) (*Record, error) {
	record := Record{
		ID:             uuid.NewString(),
		UserID:         input.UserID,
		ExerciseType:   input.ExerciseType,
		Duration:       input.Duration,
		Intensity:      input.Intensity,
		Timestamp:      s.now().UTC(),
		CaloriesBurned: input.CaloriesBurned,
		Location:       input.Location,
		Notes:          input.Notes,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	recordPersisted(record.Timestamp)
	recordCreated(record.Intensity)
	return &record, nil
}

// ListActivities returns up to limit records for the user, newest first.
func (s *Service) ListActivities(ctx context.Context, userID string, limit int) ([]Record, error) {
	if userID == "" {
		return nil, apperr.Required("userId")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.ListByUser(ctx, userID, limit)
}
