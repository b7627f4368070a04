package coordination

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/garrikyx/FItflow/internal/activity"
	"github.com/garrikyx/FItflow/internal/platform/apperr"
	"github.com/garrikyx/FItflow/internal/profile"
)

// ProfileSource fetches a user's profile.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
}

// Request is a bare activity report: what, who and for how long.
type Request struct {
	UserID       string `json:"userId" validate:"required"`
	ActivityType string `json:"activityType" validate:"required"`
	Duration     int    `json:"duration" validate:"required,gt=0"`
}

// Validate checks the required fields.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.UserID) == "":
		return apperr.Required("userId")
	case strings.TrimSpace(r.ActivityType) == "":
		return apperr.Required("activityType")
	case r.Duration <= 0:
		return apperr.Invalid("duration", "must be > 0")
	}
	return nil
}

// Coordinator enriches and logs activity reports. The leaderboard is fed by the
// activity.created event the activity service emits for the stored record.
type Coordinator struct {
	profiles   ProfileSource
	activities *activity.Service
	logger     *zap.Logger
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(profiles ProfileSource, activities *activity.Service, logger *zap.Logger) *Coordinator {
	return &Coordinator{profiles: profiles, activities: activities, logger: logger}
}

// LogActivity looks up the user's weight, estimates calories and intensity and
// records the activity. A missing profile is returned as apperr.ErrNotFound.
func (c *Coordinator) LogActivity(ctx context.Context, req Request) (*activity.Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := c.profiles.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	weight := DefaultWeightKg
	if p.Weight != nil && *p.Weight > 0 {
		weight = *p.Weight
	}

	calories := EstimateCalories(weight, req.ActivityType, req.Duration)
	intensity := InferIntensity(req.ActivityType, req.Duration)
	c.logger.Debug("activity estimated",
		zap.String("user_id", req.UserID),
		zap.String("activity_type", req.ActivityType),
		zap.Float64("calories", calories),
		zap.String("intensity", string(intensity)),
	)

	return c.activities.CreateActivity(ctx, activity.CreateInput{
		UserID:         req.UserID,
		ExerciseType:   req.ActivityType,
		Duration:       req.Duration,
		Intensity:      intensity,
		CaloriesBurned: &calories,
	})
}
