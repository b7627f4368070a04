// Package profile stores user fitness profiles keyed by userId.
package profile

import (
	"context"
	"strings"
	"time"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
)

// Goal is the user's declared fitness goal.
type Goal string

const (
	GoalWeightLoss     Goal = "weight loss"
	GoalMuscleGain     Goal = "muscle gain"
	GoalEndurance      Goal = "endurance"
	GoalCardio         Goal = "cardio"
	GoalStrength       Goal = "strength"
	GoalGeneralFitness Goal = "general fitness"
)

var goals = []Goal{GoalWeightLoss, GoalMuscleGain, GoalEndurance, GoalCardio, GoalStrength, GoalGeneralFitness}

var intensities = []string{"low", "moderate", "high"}

var activityLevels = []string{"sedentary", "lightly active", "moderately active", "very active"}

// Preferences captures how the user likes to train.
type Preferences struct {
	PreferredActivities []string `json:"preferredActivities"`
	PreferredIntensity  string   `json:"preferredIntensity,omitempty"`
	PreferredTime       string   `json:"preferredTime,omitempty"`
	OutdoorPreference   bool     `json:"outdoorPreference"`
}

// Profile is a user's stored fitness profile.
type Profile struct {
	UserID           string      `json:"userId"`
	FitnessGoal      Goal        `json:"fitnessGoal,omitempty"`
	HealthConditions []string    `json:"healthConditions"`
	Preferences      Preferences `json:"preferences"`
	Height           *float64    `json:"height,omitempty"`
	Weight           *float64    `json:"weight,omitempty"`
	Age              *int        `json:"age,omitempty"`
	Gender           string      `json:"gender,omitempty"`
	ActivityLevel    string      `json:"activityLevel,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Repository captures persistence operations.
type Repository interface {
	// Get returns apperr.ErrNotFound when the user has no profile.
	Get(ctx context.Context, userID string) (*Profile, error)
	// Upsert loads the profile (or New(userID, at) when absent), applies apply
	// and stores the result with UpdatedAt set to at. Concurrent upserts of the
	// same user are serialised so neither loses the other's fields.
	Upsert(ctx context.Context, userID string, at time.Time, apply func(*Profile)) (*Profile, error)
}

// New returns the profile stored on a user's first upsert.
func New(userID string, at time.Time) Profile {
	return Profile{
		UserID:           userID,
		HealthConditions: []string{},
		Preferences:      Preferences{PreferredActivities: []string{}, OutdoorPreference: true},
		CreatedAt:        at,
		UpdatedAt:        at,
	}
}

// PreferencesInput carries optional preference updates.
type PreferencesInput struct {
	PreferredActivities []string
	PreferredIntensity  *string
	PreferredTime       *string
	OutdoorPreference   *bool
}

// UpsertInput carries the fields of an upsert. Nil fields keep their stored value.
type UpsertInput struct {
	UserID           string
	FitnessGoal      *string
	HealthConditions []string
	Preferences      *PreferencesInput
	Height           *float64
	Weight           *float64
	Age              *int
	Gender           *string
	ActivityLevel    *string
}

// Validate checks required fields and enum values.
func (in UpsertInput) Validate() error {
	if strings.TrimSpace(in.UserID) == "" {
		return apperr.Required("userId")
	}
	if in.FitnessGoal != nil && !validGoal(Goal(*in.FitnessGoal)) {
		return apperr.Invalid("fitnessGoal", "must be one of: "+joinGoals())
	}
	if in.ActivityLevel != nil && !contains(activityLevels, *in.ActivityLevel) {
		return apperr.Invalid("activityLevel", "must be one of: "+strings.Join(activityLevels, ", "))
	}
	if in.Preferences != nil && in.Preferences.PreferredIntensity != nil && !contains(intensities, *in.Preferences.PreferredIntensity) {
		return apperr.Invalid("preferences.preferredIntensity", "must be one of: "+strings.Join(intensities, ", "))
	}
	return nil
}

func validGoal(g Goal) bool {
	for _, candidate := range goals {
		if g == candidate {
			return true
		}
	}
	return false
}

func joinGoals() string {
	names := make([]string, len(goals))
	for i, g := range goals {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if v == candidate {
			return true
		}
	}
	return false
}
