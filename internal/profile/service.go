package profile

import (
	"context"
	"time"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
)

// Service orchestrates profile workflows.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// GetProfile returns the stored profile or an error wrapping apperr.ErrNotFound.
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, apperr.Required("userId")
	}
	return s.repo.Get(ctx, userID)
}

// UpsertProfile creates the profile or merges the supplied fields into the stored one.
func (s *Service) UpsertProfile(ctx context.Context, input UpsertInput) (*Profile, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Upsert(ctx, input.UserID, s.now().UTC(), func(p *Profile) {
		*p = merge(*p, input)
	})
}

func merge(p Profile, in UpsertInput) Profile {
	if in.FitnessGoal != nil {
		p.FitnessGoal = Goal(*in.FitnessGoal)
	}
	if in.HealthConditions != nil {
		p.HealthConditions = dedupe(in.HealthConditions)
	}
	if in.Height != nil {
		p.Height = in.Height
	}
	if in.Weight != nil {
		p.Weight = in.Weight
	}
	if in.Age != nil {
		p.Age = in.Age
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.ActivityLevel != nil {
		p.ActivityLevel = *in.ActivityLevel
	}
	if prefs := in.Preferences; prefs != nil {
		if prefs.PreferredActivities != nil {
			p.Preferences.PreferredActivities = append([]string(nil), prefs.PreferredActivities...)
		}
		if prefs.PreferredIntensity != nil {
			p.Preferences.PreferredIntensity = *prefs.PreferredIntensity
		}
		if prefs.PreferredTime != nil {
			p.Preferences.PreferredTime = *prefs.PreferredTime
		}
		if prefs.OutdoorPreference != nil {
			p.Preferences.OutdoorPreference = *prefs.OutdoorPreference
		}
	}
	return p
}

// health conditions are a set
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
