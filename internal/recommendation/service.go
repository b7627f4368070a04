package recommendation

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garrikyx/FItflow/internal/activity"
	"github.com/garrikyx/FItflow/internal/platform/apperr"
	"github.com/garrikyx/FItflow/internal/profile"
)

// WeatherSource fetches current conditions for a location.
type WeatherSource interface {
	Current(ctx context.Context, location string) (WeatherSnapshot, error)
}

// ActivitySource fetches a user's activities, newest first.
type ActivitySource interface {
	Recent(ctx context.Context, userID string) ([]activity.Record, error)
}

// ProfileSource fetches a user's profile.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
}

// Request asks for a recommendation.
type Request struct {
	UserID   string `json:"userId" validate:"required"`
	Location string `json:"location" validate:"required"`
	Time     string `json:"time" validate:"required"`
}

// Validate checks the required fields.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.UserID) == "":
		return apperr.Required("userId")
	case strings.TrimSpace(r.Location) == "":
		return apperr.Required("location")
	case strings.TrimSpace(r.Time) == "":
		return apperr.Required("time")
	}
	return nil
}

// Service gathers the engine inputs and runs the engine.
type Service struct {
	weather    WeatherSource
	activities ActivitySource
	profiles   ProfileSource
	timeout    time.Duration
}

// NewService constructs a Service. Each upstream call is bounded by timeout.
func NewService(weather WeatherSource, activities ActivitySource, profiles ProfileSource, timeout time.Duration) *Service {
	return &Service{weather: weather, activities: activities, profiles: profiles, timeout: timeout}
}

// Recommend validates req, fetches the three inputs concurrently and computes a recommendation.
// Any upstream failure, including a missing profile, aborts the whole request.
func (s *Service) Recommend(ctx context.Context, req Request) (*Recommendation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		weather WeatherSnapshot
		recent  []activity.Record
		prof    profile.Profile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.call(gctx, "weather", func(ctx context.Context) (err error) {
			weather, err = s.weather.Current(ctx, req.Location)
			return err
		})
	})
	g.Go(func() error {
		return s.call(gctx, "activity", func(ctx context.Context) (err error) {
			recent, err = s.activities.Recent(ctx, req.UserID)
			return err
		})
	})
	g.Go(func() error {
		return s.call(gctx, "profile", func(ctx context.Context) (err error) {
			prof, err = s.profiles.Get(ctx, req.UserID)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		recordRecommendation(false)
		return nil, err
	}

	rec := Compute(prof, weather, recent, req.Time)
	recordRecommendation(true)
	return &rec, nil
}

// call runs fn under its own timeout and normalises failures to apperr.ErrUpstreamUnavailable.
// A call cut short because a sibling already failed is not counted as a failure.
func (s *Service) call(group context.Context, upstream string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(group, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	observed := err
	if err != nil && group.Err() != nil && errors.Is(err, context.Canceled) {
		observed = nil
	}
	observeUpstream(upstream, time.Since(start), observed)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrNotFound):
		// not a 404 for the aggregate request
		return apperr.Upstream(upstream, errors.New(err.Error()))
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		return err
	default:
		return apperr.Upstream(upstream, err)
	}
}
