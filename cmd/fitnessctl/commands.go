package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/garrikyx/FItflow/internal/activity/outbox"
	"github.com/garrikyx/FItflow/internal/platform/auth"
)

var defaultScopes = []string{
	auth.ScopeActivitiesRead,
	auth.ScopeActivitiesWrite,
	auth.ScopeProfilesRead,
	auth.ScopeProfilesWrite,
	auth.ScopeNotificationsWrite,
	auth.ScopeRecommendationsRead,
	auth.ScopeLeaderboardsRead,
}

type activityInput struct {
	UserID         string  `json:"userId"`
	Type           string  `json:"type"`
	Duration       int     `json:"duration"`
	Intensity      string  `json:"intensity"`
	CaloriesBurned float64 `json:"caloriesBurned,omitempty"`
}

type recommendInput struct {
	UserID   string `json:"userId"`
	Location string `json:"location"`
	Time     string `json:"time"`
}

func runToken(cfg auth.Config, subject string, scopes []string, ttl time.Duration, out io.Writer) error {
	token, err := auth.Sign(cfg, subject, scopes, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

func runReplay(ctx context.Context, databaseURL string, batch, maxRetries int, out io.Writer) error {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	store := outbox.NewPostgresDLQStore(pool)
	replayed, err := outbox.NewReplayer(store, maxRetries, time.Minute, zap.NewNop()).RunOnce(ctx, batch)
	if err != nil {
		return err
	}
	backlog, err := store.Backlog(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "requeued %d, remaining %d\n", replayed, backlog)
	return err
}

func runLogActivity(api, token string, in activityInput, out io.Writer) error {
	return post(api, "/activities", token, in, out)
}

func runRecommend(api, token, userID, location string, at time.Time, out io.Writer) error {
	return post(api, "/recommendations", token, recommendInput{
		UserID:   userID,
		Location: location,
		Time:     at.UTC().Format(time.RFC3339),
	}, out)
}

func post(api, path, token string, body interface{}, out io.Writer) error {
	client := resty.New().SetBaseURL(strings.TrimRight(api, "/")).SetTimeout(10 * time.Second)
	req := client.R().SetHeader("Content-Type", "application/json").SetBody(body)
	if token != "" {
		req.SetAuthToken(token)
	}
	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return printJSON(resp.Body(), out)
}

func printJSON(raw []byte, out io.Writer) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		_, werr := out.Write(raw)
		return werr
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
