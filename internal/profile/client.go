package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
	"github.com/garrikyx/FItflow/internal/platform/auth"
)

// Client reads profiles from the profile service over HTTP.
type Client struct {
	client *resty.Client
}

// NewClient builds a Client for the profile service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{client: resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)}
}

// Get fetches userID's profile, forwarding the caller's bearer token.
// A missing profile yields an error wrapping apperr.ErrNotFound.
func (c *Client) Get(ctx context.Context, userID string) (Profile, error) {
	req := c.client.R().SetContext(ctx).SetPathParam("userId", userID)
	if token := auth.TokenFromContext(ctx); token != "" {
		req.SetAuthToken(token)
	}

	resp, err := req.Get("/users/{userId}")
	if err != nil {
		return Profile{}, apperr.Upstream("profile", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return Profile{}, fmt.Errorf("profile %s: %w", userID, apperr.ErrNotFound)
	}
	if resp.IsError() {
		return Profile{}, apperr.Upstream("profile", fmt.Errorf("status %d", resp.StatusCode()))
	}

	var p Profile
	if err := json.Unmarshal(resp.Body(), &p); err != nil {
		return Profile{}, apperr.Upstream("profile", fmt.Errorf("decode response: %w", err))
	}
	return p, nil
}
