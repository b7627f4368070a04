package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/garrikyx/FItflow/internal/activity"
	"github.com/garrikyx/FItflow/internal/platform/apperr"
	"github.com/garrikyx/FItflow/internal/platform/auth"
)

func newRestClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
}

// request starts a call carrying ctx and the caller's bearer token, if any.
func request(ctx context.Context, client *resty.Client) *resty.Request {
	req := client.R().SetContext(ctx)
	if token := auth.TokenFromContext(ctx); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// WeatherClient reads the external weather API.
type WeatherClient struct {
	client *resty.Client
	url    string
	apiKey string
}

// NewWeatherClient builds a client for the forecast endpoint at url.
func NewWeatherClient(url, apiKey string, timeout time.Duration) *WeatherClient {
	return &WeatherClient{client: newRestClient("", timeout), url: url, apiKey: apiKey}
}

type weatherResponse struct {
	Temp     *float64 `json:"temp"`
	UV       *float64 `json:"uv"`
	Humidity *float64 `json:"humidity"`
	Forecast string   `json:"forecast"`
}

// Current implements WeatherSource.
func (c *WeatherClient) Current(ctx context.Context, location string) (WeatherSnapshot, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("location", location).
		SetQueryParam("apiKey", c.apiKey).
		Get(c.url)
	if err != nil {
		return WeatherSnapshot{}, apperr.Upstream("weather", err)
	}
	if resp.IsError() {
		return WeatherSnapshot{}, apperr.Upstream("weather", fmt.Errorf("status %d", resp.StatusCode()))
	}

	var body weatherResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return WeatherSnapshot{}, apperr.Upstream("weather", fmt.Errorf("decode response: %w", err))
	}
	if body.Temp == nil || body.UV == nil {
		return WeatherSnapshot{}, apperr.Upstream("weather", fmt.Errorf("response missing temp or uv"))
	}

	snapshot := WeatherSnapshot{Temperature: *body.Temp, UVIndex: *body.UV, Forecast: body.Forecast}
	if body.Humidity != nil {
		snapshot.Humidity = *body.Humidity
	}
	return snapshot, nil
}

// ActivityClient reads a user's history from the activity service.
type ActivityClient struct {
	client *resty.Client
}

// NewActivityClient builds a client for the activity service at baseURL.
func NewActivityClient(baseURL string, timeout time.Duration) *ActivityClient {
	return &ActivityClient{client: newRestClient(baseURL, timeout)}
}

// Recent implements ActivitySource. Records come back newest first.
func (c *ActivityClient) Recent(ctx context.Context, userID string) ([]activity.Record, error) {
	resp, err := request(ctx, c.client).
		SetPathParam("userId", userID).
		SetQueryParam("limit", strconv.Itoa(RecentWindow)).
		Get("/activities/{userId}")
	if err != nil {
		return nil, apperr.Upstream("activity", err)
	}
	if resp.IsError() {
		return nil, apperr.Upstream("activity", fmt.Errorf("status %d", resp.StatusCode()))
	}

	var records []activity.Record
	if err := json.Unmarshal(resp.Body(), &records); err != nil {
		return nil, apperr.Upstream("activity", fmt.Errorf("decode response: %w", err))
	}
	return records, nil
}

// NotificationClient posts to the notification service.
type NotificationClient struct {
	client *resty.Client
}

// NewNotificationClient builds a client for the notification service at baseURL.
func NewNotificationClient(baseURL string, timeout time.Duration) *NotificationClient {
	return &NotificationClient{client: newRestClient(baseURL, timeout)}
}

// Send implements Notifier.
func (c *NotificationClient) Send(ctx context.Context, msg Message) error {
	resp, err := request(ctx, c.client).
		SetHeader("Content-Type", "application/json").
		SetBody(&msg).
		Post("/notify")
	if err != nil {
		return apperr.Upstream("notification", err)
	}
	if resp.IsError() {
		return apperr.Upstream("notification", fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}
	return nil
}
