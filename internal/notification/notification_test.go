package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/broker"
	"github.com/garrikyx/FItflow/internal/platform/events"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
)

func fixedSender(value float64, rate float64) *SimulatedSender {
	s := NewSimulatedSender(rate)
	s.random = func() float64 { return value }
	return s
}

func TestSimulatedSenderHonoursRate(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, fixedSender(0.94, 0.95).Send(ctx, Notification{}))
	require.ErrorIs(t, fixedSender(0.95, 0.95).Send(ctx, Notification{}), ErrDeliveryFailed)
	require.ErrorIs(t, fixedSender(0.0, 0).Send(ctx, Notification{}), ErrDeliveryFailed)
	require.NoError(t, fixedSender(0.999, 1).Send(ctx, Notification{}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, fixedSender(0, 1).Send(cancelled, Notification{}), context.Canceled)
}

func TestNotifyPublishesSentEvent(t *testing.T) {
	pub := &stubPublisher{}
	svc := NewService(fixedSender(0.1, 0.95), pub, events.TopicNotifications, zaptest.NewLogger(t))
	before := testutil.ToFloat64(sendCounter.WithLabelValues("success"))

	receipt, err := svc.Notify(context.Background(), Notification{UserID: "user-1", Title: "Hi", Body: "Go run", Data: map[string]any{"k": "v"}})
	require.NoError(t, err)
	require.NotEmpty(t, receipt.NotificationID)

	require.Len(t, pub.published, 1)
	got := pub.published[0]
	require.Equal(t, events.TopicNotifications, got.topic)
	require.Equal(t, "user-1", got.key)
	require.Equal(t, events.TypeNotificationSent, got.eventType)
	sent := got.payload.(events.NotificationSent)
	require.Equal(t, receipt.NotificationID, sent.NotificationID)
	require.Equal(t, "v", sent.Data["k"])

	require.InDelta(t, before+1, testutil.ToFloat64(sendCounter.WithLabelValues("success")), 0.0001)
}

func TestNotifySurvivesPublishFailure(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	svc := NewService(fixedSender(0.1, 0.95), pub, events.TopicNotifications, zaptest.NewLogger(t))

	_, err := svc.Notify(context.Background(), Notification{UserID: "user-1", Title: "Hi", Body: "Go run"})
	require.NoError(t, err)
}

func TestNotifyDeliveryFailureSkipsEvent(t *testing.T) {
	pub := &stubPublisher{}
	svc := NewService(fixedSender(0.99, 0.95), pub, events.TopicNotifications, zaptest.NewLogger(t))

	_, err := svc.Notify(context.Background(), Notification{UserID: "user-1", Title: "Hi", Body: "Go run"})
	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.Empty(t, pub.published)
}

func TestNotifyValidation(t *testing.T) {
	svc := NewService(fixedSender(0, 1), &stubPublisher{}, events.TopicNotifications, zaptest.NewLogger(t))
	for _, n := range []Notification{
		{Title: "t", Body: "b"},
		{UserID: "u", Body: "b"},
		{UserID: "u", Title: "t", Body: "   "},
	} {
		_, err := svc.Notify(context.Background(), n)
		require.ErrorIs(t, err, apperr.ErrValidation)
	}
}

func TestMonthlySummaryPublishesBroadcast(t *testing.T) {
	pub := &stubPublisher{}
	svc := NewService(fixedSender(0, 1), pub, events.TopicNotifications, zaptest.NewLogger(t))
	svc.now = func() time.Time { return time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC) }

	svc.SendMonthlySummary(context.Background())

	require.Len(t, pub.published, 1)
	require.Equal(t, events.TypeMonthlySummary, pub.published[0].eventType)
	summary := pub.published[0].payload.(events.MonthlySummary)
	require.Equal(t, "Your monthly health summary is ready!", summary.Content)
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	svc := NewService(fixedSender(0, 1), &stubPublisher{}, events.TopicNotifications, zaptest.NewLogger(t))

	_, err := NewScheduler("not a schedule", svc, zaptest.NewLogger(t))
	require.Error(t, err)

	c, err := NewScheduler("0 0 28 * *", svc, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	next := c.Entries()[0].Schedule.Next(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.Local))
	require.Equal(t, 28, next.Day())
}

func TestNotifyCaloriesPublishes(t *testing.T) {
	pub := &stubPublisher{}
	svc := NewService(fixedSender(0, 1), pub, events.TopicNotifications, zaptest.NewLogger(t))

	err := svc.NotifyCalories(context.Background(), events.CalorieUpdate{FriendsEmails: []string{"a@example.com"}, Message: "burned 500"})
	require.NoError(t, err)
	require.Equal(t, events.TypeCalorieUpdate, pub.published[0].eventType)

	pub.err = errors.New("down")
	err = svc.NotifyCalories(context.Background(), events.CalorieUpdate{FriendsEmails: []string{"a@example.com"}, Message: "burned 500"})
	require.ErrorIs(t, err, apperr.ErrUpstreamUnavailable)
}

func newTestMux(t *testing.T, sender Sender) *http.ServeMux {
	mux := http.NewServeMux()
	svc := NewService(sender, &stubPublisher{}, events.TopicNotifications, zaptest.NewLogger(t))
	NewHandler(svc).RegisterRoutes(mux, auth.NewMiddleware(auth.Config{Disabled: true}))
	return mux
}

func TestNotifyRoute(t *testing.T) {
	body := `{"userId":"user-1","title":"Your Fitness Recommendation","body":"Today's recommendation: running at moderate to high intensity","data":{"hydrationTip":"Stay hydrated"}}`

	rr := httptest.NewRecorder()
	newTestMux(t, fixedSender(0.1, 0.95)).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp NotifyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "Notification sent successfully", resp.Message)

	rr = httptest.NewRecorder()
	newTestMux(t, fixedSender(0.99, 0.95)).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(body)))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var errBody httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errBody))
	require.Equal(t, "delivery_failed", errBody.Type)

	rr = httptest.NewRecorder()
	newTestMux(t, fixedSender(0.1, 0.95)).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(`{"userId":"u","title":"t"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCalorieRouteValidatesEmails(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestMux(t, fixedSender(0, 1)).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/notify/calories", strings.NewReader(`{"friendsEmails":["not-an-email"],"message":"hi"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	newTestMux(t, fixedSender(0, 1)).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/notify/calories", strings.NewReader(`{"friendsEmails":["a@example.com"],"message":"hi"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestDeliveryLogCountsKnownEvents(t *testing.T) {
	log := NewDeliveryLog(zaptest.NewLogger(t))
	before := testutil.ToFloat64(deliveredCounter.WithLabelValues(events.TypeNotificationSent))

	payload, err := json.Marshal(events.NotificationSent{NotificationID: "n1", UserID: "u"})
	require.NoError(t, err)
	require.NoError(t, log.Handle(context.Background(), broker.Message{EventType: events.TypeNotificationSent, Payload: payload}))
	require.NoError(t, log.Handle(context.Background(), broker.Message{EventType: "something.else", Payload: []byte(`{}`)}))
	require.Error(t, log.Handle(context.Background(), broker.Message{EventType: events.TypeMonthlySummary, Payload: []byte(`[]`)}))

	require.InDelta(t, before+1, testutil.ToFloat64(deliveredCounter.WithLabelValues(events.TypeNotificationSent)), 0.0001)
}

type published struct {
	topic, key, eventType string
	payload               interface{}
}

type stubPublisher struct {
	mu        sync.Mutex
	err       error
	published []published
}

func (p *stubPublisher) Publish(_ context.Context, topic, key, eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, published{topic: topic, key: key, eventType: eventType, payload: payload})
	return nil
}

func (p *stubPublisher) Close() error { return nil }
