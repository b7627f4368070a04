package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/garrikyx/FItflow/internal/platform/events"
)

func TestDispatcherDeliversAndMarksPublished(t *testing.T) {
	store := &stubStore{pending: []Message{
		{EventID: 1, EventType: events.TypeActivityCreated, Topic: events.TopicActivityEvents, PartitionKey: "user-1", Payload: json.RawMessage(`{"activity_id":"a1"}`)},
		{EventID: 2, EventType: events.TypeActivityCreated, Topic: events.TopicActivityEvents, PartitionKey: "user-2", Payload: json.RawMessage(`{"activity_id":"a2"}`)},
	}}
	writer := &stubWriter{}
	before := testutil.ToFloat64(deliveredCounter)

	d := NewDispatcher(store, writer, zaptest.NewLogger(t), time.Second, 10)
	require.NoError(t, d.processBatch(context.Background()))

	require.Equal(t, []int64{1, 2}, store.published)
	require.Empty(t, store.dlq)
	require.Len(t, writer.written[events.TopicActivityEvents], 2)

	first := writer.written[events.TopicActivityEvents][0]
	require.Equal(t, "user-1", string(first.Key))
	require.JSONEq(t, `{"activity_id":"a1"}`, string(first.Value))
	require.Equal(t, events.HeaderEventType, first.Headers[0].Key)
	require.Equal(t, events.TypeActivityCreated, string(first.Headers[0].Value))

	require.InDelta(t, before+2, testutil.ToFloat64(deliveredCounter), 0.0001)
}

func TestDispatcherRoutesFailedBatchToDLQ(t *testing.T) {
	store := &stubStore{pending: []Message{
		{EventID: 7, EventType: events.TypeActivityCreated, Topic: events.TopicActivityEvents, PartitionKey: "user-1", Payload: json.RawMessage(`{}`)},
	}}
	writer := &stubWriter{err: errors.New("broker unavailable")}
	before := testutil.ToFloat64(dlqCounter.WithLabelValues(events.TopicActivityEvents))

	d := NewDispatcher(store, writer, zaptest.NewLogger(t), time.Second, 10)
	require.NoError(t, d.processBatch(context.Background()))

	require.Len(t, store.dlq, 1)
	require.Contains(t, store.dlq[0], "broker unavailable")
	require.Contains(t, store.dlq[0], "topic=activity_events")
	require.Equal(t, []int64{7}, store.published)
	require.InDelta(t, before+1, testutil.ToFloat64(dlqCounter.WithLabelValues(events.TopicActivityEvents)), 0.0001)
}

func TestDispatcherSurfacesClaimErrors(t *testing.T) {
	store := &stubStore{claimErr: errors.New("connection refused")}
	d := NewDispatcher(store, &stubWriter{}, zaptest.NewLogger(t), time.Second, 10)

	require.EqualError(t, d.processBatch(context.Background()), "connection refused")
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	d := NewDispatcher(&stubStore{}, &stubWriter{}, zaptest.NewLogger(t), 10*time.Millisecond, 10)
	ctx, cancel := context.WithCancel(context.Background())

	go d.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

type stubStore struct {
	mu        sync.Mutex
	pending   []Message
	claimErr  error
	published []int64
	dlq       []string
}

func (s *stubStore) Claim(context.Context, int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	out := s.pending
	s.pending = nil
	return out, nil
}

func (s *stubStore) MarkPublished(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, ids...)
	return nil
}

func (s *stubStore) MoveToDLQ(_ context.Context, _ Message, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dlq = append(s.dlq, reason)
	return nil
}

type stubWriter struct {
	err     error
	written map[string][]kafka.Message
}

func (w *stubWriter) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	if w.written == nil {
		w.written = make(map[string][]kafka.Message)
	}
	w.written[topic] = append(w.written[topic], msgs...)
	return nil
}

func TestPostgresStoreDefaultsClaimLease(t *testing.T) {
	require.Equal(t, DefaultClaimLease, NewPostgresStore(nil, 0).claimLease)
	require.Equal(t, DefaultClaimLease, NewPostgresStore(nil, -time.Second).claimLease)
	require.Equal(t, 2*time.Minute, NewPostgresStore(nil, 2*time.Minute).claimLease)
}
