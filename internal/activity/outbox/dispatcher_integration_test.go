//go:build integration

package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/garrikyx/FItflow/internal/platform/broker"
	"github.com/garrikyx/FItflow/internal/platform/events"
	"github.com/garrikyx/FItflow/internal/platform/testsupport"
)

func TestDispatcherPublishesOutboxRowsToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	pool := testsupport.StartPostgres(ctx, t)
	brokerAddr := testsupport.StartKafka(ctx, t)

	activityID := uuid.NewString()
	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, Enqueue(ctx, tx, Event{
		AggregateType: "activity",
		AggregateID:   activityID,
		EventType:     events.TypeActivityCreated,
		Topic:         events.TopicActivityEvents,
		PartitionKey:  "user-1",
		Payload:       events.ActivityCreated{ActivityID: activityID, UserID: "user-1", ExerciseType: "run", DurationMin: 30, Intensity: "high"},
	}))
	require.NoError(t, tx.Commit(ctx))

	producer := broker.NewKafkaProducer([]string{brokerAddr})
	t.Cleanup(func() { _ = producer.Close() })

	d := NewDispatcher(NewPostgresStore(pool, time.Minute), producer, zaptest.NewLogger(t), 100*time.Millisecond, 10)
	require.NoError(t, d.processBatch(ctx))

	var published bool
	require.NoError(t, pool.QueryRow(ctx, `SELECT published_at IS NOT NULL FROM outbox WHERE aggregate_id=$1`, activityID).Scan(&published))
	require.True(t, published)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   []string{brokerAddr},
		Topic:     events.TopicActivityEvents,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = reader.Close() })

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	require.Equal(t, "user-1", string(msg.Key))
	require.Contains(t, string(msg.Value), activityID)
}

func TestClaimSkipsRowsUnderLeaseAndReclaimsExpiredOnes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool := testsupport.StartPostgres(ctx, t)

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, Enqueue(ctx, tx, Event{
		AggregateType: "activity",
		AggregateID:   uuid.NewString(),
		EventType:     events.TypeActivityCreated,
		Topic:         events.TopicActivityEvents,
		PartitionKey:  "user-1",
		Payload:       map[string]string{"userId": "user-1"},
	}))
	require.NoError(t, tx.Commit(ctx))

	store := NewPostgresStore(pool, time.Minute)

	first, err := store.Claim(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	again, err := store.Claim(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, again, "a claimed row must stay hidden while its lease is live")

	_, err = pool.Exec(ctx, `UPDATE outbox SET claimed_at = NOW() - INTERVAL '2 minutes' WHERE event_id = $1`, first[0].EventID)
	require.NoError(t, err)

	reclaimed, err := store.Claim(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	require.Equal(t, first[0].EventID, reclaimed[0].EventID)

	require.NoError(t, store.MarkPublished(ctx, []int64{first[0].EventID}))
	after, err := store.Claim(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, after)
}
