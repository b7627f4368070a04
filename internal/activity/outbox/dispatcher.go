package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/garrikyx/FItflow/internal/platform/broker"
	"github.com/garrikyx/FItflow/internal/platform/events"
)

// Store is the persistence side of the dispatcher.
type Store interface {
	Claim(ctx context.Context, limit int) ([]Message, error)
	MarkPublished(ctx context.Context, ids []int64) error
	MoveToDLQ(ctx context.Context, msg Message, reason string) error
}

// Dispatcher drains the outbox table and delivers events to Kafka.
type Dispatcher struct {
	store            Store
	producer         broker.MessageWriter
	logger           *zap.Logger
	pollInterval     time.Duration
	batchSize        int
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(store Store, producer broker.MessageWriter, logger *zap.Logger, pollInterval time.Duration, batchSize int) *Dispatcher {
	return &Dispatcher{
		store:            store,
		producer:         producer,
		logger:           logger,
		pollInterval:     pollInterval,
		batchSize:        batchSize,
		shutdownComplete: make(chan struct{}),
	}
}

// Start launches the polling loop. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		close(d.shutdownComplete)
	}()

	for {
		if err := d.processBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("outbox dispatcher error", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait waits until dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

func (d *Dispatcher) processBatch(ctx context.Context) error {
	start := time.Now()

	messages, err := d.store.Claim(ctx, d.batchSize)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	if err := d.deliver(ctx, messages); err != nil {
		d.logger.Warn("outbox delivery failure", zap.Int("batch", len(messages)), zap.Error(err))
		failedCounter.Add(float64(len(messages)))
		for _, msg := range messages {
			if dlqErr := d.store.MoveToDLQ(ctx, msg, fmt.Sprintf("%s (topic=%s)", err, msg.Topic)); dlqErr != nil {
				return dlqErr
			}
			dlqCounter.WithLabelValues(msg.Topic).Inc()
		}
		return d.store.MarkPublished(ctx, eventIDs(messages))
	}

	deliveredCounter.Add(float64(len(messages)))
	return d.store.MarkPublished(ctx, eventIDs(messages))
}

func (d *Dispatcher) deliver(ctx context.Context, messages []Message) error {
	batches := make(map[string][]kafka.Message)
	order := make([]string, 0)

	for _, msg := range messages {
		record := kafka.Message{
			Key:   []byte(msg.PartitionKey),
			Value: []byte(msg.Payload),
			Time:  time.Now().UTC(),
			Headers: []kafka.Header{
				{Key: events.HeaderEventType, Value: []byte(msg.EventType)},
				{Key: events.HeaderContentType, Value: []byte(events.ContentTypeJSON)},
			},
		}
		if _, ok := batches[msg.Topic]; !ok {
			order = append(order, msg.Topic)
		}
		batches[msg.Topic] = append(batches[msg.Topic], record)
	}

	for _, topic := range order {
		if err := d.producer.WriteMessages(ctx, topic, batches[topic]...); err != nil {
			return err
		}
	}
	return nil
}

func eventIDs(messages []Message) []int64 {
	ids := make([]int64, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.EventID)
	}
	return ids
}

// DefaultClaimLease is how long a claimed row stays invisible to other
// dispatchers before it is considered abandoned and claimed again.
const DefaultClaimLease = 30 * time.Second

// PostgresStore implements Store on the outbox and outbox_dlq tables.
type PostgresStore struct {
	pool       *pgxpool.Pool
	claimLease time.Duration
}

// NewPostgresStore constructs a PostgresStore. A non-positive lease falls back
// to DefaultClaimLease.
func NewPostgresStore(pool *pgxpool.Pool, claimLease time.Duration) *PostgresStore {
	if claimLease <= 0 {
		claimLease = DefaultClaimLease
	}
	return &PostgresStore{pool: pool, claimLease: claimLease}
}

// Claim locks up to limit unpublished rows whose claim is absent or older than
// the lease, and stamps them as claimed.
func (s *PostgresStore) Claim(ctx context.Context, limit int) (messages []Message, err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const query = `SELECT event_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload
        FROM outbox
        WHERE published_at IS NULL
          AND (claimed_at IS NULL OR claimed_at < NOW() - make_interval(secs => $2))
        ORDER BY event_id
        LIMIT $1
        FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, query, limit, s.claimLease.Seconds())
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var msg Message
		if err = rows.Scan(&msg.EventID, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &msg.Topic, &msg.PartitionKey, &msg.Payload); err != nil {
			rows.Close()
			return nil, err
		}
		messages = append(messages, msg)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(messages) == 0 {
		tx.Rollback(ctx)
		return nil, nil
	}

	if _, err = tx.Exec(ctx, `UPDATE outbox SET claimed_at = NOW() WHERE event_id = ANY($1)`, eventIDs(messages)); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkPublished stamps the rows as published.
func (s *PostgresStore) MarkPublished(ctx context.Context, ids []int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET published_at = NOW() WHERE event_id = ANY($1)`, ids)
	return err
}

// MoveToDLQ records a failed outbox message alongside the supplied reason.
func (s *PostgresStore) MoveToDLQ(ctx context.Context, msg Message, reason string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO outbox_dlq (event_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload, reason)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		msg.EventID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Topic, msg.PartitionKey, msg.Payload, reason,
	)
	return err
}
