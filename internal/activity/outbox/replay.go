package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const maxReplayDelay = time.Hour

// DeadLetter is an outbox_dlq row awaiting replay.
type DeadLetter struct {
	ID         int64
	Message    Message
	Reason     string
	RetryCount int
}

// DLQStore persists dead-lettered outbox messages.
type DLQStore interface {
	Due(ctx context.Context, limit int) ([]DeadLetter, error)
	Requeue(ctx context.Context, entry DeadLetter) error
	Reschedule(ctx context.Context, id int64, delay time.Duration, reason string) error
	Quarantine(ctx context.Context, id int64, reason string) error
	Backlog(ctx context.Context) (int, error)
}

// Replayer moves dead letters back into the outbox until they exceed maxRetries,
// after which they are quarantined for manual inspection.
type Replayer struct {
	store      DLQStore
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
}

// NewReplayer constructs a Replayer. Non-positive settings fall back to 5 retries and a one minute base delay.
func NewReplayer(store DLQStore, maxRetries int, baseDelay time.Duration, logger *zap.Logger) *Replayer {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	return &Replayer{store: store, maxRetries: maxRetries, baseDelay: baseDelay, logger: logger}
}

// Start runs RunOnce every interval until ctx is cancelled.
func (r *Replayer) Start(ctx context.Context, interval time.Duration, batchSize int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		replayed, err := r.RunOnce(ctx, batchSize)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Warn("dlq replay failed", zap.Error(err))
		}
		if replayed > 0 {
			r.logger.Info("dlq entries requeued", zap.Int("count", replayed))
		}
	}
}

// RunOnce processes one batch of due entries and returns how many were requeued.
func (r *Replayer) RunOnce(ctx context.Context, batchSize int) (int, error) {
	entries, err := r.store.Due(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, entry := range entries {
		ok, handleErr := r.handle(ctx, entry)
		if handleErr != nil {
			err = errors.Join(err, handleErr)
			continue
		}
		if ok {
			requeued++
		}
	}

	if backlog, backlogErr := r.store.Backlog(ctx); backlogErr == nil {
		dlqBacklogGauge.Set(float64(backlog))
	}
	return requeued, err
}

func (r *Replayer) handle(ctx context.Context, entry DeadLetter) (bool, error) {
	topic, eventType := entry.Message.Topic, entry.Message.EventType

	if entry.RetryCount >= r.maxRetries {
		if err := r.store.Quarantine(ctx, entry.ID, "retry limit reached"); err != nil {
			return false, err
		}
		dlqQuarantinedCounter.WithLabelValues(topic, eventType).Inc()
		r.logger.Warn("dlq entry quarantined", zap.Int64("dlq_id", entry.ID), zap.Int("retries", entry.RetryCount))
		return false, nil
	}

	if err := r.store.Requeue(ctx, entry); err != nil {
		delay := r.delay(entry.RetryCount + 1)
		if schedErr := r.store.Reschedule(ctx, entry.ID, delay, err.Error()); schedErr != nil {
			return false, errors.Join(err, schedErr)
		}
		dlqRetryCounter.WithLabelValues(topic, eventType).Inc()
		return false, nil
	}

	dlqRequeuedCounter.WithLabelValues(topic, eventType).Inc()
	return true, nil
}

// delay returns the exponential backoff for the given attempt, starting at baseDelay and capped at an hour.
func (r *Replayer) delay(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = maxReplayDelay
	b.MaxElapsedTime = 0
	b.Reset()

	d := r.baseDelay
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}

// PostgresDLQStore implements DLQStore on outbox_dlq.
type PostgresDLQStore struct {
	pool *pgxpool.Pool
}

// NewPostgresDLQStore constructs a PostgresDLQStore.
func NewPostgresDLQStore(pool *pgxpool.Pool) *PostgresDLQStore {
	return &PostgresDLQStore{pool: pool}
}

// Due returns entries that are neither quarantined nor waiting out a backoff.
func (s *PostgresDLQStore) Due(ctx context.Context, limit int) ([]DeadLetter, error) {
	const query = `SELECT dlq_id, event_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload, reason, retry_count
        FROM outbox_dlq
        WHERE quarantined_at IS NULL AND (next_retry_at IS NULL OR next_retry_at <= NOW())
        ORDER BY created_at
        LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeadLetter
	for rows.Next() {
		var e DeadLetter
		m := &e.Message
		if err := rows.Scan(&e.ID, &m.EventID, &m.AggregateType, &m.AggregateID, &m.EventType, &m.Topic, &m.PartitionKey, &m.Payload, &e.Reason, &e.RetryCount); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Requeue reinserts the payload into outbox and removes the dead letter in one transaction.
func (s *PostgresDLQStore) Requeue(ctx context.Context, entry DeadLetter) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		m := entry.Message
		if _, err := tx.Exec(ctx,
			`INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
             VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			m.AggregateType, m.AggregateID, m.EventType, m.Topic, m.PartitionKey, m.Payload,
			fmt.Sprintf("replay:%d:%d", entry.ID, entry.RetryCount),
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM outbox_dlq WHERE dlq_id = $1`, entry.ID)
		return err
	})
}

// Reschedule bumps the retry count and pushes the next attempt out by delay.
func (s *PostgresDLQStore) Reschedule(ctx context.Context, id int64, delay time.Duration, reason string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE outbox_dlq
            SET retry_count = retry_count + 1,
                last_attempt_at = NOW(),
                next_retry_at = NOW() + $1::interval,
                reason = $2
          WHERE dlq_id = $3`,
		delay, reason, id,
	)
	return err
}

// Quarantine parks the entry permanently.
func (s *PostgresDLQStore) Quarantine(ctx context.Context, id int64, reason string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE outbox_dlq SET quarantined_at = NOW(), quarantine_reason = $1 WHERE dlq_id = $2`,
		reason, id,
	)
	return err
}

// Backlog counts entries still eligible for replay.
func (s *PostgresDLQStore) Backlog(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NULL`).Scan(&count)
	return count, err
}
