// Package outbox persists and delivers activity events to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Event is a domain event to be written alongside the row that produced it.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	PartitionKey  string
	Payload       interface{}
}

// Message represents a row fetched from outbox.
type Message struct {
	EventID       int64
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	PartitionKey  string
	Payload       json.RawMessage
}

// Enqueue inserts the event inside the caller's transaction.
func Enqueue(ctx context.Context, tx pgx.Tx, event Event) error {
	body, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.EventType, err)
	}
	if event.Topic == "" {
		return fmt.Errorf("unknown topic for event type: %s", event.EventType)
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, stmt,
		event.AggregateType,
		event.AggregateID,
		event.EventType,
		event.Topic,
		event.PartitionKey,
		body,
		fmt.Sprintf("%s:%s", event.AggregateID, event.EventType),
	)
	return err
}
