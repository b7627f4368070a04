package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/garrikyx/FItflow/internal/platform/broker"
	"github.com/garrikyx/FItflow/internal/platform/events"
)

// DeliveryLog drains the notifications topic into the structured log.
type DeliveryLog struct {
	logger *zap.Logger
}

// NewDeliveryLog constructs a DeliveryLog.
func NewDeliveryLog(logger *zap.Logger) *DeliveryLog {
	return &DeliveryLog{logger: logger}
}

// Handle implements broker.Handler.
func (d *DeliveryLog) Handle(_ context.Context, msg broker.Message) error {
	switch msg.EventType {
	case events.TypeNotificationSent:
		var evt events.NotificationSent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		d.logger.Info("notification delivered",
			zap.String("notification_id", evt.NotificationID),
			zap.String("user_id", evt.UserID),
			zap.String("title", evt.Title),
			zap.Time("sent_at", evt.SentAt),
		)
	case events.TypeMonthlySummary:
		var evt events.MonthlySummary
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		d.logger.Info("monthly summary broadcast", zap.String("content", evt.Content), zap.Time("timestamp", evt.Timestamp))
	case events.TypeCalorieUpdate:
		var evt events.CalorieUpdate
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		d.logger.Info("calorie update sent to friends", zap.Int("recipients", len(evt.FriendsEmails)), zap.String("message", evt.Message))
	default:
		d.logger.Debug("ignoring event", zap.String("event_type", msg.EventType))
		return nil
	}
	deliveredCounter.WithLabelValues(msg.EventType).Inc()
	return nil
}
