package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
	"github.com/garrikyx/FItflow/internal/platform/broker"
	"github.com/garrikyx/FItflow/internal/platform/events"
)

const monthlySummaryContent = "Your monthly health summary is ready!"

// Service sends notifications and announces them on the broker.
type Service struct {
	sender    Sender
	publisher broker.Publisher
	topic     string
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a Service publishing to topic.
func NewService(sender Sender, publisher broker.Publisher, topic string, logger *zap.Logger) *Service {
	return &Service{sender: sender, publisher: publisher, topic: topic, logger: logger, now: time.Now}
}

// Validate checks the required fields of a notification.
func (n Notification) Validate() error {
	switch {
	case strings.TrimSpace(n.UserID) == "":
		return apperr.Required("userId")
	case strings.TrimSpace(n.Title) == "":
		return apperr.Required("title")
	case strings.TrimSpace(n.Body) == "":
		return apperr.Required("body")
	}
	return nil
}

// Notify delivers n. A delivery failure is returned wrapping ErrDeliveryFailed;
// a failure to publish the follow-up event is only logged.
func (s *Service) Notify(ctx context.Context, n Notification) (*Receipt, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	if err := s.sender.Send(ctx, n); err != nil {
		recordSend(false)
		s.logger.Warn("notification delivery failed", zap.String("user_id", n.UserID), zap.Error(err))
		return nil, fmt.Errorf("notify %s: %w", n.UserID, err)
	}
	recordSend(true)

	receipt := &Receipt{NotificationID: uuid.NewString(), SentAt: s.now().UTC()}
	s.publish(ctx, n.UserID, events.TypeNotificationSent, events.NotificationSent{
		NotificationID: receipt.NotificationID,
		UserID:         n.UserID,
		Title:          n.Title,
		Body:           n.Body,
		Data:           n.Data,
		SentAt:         receipt.SentAt,
	})
	return receipt, nil
}

// NotifyCalories fans a calorie update out to the user's friends.
func (s *Service) NotifyCalories(ctx context.Context, update events.CalorieUpdate) error {
	if len(update.FriendsEmails) == 0 {
		return apperr.Required("friendsEmails")
	}
	if strings.TrimSpace(update.Message) == "" {
		return apperr.Required("message")
	}
	if update.Timestamp.IsZero() {
		update.Timestamp = s.now().UTC()
	}
	if err := s.publisher.Publish(ctx, s.topic, update.FriendsEmails[0], events.TypeCalorieUpdate, update); err != nil {
		recordPublish(events.TypeCalorieUpdate, false)
		return apperr.Upstream("broker", err)
	}
	recordPublish(events.TypeCalorieUpdate, true)
	return nil
}

// SendMonthlySummary broadcasts the monthly summary event.
func (s *Service) SendMonthlySummary(ctx context.Context) {
	s.publish(ctx, "monthly-summary", events.TypeMonthlySummary, events.MonthlySummary{
		Content:   monthlySummaryContent,
		Timestamp: s.now().UTC(),
	})
}

func (s *Service) publish(ctx context.Context, key, eventType string, payload interface{}) {
	if err := s.publisher.Publish(ctx, s.topic, key, eventType, payload); err != nil {
		recordPublish(eventType, false)
		s.logger.Error("event publish failed", zap.String("event_type", eventType), zap.String("topic", s.topic), zap.Error(err))
		return
	}
	recordPublish(eventType, true)
}
