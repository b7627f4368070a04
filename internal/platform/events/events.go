// Package events defines cross-service event payloads and topic names.
package events

import "time"

// Kafka topics and event types.
const (
	TopicActivityEvents  = "activity_events"
	TopicNotifications   = "notifications"
	TypeActivityCreated  = "activity.created"
	TypeNotificationSent = "notification.sent"
	TypeMonthlySummary   = "monthly_summary"
	TypeCalorieUpdate    = "calorie_update"
	HeaderEventType      = "event_type"
	HeaderContentType    = "content_type"
	ContentTypeJSON      = "application/json"
)

// ActivityCreated is emitted once an activity record is persisted.
type ActivityCreated struct {
	ActivityID     string    `json:"activity_id"`
	UserID         string    `json:"user_id"`
	ExerciseType   string    `json:"exercise_type"`
	DurationMin    int       `json:"duration_min"`
	Intensity      string    `json:"intensity"`
	CaloriesBurned *float64  `json:"calories_burned,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NotificationSent records a push notification accepted by the notification service.
type NotificationSent struct {
	NotificationID string         `json:"notification_id"`
	UserID         string         `json:"user_id"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Data           map[string]any `json:"data,omitempty"`
	SentAt         time.Time      `json:"sent_at"`
}

// MonthlySummary is the broadcast published by the monthly summary job.
type MonthlySummary struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CalorieUpdate tells a user's friends about newly burned calories.
type CalorieUpdate struct {
	FriendsEmails []string  `json:"friends_emails"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}
