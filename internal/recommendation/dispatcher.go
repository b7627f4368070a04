package recommendation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const notificationTitle = "Your Fitness Recommendation"

// Message is the body posted to the notification service.
type Message struct {
	UserID string         `json:"userId"`
	Title  string         `json:"title"`
	Body   string         `json:"body"`
	Data   Recommendation `json:"data"`
}

// NewMessage renders the push notification for rec.
func NewMessage(userID string, rec Recommendation) Message {
	return Message{
		UserID: userID,
		Title:  notificationTitle,
		Body:   fmt.Sprintf("Today's recommendation: %s at %s intensity", rec.ExerciseRecommendation, rec.IntensityRecommendation),
		Data:   rec,
	}
}

// Notifier delivers a notification message.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher sends recommendation notifications in the background.
// Failures are logged and counted, never returned.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher. Each send is bounded by timeout.
func NewDispatcher(notifier Notifier, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, timeout: timeout, logger: logger}
}

// Dispatch schedules one notification and returns immediately. The send keeps
// ctx's values (such as the bearer token) but not its cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, rec Recommendation) {
	detached := context.WithoutCancel(ctx)
	msg := NewMessage(userID, rec)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()

		if err := d.notifier.Send(ctx, msg); err != nil {
			recordDispatch(false)
			d.logger.Warn("recommendation notification failed", zap.String("user_id", userID), zap.Error(err))
			return
		}
		recordDispatch(true)
		d.logger.Debug("recommendation notification sent", zap.String("user_id", userID))
	}()
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
