// Package notification simulates push delivery and publishes delivery events.
package notification

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// ErrDeliveryFailed is returned when the push provider rejects a notification.
var ErrDeliveryFailed = errors.New("failed to send notification")

// Notification is a push message addressed to one user.
type Notification struct {
	UserID string         `json:"userId"`
	Title  string         `json:"title"`
	Body   string         `json:"body"`
	Data   map[string]any `json:"data,omitempty"`
}

// Receipt identifies an accepted notification.
type Receipt struct {
	NotificationID string    `json:"notificationId"`
	SentAt         time.Time `json:"sentAt"`
}

// Sender delivers a notification to the user's device.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// SimulatedSender stands in for a push provider and fails a configurable share of sends.
type SimulatedSender struct {
	successRate float64
	random      func() float64
}

// NewSimulatedSender builds a sender that succeeds with probability successRate.
func NewSimulatedSender(successRate float64) *SimulatedSender {
	return &SimulatedSender{successRate: successRate, random: rand.Float64}
}

// Send implements Sender.
func (s *SimulatedSender) Send(ctx context.Context, _ Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.random() < s.successRate {
		return nil
	}
	return ErrDeliveryFailed
}
