package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/garrikyx/FItflow/internal/platform/broker"
	"github.com/garrikyx/FItflow/internal/platform/events"
)

// ActivityHandler credits activity.created events to the board.
type ActivityHandler struct {
	board  *Board
	logger *zap.Logger
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(board *Board, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{board: board, logger: logger}
}

// Handle implements broker.Handler. Other event types and activities without calories are ignored.
func (h *ActivityHandler) Handle(ctx context.Context, msg broker.Message) error {
	if msg.EventType != events.TypeActivityCreated {
		return nil
	}

	var evt events.ActivityCreated
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("decode activity.created: %w", err)
	}
	if evt.UserID == "" {
		h.logger.Warn("activity event without user, skipping", zap.String("activity_id", evt.ActivityID))
		return nil
	}
	if evt.CaloriesBurned == nil || *evt.CaloriesBurned <= 0 {
		h.logger.Debug("activity has no calories, skipping", zap.String("activity_id", evt.ActivityID))
		return nil
	}

	if err := h.board.Record(ctx, evt.UserID, *evt.CaloriesBurned, evt.Timestamp); err != nil {
		return err
	}
	h.logger.Info("leaderboard credited",
		zap.String("activity_id", evt.ActivityID),
		zap.String("user_id", evt.UserID),
		zap.Float64("calories", *evt.CaloriesBurned),
	)
	return nil
}
