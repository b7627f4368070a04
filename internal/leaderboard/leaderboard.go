// Package leaderboard keeps a weekly calories-burned ranking in Redis sorted sets.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
)

const (
	// WeeklyTTL keeps the previous weeks readable for a while after they close.
	WeeklyTTL = 21 * 24 * time.Hour

	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SortedSets is the subset of *redis.Client the board needs.
type SortedSets interface {
	ZIncrBy(ctx context.Context, key string, increment float64, member string) *redis.FloatCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
	ZCard(ctx context.Context, key string) *redis.IntCmd
	ZRevRank(ctx context.Context, key, member string) *redis.IntCmd
	ZScore(ctx context.Context, key, member string) *redis.FloatCmd
}

// Entry is one ranked user.
type Entry struct {
	UserID         string  `json:"userId"`
	CaloriesBurned float64 `json:"caloriesBurned"`
	Rank           int64   `json:"rank"`
}

// Page is a slice of the weekly ranking.
type Page struct {
	Entries    []Entry `json:"entries"`
	TotalUsers int64   `json:"totalUsers"`
	TimePeriod string  `json:"timePeriod"`
}

// Board reads and updates the weekly leaderboard.
type Board struct {
	redis SortedSets
	now   func() time.Time
}

// NewBoard constructs a Board.
func NewBoard(client SortedSets) *Board {
	return &Board{redis: client, now: time.Now}
}

// WeeklyKey names the sorted set for the ISO week containing t.
func WeeklyKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("leaderboard:weekly:%d:%d", year, week)
}

func timePeriod(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("Week %d, %d", week, year)
}

// Record credits calories to the user on the board for the week of at.
func (b *Board) Record(ctx context.Context, userID string, calories float64, at time.Time) error {
	if userID == "" {
		return apperr.Required("userId")
	}
	if calories <= 0 {
		return nil
	}
	if at.IsZero() {
		at = b.now()
	}
	key := WeeklyKey(at)
	if err := b.redis.ZIncrBy(ctx, key, calories, userID).Err(); err != nil {
		return fmt.Errorf("zincrby %s: %w", key, err)
	}
	if err := b.redis.Expire(ctx, key, WeeklyTTL).Err(); err != nil {
		return fmt.Errorf("expire %s: %w", key, err)
	}
	recordCredited(calories)
	return nil
}

// Top returns the current week's ranking, highest first.
func (b *Board) Top(ctx context.Context, limit, offset int) (*Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	now := b.now()
	key := WeeklyKey(now)
	total, err := b.redis.ZCard(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("zcard %s: %w", key, err)
	}
	scored, err := b.redis.ZRevRangeWithScores(ctx, key, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange %s: %w", key, err)
	}

	entries := make([]Entry, 0, len(scored))
	for i, z := range scored {
		member, _ := z.Member.(string)
		entries = append(entries, Entry{
			UserID:         member,
			CaloriesBurned: z.Score,
			Rank:           int64(offset + i + 1),
		})
	}
	return &Page{Entries: entries, TotalUsers: total, TimePeriod: timePeriod(now)}, nil
}

// Rank returns the user's position this week, or apperr.ErrNotFound when they have no entry.
func (b *Board) Rank(ctx context.Context, userID string) (*Entry, error) {
	if userID == "" {
		return nil, apperr.Required("userId")
	}
	key := WeeklyKey(b.now())

	score, err := b.redis.ZScore(ctx, key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("user %s has no activity this week: %w", userID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("zscore %s: %w", key, err)
	}
	rank, err := b.redis.ZRevRank(ctx, key, userID).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrank %s: %w", key, err)
	}
	return &Entry{UserID: userID, CaloriesBurned: score, Rank: rank + 1}, nil
}
