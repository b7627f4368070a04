package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/broker"
	"github.com/garrikyx/FItflow/internal/platform/events"
)

var monday = time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

func newTestBoard() (*Board, *fakeSets) {
	sets := newFakeSets()
	board := NewBoard(sets)
	board.now = func() time.Time { return monday }
	return board, sets
}

func TestWeeklyKeyUsesISOWeek(t *testing.T) {
	require.Equal(t, "leaderboard:weekly:2025:23", WeeklyKey(monday))
	require.Equal(t, "leaderboard:weekly:2025:1", WeeklyKey(time.Date(2024, time.December, 30, 12, 0, 0, 0, time.UTC)))
}

func TestRecordAccumulatesAndSetsTTL(t *testing.T) {
	board, sets := newTestBoard()
	ctx := context.Background()

	require.NoError(t, board.Record(ctx, "alice", 200, monday))
	require.NoError(t, board.Record(ctx, "alice", 150.5, monday.Add(time.Hour)))
	require.NoError(t, board.Record(ctx, "bob", 0, monday))

	key := WeeklyKey(monday)
	require.InDelta(t, 350.5, sets.scores[key]["alice"], 0.001)
	_, bobPresent := sets.scores[key]["bob"]
	require.False(t, bobPresent)
	require.Equal(t, WeeklyTTL, sets.ttl[key])
}

func TestRecordRequiresUser(t *testing.T) {
	board, _ := newTestBoard()
	require.ErrorIs(t, board.Record(context.Background(), "", 10, monday), apperr.ErrValidation)
}

func TestTopRanksHighestFirstWithOffset(t *testing.T) {
	board, _ := newTestBoard()
	ctx := context.Background()
	for user, calories := range map[string]float64{"alice": 500, "bob": 300, "carol": 900, "dan": 100} {
		require.NoError(t, board.Record(ctx, user, calories, monday))
	}

	page, err := board.Top(ctx, 2, 0)
	require.NoError(t, err)
	require.Equal(t, int64(4), page.TotalUsers)
	require.Equal(t, "Week 23, 2025", page.TimePeriod)
	require.Equal(t, []Entry{{UserID: "carol", CaloriesBurned: 900, Rank: 1}, {UserID: "alice", CaloriesBurned: 500, Rank: 2}}, page.Entries)

	page, err = board.Top(ctx, 2, 2)
	require.NoError(t, err)
	require.Equal(t, []Entry{{UserID: "bob", CaloriesBurned: 300, Rank: 3}, {UserID: "dan", CaloriesBurned: 100, Rank: 4}}, page.Entries)
}

func TestRankReportsPositionOrNotFound(t *testing.T) {
	board, _ := newTestBoard()
	ctx := context.Background()
	require.NoError(t, board.Record(ctx, "alice", 500, monday))
	require.NoError(t, board.Record(ctx, "bob", 700, monday))

	entry, err := board.Rank(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(2), entry.Rank)
	require.InDelta(t, 500, entry.CaloriesBurned, 0.001)

	_, err = board.Rank(ctx, "zed")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTopSurfacesRedisErrors(t *testing.T) {
	board, sets := newTestBoard()
	sets.err = errors.New("connection reset")

	_, err := board.Top(context.Background(), 10, 0)
	require.ErrorContains(t, err, "connection reset")
}

func TestActivityHandlerCreditsCalories(t *testing.T) {
	board, sets := newTestBoard()
	handler := NewActivityHandler(board, zaptest.NewLogger(t))

	calories := 250.0
	payload, err := json.Marshal(events.ActivityCreated{ActivityID: "a1", UserID: "alice", CaloriesBurned: &calories, Timestamp: monday})
	require.NoError(t, err)
	require.NoError(t, handler.Handle(context.Background(), broker.Message{EventType: events.TypeActivityCreated, Payload: payload}))

	noCalories, err := json.Marshal(events.ActivityCreated{ActivityID: "a2", UserID: "bob", Timestamp: monday})
	require.NoError(t, err)
	require.NoError(t, handler.Handle(context.Background(), broker.Message{EventType: events.TypeActivityCreated, Payload: noCalories}))

	require.NoError(t, handler.Handle(context.Background(), broker.Message{EventType: "activity.deleted", Payload: []byte(`{}`)}))

	key := WeeklyKey(monday)
	require.Len(t, sets.scores[key], 1)
	require.InDelta(t, 250, sets.scores[key]["alice"], 0.001)
}

func TestLeaderboardRoutes(t *testing.T) {
	board, _ := newTestBoard()
	require.NoError(t, board.Record(context.Background(), "alice", 400, monday))

	mux := http.NewServeMux()
	NewHandler(board).RegisterRoutes(mux, auth.NewMiddleware(auth.Config{Disabled: true}))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/leaderboards/weekly?limit=5", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var page Page
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page.Entries, 1)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/leaderboards/weekly/alice", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"userId":"alice","caloriesBurned":400,"rank":1}`, rr.Body.String())

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/leaderboards/weekly/nobody", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

// fakeSets is an in-memory stand-in for the Redis sorted-set commands.
type fakeSets struct {
	mu     sync.Mutex
	scores map[string]map[string]float64
	ttl    map[string]time.Duration
	err    error
}

func newFakeSets() *fakeSets {
	return &fakeSets{scores: map[string]map[string]float64{}, ttl: map[string]time.Duration{}}
}

func (f *fakeSets) ZIncrBy(_ context.Context, key string, increment float64, member string) *redis.FloatCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewFloatResult(0, f.err)
	}
	if f.scores[key] == nil {
		f.scores[key] = map[string]float64{}
	}
	f.scores[key][member] += increment
	return redis.NewFloatResult(f.scores[key][member], nil)
}

func (f *fakeSets) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttl[key] = expiration
	return redis.NewBoolResult(true, f.err)
}

func (f *fakeSets) ranked(key string) []redis.Z {
	out := make([]redis.Z, 0, len(f.scores[key]))
	for member, score := range f.scores[key] {
		out = append(out, redis.Z{Member: member, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (f *fakeSets) ZRevRangeWithScores(_ context.Context, key string, start, stop int64) *redis.ZSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewZSliceCmdResult(nil, f.err)
	}
	all := f.ranked(key)
	if start >= int64(len(all)) {
		return redis.NewZSliceCmdResult([]redis.Z{}, nil)
	}
	if stop >= int64(len(all)) {
		stop = int64(len(all)) - 1
	}
	return redis.NewZSliceCmdResult(all[start:stop+1], nil)
}

func (f *fakeSets) ZCard(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return redis.NewIntResult(int64(len(f.scores[key])), f.err)
}

func (f *fakeSets) ZRevRank(_ context.Context, key, member string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, z := range f.ranked(key) {
		if z.Member == member {
			return redis.NewIntResult(int64(i), nil)
		}
	}
	return redis.NewIntResult(0, redis.Nil)
}

func (f *fakeSets) ZScore(_ context.Context, key, member string) *redis.FloatCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	score, ok := f.scores[key][member]
	if !ok {
		return redis.NewFloatResult(0, redis.Nil)
	}
	return redis.NewFloatResult(score, nil)
}
