package activity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
)

func newTestMux(t *testing.T, guard auth.Middleware) (*http.ServeMux, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	mux := http.NewServeMux()
	NewHandler(NewService(repo)).RegisterRoutes(mux, guard)
	return mux, repo
}

func openGuard() auth.Middleware {
	return auth.NewMiddleware(auth.Config{Disabled: true})
}

func TestCreateActivityReturns201(t *testing.T) {
	mux, repo := newTestMux(t, openGuard())

	body := `{"userId":"user-1","exerciseType":"running","duration":45,"intensity":"high","caloriesBurned":420.5,"location":"park"}`
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/activities", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var record Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &record))
	require.NotEmpty(t, record.ID)
	require.Equal(t, "user-1", record.UserID)
	require.Equal(t, IntensityHigh, record.Intensity)
	require.NotNil(t, record.CaloriesBurned)
	require.InDelta(t, 420.5, *record.CaloriesBurned, 0.001)
	require.WithinDuration(t, time.Now(), record.Timestamp, time.Minute)

	stored, err := repo.ListByUser(t.Context(), "user-1", 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestCreateActivityValidation(t *testing.T) {
	cases := map[string]struct {
		body   string
		detail string
	}{
		"missing user":      {`{"exerciseType":"run","duration":10,"intensity":"low"}`, "userId is required"},
		"zero duration":     {`{"userId":"u","exerciseType":"run","duration":0,"intensity":"low"}`, "duration is required"},
		"negative duration": {`{"userId":"u","exerciseType":"run","duration":-5,"intensity":"low"}`, "duration"},
		"bad intensity":     {`{"userId":"u","exerciseType":"run","duration":10,"intensity":"extreme"}`, "intensity"},
		"unknown field":     {`{"userId":"u","exerciseType":"run","duration":10,"intensity":"low","mood":"great"}`, "mood"},
		"empty body":        {``, "empty"},
		"negative calories": {`{"userId":"u","exerciseType":"run","duration":10,"intensity":"low","caloriesBurned":-1}`, "caloriesBurned"},
		"wrong type":        {`{"userId":"u","exerciseType":"run","duration":"ten","intensity":"low"}`, "duration"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			mux, repo := newTestMux(t, openGuard())
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/activities", strings.NewReader(tc.body)))

			require.Equal(t, http.StatusBadRequest, rr.Code)
			var body httpx.ErrorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.Equal(t, "validation_failed", body.Type)
			require.Contains(t, body.Detail, tc.detail)

			stored, err := repo.ListByUser(t.Context(), "u", 10)
			require.NoError(t, err)
			require.Empty(t, stored)
		})
	}
}

func TestListActivitiesHonoursLimit(t *testing.T) {
	mux, repo := newTestMux(t, openGuard())
	base := time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Create(t.Context(), Record{
			ID:           string(rune('a' + i)),
			UserID:       "user-1",
			ExerciseType: "cycling",
			Duration:     30,
			Intensity:    IntensityModerate,
			Timestamp:    base.Add(time.Duration(i) * time.Hour),
		}))
	}

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/activities/user-1?limit=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var records []Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 2)
	require.Equal(t, "d", records[0].ID)
	require.Equal(t, "c", records[1].ID)
}

func TestListActivitiesEmptyIsArray(t *testing.T) {
	mux, _ := newTestMux(t, openGuard())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/activities/nobody", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[]`, rr.Body.String())
}

func TestActivityRoutesEnforceScopes(t *testing.T) {
	cfg := auth.Config{Secret: "test-secret", Issuer: "fitflow"}
	guard := auth.NewMiddleware(cfg)
	mux, _ := newTestMux(t, guard)
	handler := guard.Wrap(mux)

	readOnly, err := auth.Sign(cfg, "tester", []string{auth.ScopeActivitiesRead}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/activities", strings.NewReader(`{"userId":"u","exerciseType":"run","duration":10,"intensity":"low"}`))
	req.Header.Set("Authorization", "Bearer "+readOnly)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/activities/u", nil)
	req.Header.Set("Authorization", "Bearer "+readOnly)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/activities/u", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
