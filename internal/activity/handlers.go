package activity

import (
	"net/http"
	"strconv"

	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
)

// Handler coordinates HTTP requests with the activity service.
type Handler struct {
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, guard auth.Middleware) {
	mux.HandleFunc("POST /activities", guard.Require(h.createActivity, auth.ScopeActivitiesWrite))
	mux.HandleFunc("GET /activities/{userId}", guard.Require(h.listActivities, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite))
	mux.HandleFunc("GET /healthz", httpx.Healthz)
}

// CreateActivityRequest is the payload for POST /activities.
type CreateActivityRequest struct {
	UserID         string   `json:"userId" validate:"required"`
	ExerciseType   string   `json:"exerciseType" validate:"required"`
	Duration       int      `json:"duration" validate:"required,gt=0"`
	Intensity      string   `json:"intensity" validate:"required,oneof=low moderate high"`
	CaloriesBurned *float64 `json:"caloriesBurned,omitempty" validate:"omitempty,gte=0"`
	Location       string   `json:"location,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	var req CreateActivityRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteErr(w, err)
		return
	}

	record, err := h.service.CreateActivity(r.Context(), CreateInput{
		UserID:         req.UserID,
		ExerciseType:   req.ExerciseType,
		Duration:       req.Duration,
		Intensity:      Intensity(req.Intensity),
		CaloriesBurned: req.CaloriesBurned,
		Location:       req.Location,
		Notes:          req.Notes,
	})
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.service.ListActivities(r.Context(), r.PathValue("userId"), limit)
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, records)
}
