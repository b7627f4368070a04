package profile

import (
	"net/http"

	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
)

// Handler coordinates HTTP requests with the profile service.
type Handler struct {
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, guard auth.Middleware) {
	mux.HandleFunc("GET /users/{userId}", guard.Require(h.getProfile, auth.ScopeProfilesRead, auth.ScopeProfilesWrite))
	mux.HandleFunc("POST /users", guard.Require(h.upsertProfile, auth.ScopeProfilesWrite))
	mux.HandleFunc("GET /healthz", httpx.Healthz)
}

// PreferencesRequest is the nested preferences object of UpsertProfileRequest.
type PreferencesRequest struct {
	PreferredActivities []string `json:"preferredActivities,omitempty"`
	PreferredIntensity  *string  `json:"preferredIntensity,omitempty"`
	PreferredTime       *string  `json:"preferredTime,omitempty"`
	OutdoorPreference   *bool    `json:"outdoorPreference,omitempty"`
}

// UpsertProfileRequest is the payload for POST /users.
type UpsertProfileRequest struct {
	UserID           string              `json:"userId" validate:"required"`
	FitnessGoal      *string             `json:"fitnessGoal,omitempty"`
	HealthConditions []string            `json:"healthConditions,omitempty"`
	Preferences      *PreferencesRequest `json:"preferences,omitempty"`
	Height           *float64            `json:"height,omitempty" validate:"omitempty,gt=0"`
	Weight           *float64            `json:"weight,omitempty" validate:"omitempty,gt=0"`
	Age              *int                `json:"age,omitempty" validate:"omitempty,gt=0"`
	Gender           *string             `json:"gender,omitempty"`
	ActivityLevel    *string             `json:"activityLevel,omitempty"`
}

func (req UpsertProfileRequest) toInput() UpsertInput {
	input := UpsertInput{
		UserID:           req.UserID,
		FitnessGoal:      req.FitnessGoal,
		HealthConditions: req.HealthConditions,
		Height:           req.Height,
		Weight:           req.Weight,
		Age:              req.Age,
		Gender:           req.Gender,
		ActivityLevel:    req.ActivityLevel,
	}
	if p := req.Preferences; p != nil {
		input.Preferences = &PreferencesInput{
			PreferredActivities: p.PreferredActivities,
			PreferredIntensity:  p.PreferredIntensity,
			PreferredTime:       p.PreferredTime,
			OutdoorPreference:   p.OutdoorPreference,
		}
	}
	return input
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProfile(r.Context(), r.PathValue("userId"))
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) upsertProfile(w http.ResponseWriter, r *http.Request) {
	var req UpsertProfileRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteErr(w, err)
		return
	}

	p, err := h.service.UpsertProfile(r.Context(), req.toInput())
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}
