package coordination

import (
	"net/http"

	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
)

// Handler serves POST /activities/coordinate.
type Handler struct {
	coordinator *Coordinator
}

// NewHandler builds a Handler.
func NewHandler(coordinator *Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, guard auth.Middleware) {
	mux.HandleFunc("POST /activities/coordinate", guard.Require(guard.RequireAll(h.coordinate, auth.ScopeProfilesRead), auth.ScopeActivitiesWrite))
}

func (h *Handler) coordinate(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteErr(w, err)
		return
	}

	record, err := h.coordinator.LogActivity(r.Context(), req)
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, record)
}
