package recommendation

import (
	"net/http"

	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
)

// Handler serves POST /recommendations.
type Handler struct {
	service    *Service
	dispatcher *Dispatcher
}

// NewHandler builds a Handler.
func NewHandler(service *Service, dispatcher *Dispatcher) *Handler {
	return &Handler{service: service, dispatcher: dispatcher}
}

// ForwardedScopes are the scopes the caller's token needs at the activity and
// profile services, since that token is forwarded to them.
var ForwardedScopes = []string{auth.ScopeActivitiesRead, auth.ScopeProfilesRead}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, guard auth.Middleware) {
	mux.HandleFunc("POST /recommendations", guard.Require(guard.RequireAll(h.recommend, ForwardedScopes...), auth.ScopeRecommendationsRead))
	mux.HandleFunc("GET /healthz", httpx.Healthz)
}

func (h *Handler) recommend(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteErr(w, err)
		return
	}

	rec, err := h.service.Recommend(r.Context(), req)
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, rec)
	_ = http.NewResponseController(w).Flush()

	h.dispatcher.Dispatch(r.Context(), req.UserID, *rec)
}
