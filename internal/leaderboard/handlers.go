package leaderboard

import (
	"net/http"
	"strconv"

	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
)

// Handler serves the leaderboard read endpoints.
type Handler struct {
	board *Board
}

// NewHandler builds a Handler.
func NewHandler(board *Board) *Handler {
	return &Handler{board: board}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, guard auth.Middleware) {
	mux.HandleFunc("GET /leaderboards/weekly", guard.Require(h.weekly, auth.ScopeLeaderboardsRead))
	mux.HandleFunc("GET /leaderboards/weekly/{userId}", guard.Require(h.userRank, auth.ScopeLeaderboardsRead))
}

func (h *Handler) weekly(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", DefaultPageSize)
	offset := intParam(r, "offset", 0)

	page, err := h.board.Top(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) userRank(w http.ResponseWriter, r *http.Request) {
	entry, err := h.board.Rank(r.Context(), r.PathValue("userId"))
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entry)
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
