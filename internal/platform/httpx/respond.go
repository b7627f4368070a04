package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/garrikyx/FItflow/internal/platform/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

// WriteJSON encodes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes an ErrorBody.
func WriteError(w http.ResponseWriter, status int, code, detail string) {
	WriteJSON(w, status, ErrorBody{Type: code, Detail: detail})
}

// WriteErr maps the error taxonomy onto HTTP statuses.
func WriteErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		WriteError(w, http.StatusInternalServerError, "upstream_unavailable", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// Healthz reports a simple OK status for container health checks.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
