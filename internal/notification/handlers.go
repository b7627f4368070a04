package notification

import (
	"errors"
	"net/http"
	"time"

	"github.com/garrikyx/FItflow/internal/platform/auth"
	"github.com/garrikyx/FItflow/internal/platform/events"
	"github.com/garrikyx/FItflow/internal/platform/httpx"
)

// Handler coordinates HTTP requests with the notification service.
type Handler struct {
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, guard auth.Middleware) {
	mux.HandleFunc("POST /notify", guard.Require(h.notify, auth.ScopeNotificationsWrite))
	mux.HandleFunc("POST /notify/calories", guard.Require(h.notifyCalories, auth.ScopeNotificationsWrite))
	mux.HandleFunc("GET /healthz", httpx.Healthz)
}

// NotifyRequest is the payload for POST /notify.
type NotifyRequest struct {
	UserID string         `json:"userId" validate:"required"`
	Title  string         `json:"title" validate:"required"`
	Body   string         `json:"body" validate:"required"`
	Data   map[string]any `json:"data,omitempty"`
}

// NotifyResponse acknowledges a sent notification.
type NotifyResponse struct {
	Success        bool       `json:"success"`
	Message        string     `json:"message"`
	NotificationID string     `json:"notificationId,omitempty"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
}

// CalorieUpdateRequest is the payload for POST /notify/calories.
type CalorieUpdateRequest struct {
	FriendsEmails []string  `json:"friendsEmails" validate:"required,min=1,dive,email"`
	Message       string    `json:"message" validate:"required"`
	Timestamp     time.Time `json:"timestamp"`
}

func (h *Handler) notify(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteErr(w, err)
		return
	}

	receipt, err := h.service.Notify(r.Context(), Notification(req))
	if errors.Is(err, ErrDeliveryFailed) {
		httpx.WriteError(w, http.StatusInternalServerError, "delivery_failed", ErrDeliveryFailed.Error())
		return
	}
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, NotifyResponse{
		Success:        true,
		Message:        "Notification sent successfully",
		NotificationID: receipt.NotificationID,
		SentAt:         &receipt.SentAt,
	})
}

func (h *Handler) notifyCalories(w http.ResponseWriter, r *http.Request) {
	var req CalorieUpdateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteErr(w, err)
		return
	}

	err := h.service.NotifyCalories(r.Context(), events.CalorieUpdate{
		FriendsEmails: req.FriendsEmails,
		Message:       req.Message,
		Timestamp:     req.Timestamp,
	})
	if err != nil {
		httpx.WriteErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, NotifyResponse{Success: true, Message: "Notification sent"})
}
