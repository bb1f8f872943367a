package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vidtube/internal/httputil"
	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/service"
	"vidtube/internal/transport/http/middleware"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// Subscribe handles POST /channels/:id/subscribe
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	creatorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid channel ID")
		return
	}

	if err := h.subscriptionService.Subscribe(r.Context(), userID, creatorID); err != nil {
		switch {
		case errors.Is(err, model.ErrSelfSubscription):
			httputil.WriteBadRequest(w, "You cannot subscribe to yourself")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "Channel not found")
		case errors.Is(err, model.ErrAlreadySubscribed):
			httputil.WriteConflict(w, "Already subscribed to this channel")
		default:
			log.Printf("[ERROR] Subscribe handler: user=%s channel=%s err=%v", userID, creatorID, err)
			httputil.WriteInternalError(w, "Failed to subscribe")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Subscribed successfully",
	})
}

// Unsubscribe handles DELETE /channels/:id/subscribe
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	creatorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid channel ID")
		return
	}

	if err := h.subscriptionService.Unsubscribe(r.Context(), userID, creatorID); err != nil {
		switch {
		case errors.Is(err, model.ErrNotSubscribed):
			httputil.WriteNotFound(w, "Not subscribed to this channel")
		default:
			log.Printf("[ERROR] Unsubscribe handler: user=%s channel=%s err=%v", userID, creatorID, err)
			httputil.WriteInternalError(w, "Failed to unsubscribe")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Unsubscribed successfully",
	})
}

// ListSubscribers handles GET /channels/:id/subscribers
// Subscribers are ordered by subscription recency, so the cursor here is the
// subscribed-at timestamp rather than an opaque keyset token.
func (h *SubscriptionHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	creatorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid channel ID")
		return
	}

	var cursor *time.Time
	if c := r.URL.Query().Get("cursor"); c != "" {
		parsed, err := time.Parse(time.RFC3339Nano, c)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid cursor")
			return
		}
		cursor = &parsed
	}

	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid limit parameter")
		return
	}

	resp, err := h.subscriptionService.GetSubscribers(r.Context(), creatorID, cursor, limit)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidLimit) {
			httputil.WriteBadRequest(w, "Limit must be between 1 and 100")
			return
		}
		log.Printf("[ERROR] List subscribers handler: channel=%s err=%v", creatorID, err)
		httputil.WriteInternalError(w, "Failed to list subscribers")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
