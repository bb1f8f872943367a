package handler

import (
	"errors"
	"log"
	"net/http"

	"vidtube/internal/httputil"
	"vidtube/internal/pagination"
	"vidtube/internal/service"
	"vidtube/internal/transport/http/middleware"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

// GetFeed handles GET /feed
// Returns one page of the authenticated user's subscription feed, served
// from the Redis cache with a lazy warm on first access.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid limit parameter")
		return
	}

	resp, err := h.feedService.GetFeed(r.Context(), userID, cursor, limit)
	if err != nil {
		switch {
		case errors.Is(err, pagination.ErrInvalidLimit):
			httputil.WriteBadRequest(w, "Limit must be between 1 and 100")
		case errors.Is(err, service.ErrInvalidFeedCursor):
			httputil.WriteBadRequest(w, "Invalid cursor")
		default:
			log.Printf("[ERROR] Get feed handler: user=%s err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to get feed")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
