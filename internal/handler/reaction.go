package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vidtube/internal/httputil"
	"vidtube/internal/model"
	"vidtube/internal/service"
	"vidtube/internal/transport/http/middleware"
)

type ReactionHandler struct {
	reactionService *service.ReactionService
}

func NewReactionHandler(reactionService *service.ReactionService) *ReactionHandler {
	return &ReactionHandler{
		reactionService: reactionService,
	}
}

// ReactToVideo handles PUT /videos/:id/reaction
// Sets or switches the authenticated user's reaction on a video.
func (h *ReactionHandler) ReactToVideo(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid video ID")
		return
	}

	var req model.ReactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	counts, err := h.reactionService.ReactToVideo(r.Context(), videoID, userID, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidReaction):
			httputil.WriteBadRequest(w, "Reaction must be like or dislike")
		case errors.Is(err, model.ErrVideoNotFound):
			httputil.WriteNotFound(w, "Video not found")
		default:
			log.Printf("[ERROR] React to video handler: user=%s video=%s err=%v", userID, videoID, err)
			httputil.WriteInternalError(w, "Failed to set reaction")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, counts)
}

// RemoveVideoReaction handles DELETE /videos/:id/reaction
func (h *ReactionHandler) RemoveVideoReaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid video ID")
		return
	}

	counts, err := h.reactionService.RemoveVideoReaction(r.Context(), videoID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoReaction):
			httputil.WriteNotFound(w, "No reaction to remove")
		case errors.Is(err, model.ErrVideoNotFound):
			httputil.WriteNotFound(w, "Video not found")
		default:
			log.Printf("[ERROR] Remove video reaction handler: user=%s video=%s err=%v", userID, videoID, err)
			httputil.WriteInternalError(w, "Failed to remove reaction")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, counts)
}

// ReactToComment handles PUT /comments/:commentId/reaction
func (h *ReactionHandler) ReactToComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, err := uuid.Parse(chi.URLParam(r, "commentId"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	var req model.ReactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	counts, err := h.reactionService.ReactToComment(r.Context(), commentID, userID, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidReaction):
			httputil.WriteBadRequest(w, "Reaction must be like or dislike")
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		default:
			log.Printf("[ERROR] React to comment handler: user=%s comment=%s err=%v", userID, commentID, err)
			httputil.WriteInternalError(w, "Failed to set reaction")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, counts)
}

// RemoveCommentReaction handles DELETE /comments/:commentId/reaction
func (h *ReactionHandler) RemoveCommentReaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, err := uuid.Parse(chi.URLParam(r, "commentId"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	counts, err := h.reactionService.RemoveCommentReaction(r.Context(), commentID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoReaction):
			httputil.WriteNotFound(w, "No reaction to remove")
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		default:
			log.Printf("[ERROR] Remove comment reaction handler: user=%s comment=%s err=%v", userID, commentID, err)
			httputil.WriteInternalError(w, "Failed to remove reaction")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, counts)
}
