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
	"vidtube/internal/pagination"
	"vidtube/internal/service"
	"vidtube/internal/transport/http/middleware"
)

type VideoHandler struct {
	videoService *service.VideoService
}

func NewVideoHandler(videoService *service.VideoService) *VideoHandler {
	return &VideoHandler{
		videoService: videoService,
	}
}

// Create handles POST /videos
// Creates a video draft and returns a presigned upload URL for the source file.
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.videoService.Create(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTitleRequired):
			httputil.WriteBadRequest(w, "Video title is required")
		case errors.Is(err, model.ErrTitleTooLong):
			httputil.WriteBadRequest(w, "Video title too long")
		case errors.Is(err, model.ErrDescriptionTooLong):
			httputil.WriteBadRequest(w, "Video description too long")
		case errors.Is(err, model.ErrInvalidVisibility):
			httputil.WriteBadRequest(w, "Visibility must be public or private")
		case errors.Is(err, model.ErrCategoryNotFound):
			httputil.WriteBadRequest(w, "Unknown category")
		default:
			log.Printf("[ERROR] Create video handler: user=%s err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to create video")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// Watch handles GET /videos/:id
// Returns the video for playback and counts the view. Optional auth.
func (h *VideoHandler) Watch(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid video ID")
		return
	}

	viewerID := middleware.ViewerFromContext(r.Context())

	video, err := h.videoService.Watch(r.Context(), videoID, viewerID)
	if err != nil {
		if errors.Is(err, model.ErrVideoNotFound) {
			httputil.WriteNotFound(w, "Video not found")
			return
		}
		log.Printf("[ERROR] Watch handler: video=%s err=%v", videoID, err)
		httputil.WriteInternalError(w, "Failed to get video")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, video)
}

// Get handles GET /studio/videos/:id
// Returns the owner's view of a video for the edit page.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	video, err := h.videoService.GetByID(r.Context(), videoID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrVideoNotFound):
			httputil.WriteNotFound(w, "Video not found")
		case errors.Is(err, model.ErrNotVideoOwner):
			httputil.WriteForbidden(w, "You can only view your own videos here")
		default:
			log.Printf("[ERROR] Get video handler: video=%s err=%v", videoID, err)
			httputil.WriteInternalError(w, "Failed to get video")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, video)
}

// Update handles PATCH /videos/:id
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req model.UpdateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	video, err := h.videoService.UpdateMetadata(r.Context(), videoID, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrVideoNotFound):
			httputil.WriteNotFound(w, "Video not found")
		case errors.Is(err, model.ErrNotVideoOwner):
			httputil.WriteForbidden(w, "You can only edit your own videos")
		case errors.Is(err, model.ErrTitleRequired):
			httputil.WriteBadRequest(w, "Video title is required")
		case errors.Is(err, model.ErrTitleTooLong):
			httputil.WriteBadRequest(w, "Video title too long")
		case errors.Is(err, model.ErrDescriptionTooLong):
			httputil.WriteBadRequest(w, "Video description too long")
		case errors.Is(err, model.ErrInvalidVisibility):
			httputil.WriteBadRequest(w, "Visibility must be public or private")
		case errors.Is(err, model.ErrCategoryNotFound):
			httputil.WriteBadRequest(w, "Unknown category")
		default:
			log.Printf("[ERROR] Update video handler: video=%s user=%s err=%v", videoID, userID, err)
			httputil.WriteInternalError(w, "Failed to update video")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, video)
}

// Delete handles DELETE /videos/:id
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.videoService.Delete(r.Context(), videoID, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrVideoNotFound):
			httputil.WriteNotFound(w, "Video not found")
		case errors.Is(err, model.ErrNotVideoOwner):
			httputil.WriteForbidden(w, "You can only delete your own videos")
		default:
			log.Printf("[ERROR] Delete video handler: video=%s user=%s err=%v", videoID, userID, err)
			httputil.WriteInternalError(w, "Failed to delete video")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Video deleted successfully",
	})
}

// ListStudio handles GET /studio/videos
// Returns one page of the authenticated owner's videos.
func (h *VideoHandler) ListStudio(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	cursor, limit, err := parsePageParams(r)
	if err != nil {
		writePageParamError(w, err)
		return
	}

	resp, err := h.videoService.ListStudio(r.Context(), userID, cursor, limit)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidLimit) {
			httputil.WriteBadRequest(w, "Limit must be between 1 and 100")
			return
		}
		log.Printf("[ERROR] List studio handler: user=%s err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to list videos")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// ListSuggestions handles GET /videos/:id/suggestions
// Returns one page of videos related to the one being watched.
func (h *VideoHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid video ID")
		return
	}

	cursor, limit, err := parsePageParams(r)
	if err != nil {
		writePageParamError(w, err)
		return
	}

	resp, err := h.videoService.ListSuggestions(r.Context(), videoID, cursor, limit)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrVideoNotFound):
			httputil.WriteNotFound(w, "Video not found")
		case errors.Is(err, pagination.ErrInvalidLimit):
			httputil.WriteBadRequest(w, "Limit must be between 1 and 100")
		default:
			log.Printf("[ERROR] List suggestions handler: video=%s err=%v", videoID, err)
			httputil.WriteInternalError(w, "Failed to list suggestions")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// generateRequest is the request body for AI generation jobs.
type generateRequest struct {
	Kind   string `json:"kind"`
	Prompt string `json:"prompt"`
}

// Generate handles POST /studio/videos/:id/generate
// Enqueues an AI generation job for the owner's video.
func (h *VideoHandler) Generate(w http.ResponseWriter, r *http.Request) {
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

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.videoService.RequestGeneration(r.Context(), videoID, userID, req.Kind, req.Prompt); err != nil {
		switch {
		case errors.Is(err, model.ErrVideoNotFound):
			httputil.WriteNotFound(w, "Video not found")
		case errors.Is(err, model.ErrNotVideoOwner):
			httputil.WriteForbidden(w, "You can only generate content for your own videos")
		case errors.Is(err, service.ErrUnknownGenerationKind):
			httputil.WriteBadRequest(w, "Kind must be title, description or thumbnail")
		default:
			log.Printf("[ERROR] Generate handler: video=%s user=%s err=%v", videoID, userID, err)
			httputil.WriteInternalError(w, "Failed to enqueue generation job")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "Generation job queued",
	})
}

// writePageParamError maps pagination parse failures to client errors.
func writePageParamError(w http.ResponseWriter, err error) {
	if errors.Is(err, pagination.ErrInvalidCursor) {
		httputil.WriteBadRequest(w, "Invalid cursor")
		return
	}
	httputil.WriteBadRequest(w, "Invalid limit parameter")
}
