package handler

import (
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

type UserHandler struct {
	userService  *service.UserService
	mediaService *service.MediaService
}

func NewUserHandler(userService *service.UserService, mediaService *service.MediaService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		mediaService: mediaService,
	}
}

// GetChannel handles GET /channels/:id
// Returns the channel page with the viewer's subscription state. Optional auth.
func (h *UserHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	channelID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid channel ID")
		return
	}

	viewerID := middleware.ViewerFromContext(r.Context())

	channel, err := h.userService.GetChannel(r.Context(), channelID, viewerID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "Channel not found")
			return
		}
		log.Printf("[ERROR] Get channel handler: channel=%s err=%v", channelID, err)
		httputil.WriteInternalError(w, "Failed to get channel")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, channel)
}

// UploadAvatar handles PUT /me/avatar
// Accepts a multipart image, resizes it and stores it as the user's avatar.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "Avatar file is required")
		return
	}
	defer file.Close()

	upload, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Avatar exceeds 2MB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, webp")
		default:
			log.Printf("[ERROR] Upload avatar handler: user=%s err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to upload avatar")
		}
		return
	}

	if err := h.userService.UpdateAvatar(r.Context(), userID, upload.URL, upload.Key); err != nil {
		log.Printf("[ERROR] Store avatar handler: user=%s err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to store avatar")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, upload)
}
