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

type MediaHandler struct {
	mediaService *service.MediaService
	videoService *service.VideoService
}

func NewMediaHandler(mediaService *service.MediaService, videoService *service.VideoService) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		videoService: videoService,
	}
}

// UploadThumbnail handles PUT /studio/videos/:id/thumbnail
// Accepts a multipart image, resizes it to 1280x720 and sets it as the
// video's thumbnail.
func (h *MediaHandler) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
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

	maxFormSize := int64(model.MaxThumbnailSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		httputil.WriteBadRequest(w, "Thumbnail file is required")
		return
	}
	defer file.Close()

	upload, err := h.mediaService.UploadThumbnail(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Thumbnail exceeds 5MB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, webp")
		default:
			log.Printf("[ERROR] Upload thumbnail handler: user=%s video=%s err=%v", userID, videoID, err)
			httputil.WriteInternalError(w, "Failed to upload thumbnail")
		}
		return
	}

	if err := h.videoService.SetThumbnail(r.Context(), videoID, userID, upload.URL, upload.Key); err != nil {
		switch {
		case errors.Is(err, model.ErrVideoNotFound):
			httputil.WriteNotFound(w, "Video not found")
		case errors.Is(err, model.ErrNotVideoOwner):
			httputil.WriteForbidden(w, "You can only change your own video's thumbnail")
		default:
			log.Printf("[ERROR] Set thumbnail handler: user=%s video=%s err=%v", userID, videoID, err)
			httputil.WriteInternalError(w, "Failed to set thumbnail")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, upload)
}
