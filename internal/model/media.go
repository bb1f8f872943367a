package model

import "errors"

const (
	MaxThumbnailSizeBytes = 5 * 1024 * 1024 // 5MB
	ThumbnailWidth        = 1280
	ThumbnailHeight       = 720
	ThumbnailFolder       = "thumbnails"
	ThumbnailExt          = ".jpg"
	ThumbnailCacheControl = "public, max-age=31536000" // 1 year

	MaxAvatarSizeBytes = 2 * 1024 * 1024 // 2MB
	AvatarWidth        = 200
	AvatarHeight       = 200
	AvatarFolder       = "avatars"
	AvatarExt          = ".jpg"
	AvatarCacheControl = "public, max-age=31536000"

	VideoSourceFolder = "uploads"
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeWebP: {},
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
)

// Domain errors for media operations
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
)

// UploadResult represents the uploaded object location.
// URL is the public-facing URL; Key is the object key inside the bucket.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignSourceUploadResponse returns upload details for sending raw video
// bytes directly to storage. The external pipeline picks the object up from
// there; its progress arrives through the webhook.
type PresignSourceUploadResponse struct {
	UploadURL  string `json:"upload_url"`
	UploadID   string `json:"upload_id"`
	Key        string `json:"key"`
	ExpiresInS int    `json:"expires_in"`
}

// IsAllowedImageType reports if the provided content type is supported.
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
