package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Video visibility values
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Video pipeline status values, mirroring the external processing pipeline.
const (
	VideoStatusWaiting   = "waiting"
	VideoStatusPreparing = "preparing"
	VideoStatusReady     = "ready"
	VideoStatusErrored   = "errored"
)

// Video represents an uploaded video and its processing state.
// UpdatedAt is the pagination sort key: it is bumped on every mutation that
// should re-sort the video to the top of its collection (metadata edits,
// pipeline transitions), but not on view or reaction counting.
type Video struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	Title        string     `db:"title" json:"title"`
	Description  *string    `db:"description" json:"description"`
	CategoryID   *uuid.UUID `db:"category_id" json:"category_id"`
	Visibility   string     `db:"visibility" json:"visibility"`
	AssetID      *string    `db:"asset_id" json:"-"`
	UploadID     *string    `db:"upload_id" json:"-"`
	PlaybackID   *string    `db:"playback_id" json:"playback_id"`
	Status       string     `db:"status" json:"status"`
	DurationMS   *int64     `db:"duration_ms" json:"duration_ms"`
	ThumbnailURL *string    `db:"thumbnail_url" json:"thumbnail_url"`
	ThumbnailKey *string    `db:"thumbnail_key" json:"-"`
	PreviewURL   *string    `db:"preview_url" json:"preview_url"`
	ViewCount    int64      `db:"view_count" json:"view_count"`
	LikeCount    int64      `db:"like_count" json:"like_count"`
	DislikeCount int64      `db:"dislike_count" json:"dislike_count"`
	CommentCount int64      `db:"comment_count" json:"comment_count"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	// Joined fields (not columns of the videos table)
	Author         *UserSummary `json:"author,omitempty"`
	ViewerReaction *string      `json:"viewer_reaction,omitempty"`
}

// CreateVideoRequest is the request body for creating a video draft.
// The actual bytes go directly to storage via a presigned upload; the
// pipeline webhook fills in playback details later.
type CreateVideoRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Visibility  string     `json:"visibility"`
}

// UpdateVideoRequest is the request body for editing video metadata.
// Nil fields are left unchanged.
type UpdateVideoRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Visibility  *string    `json:"visibility"`
}

// VideoListResponse is the paginated video list response, used by both the
// studio listing and suggestions.
type VideoListResponse struct {
	Videos     []Video `json:"videos"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// Video constraints
const (
	MaxVideoTitleLength       = 100
	MaxVideoDescriptionLength = 5000
)

// IsValidVisibility reports whether v is a known visibility value.
func IsValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Video errors
var (
	ErrVideoNotFound      = errors.New("video not found")
	ErrNotVideoOwner      = errors.New("not the owner of this video")
	ErrTitleRequired      = errors.New("video title is required")
	ErrTitleTooLong       = errors.New("video title too long")
	ErrDescriptionTooLong = errors.New("video description too long")
	ErrInvalidVisibility  = errors.New("invalid visibility value")
	ErrVideoNotReady      = errors.New("video is not ready for playback")
)
