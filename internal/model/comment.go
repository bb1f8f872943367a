package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Comment represents a comment on a video. The reply tree is exactly two
// levels deep: a top-level comment and a flat list of replies. Replies to
// replies are rejected at write time.
type Comment struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	VideoID      uuid.UUID  `db:"video_id" json:"video_id"`
	UserID       uuid.UUID  `db:"user_id" json:"-"`
	ParentID     *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	Content      string     `db:"content" json:"content"`
	LikeCount    int64      `db:"like_count" json:"like_count"`
	DislikeCount int64      `db:"dislike_count" json:"dislike_count"`
	ReplyCount   int64      `db:"reply_count" json:"reply_count"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	// Joined fields
	Author         *UserSummary `json:"author,omitempty"`
	ViewerReaction *string      `json:"viewer_reaction,omitempty"`
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Content  string     `json:"content"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// UpdateCommentRequest is the request body for editing a comment.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// CommentListResponse is the paginated comment list response. TotalCount is
// an independent aggregate over the same filter; it is not transactionally
// consistent with the page items.
type CommentListResponse struct {
	Comments   []Comment `json:"comments"`
	NextCursor *string   `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
	TotalCount int64     `json:"total_count"`
}

// Comment constraints
const (
	MaxCommentLength = 5000
)

// Comment errors
var (
	ErrCommentNotFound    = errors.New("comment not found")
	ErrNotCommentOwner    = errors.New("not the owner of this comment")
	ErrContentRequired    = errors.New("comment content is required")
	ErrContentTooLong     = errors.New("comment content too long")
	ErrReplyDepthExceeded = errors.New("replies to replies are not allowed")
	ErrParentWrongVideo   = errors.New("parent comment belongs to a different video")
)
