package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vidtube/internal/cache"
	"vidtube/internal/model"
	"vidtube/internal/pagination"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// GetSummaries returns author projections for a set of users in one query.
	GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.UserSummary, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, url, key string) error
	IncrementSubscriberCount(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int) error
	IncrementVideoCount(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type VideoRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, video *model.Video) error
	GetByID(ctx context.Context, videoID uuid.UUID) (*model.Video, error)
	GetByIDs(ctx context.Context, videoIDs []uuid.UUID) ([]model.Video, error)
	GetByAssetID(ctx context.Context, assetID string) (*model.Video, error)
	GetByUploadID(ctx context.Context, uploadID string) (*model.Video, error)
	GetAuthorID(ctx context.Context, videoID uuid.UUID) (uuid.UUID, error)
	Exists(ctx context.Context, videoID uuid.UUID) (bool, error)
	// UpdateMetadata edits the owner's video and bumps updated_at. Nil fields
	// stay unchanged.
	UpdateMetadata(ctx context.Context, videoID, userID uuid.UUID, req model.UpdateVideoRequest) (*model.Video, error)
	// SetThumbnail stores a new thumbnail location and bumps updated_at.
	SetThumbnail(ctx context.Context, videoID uuid.UUID, url, key string) error
	// SetGeneratedText writes an AI-generated title or description.
	SetGeneratedText(ctx context.Context, videoID uuid.UUID, column, value string) error
	// ApplyAssetUpdate is the webhook write path: last write wins, keyed by
	// the pipeline asset id.
	ApplyAssetUpdate(ctx context.Context, assetID string, status string, playbackID *string, durationMS *int64, previewURL *string) error
	BindAsset(ctx context.Context, uploadID, assetID string) error
	Delete(ctx context.Context, tx *sqlx.Tx, videoID, userID uuid.UUID) error

	// ListByOwner returns the studio page: all of one owner's videos.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Video, *pagination.Cursor, bool, error)
	// ListSuggestions returns public videos excluding the reference video,
	// optionally narrowed to a category.
	ListSuggestions(ctx context.Context, excludeID uuid.UUID, categoryID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Video, *pagination.Cursor, bool, error)

	IncrementViewCount(ctx context.Context, videoID uuid.UUID) error
	IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, videoID uuid.UUID, delta int) error

	// Reaction methods. Upsert returns the previous reaction, if any, so the
	// service can compute counter deltas.
	UpsertReaction(ctx context.Context, tx *sqlx.Tx, videoID, userID uuid.UUID, reaction string) (previous *string, err error)
	DeleteReaction(ctx context.Context, tx *sqlx.Tx, videoID, userID uuid.UUID) (previous string, err error)
	AdjustReactionCounts(ctx context.Context, tx *sqlx.Tx, videoID uuid.UUID, likeDelta, dislikeDelta int) error
	GetReaction(ctx context.Context, videoID, userID uuid.UUID) (*string, error)
	GetCounts(ctx context.Context, videoID uuid.UUID) (likes, dislikes int64, err error)

	// Feed cache warming helpers
	GetRecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]cache.VideoScore, error)
	GetFeedVideoIDs(ctx context.Context, creatorIDs []uuid.UUID, limit int) ([]cache.VideoScore, error)
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, videoID, userID uuid.UUID, content string, parentID *uuid.UUID) (*model.Comment, error)
	Update(ctx context.Context, commentID, userID uuid.UUID, content string) (*model.Comment, error)
	// Delete removes a comment and its replies (ON DELETE CASCADE), returning
	// the owning video id and how many rows went away for counter decrement.
	Delete(ctx context.Context, tx *sqlx.Tx, commentID, userID uuid.UUID) (videoID uuid.UUID, deletedCount int64, err error)
	GetByID(ctx context.Context, commentID uuid.UUID) (*model.Comment, error)

	// ListByVideo pages through one video's comments. parentID nil selects
	// top-level comments; non-nil selects that comment's replies.
	ListByVideo(ctx context.Context, videoID uuid.UUID, parentID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Comment, *pagination.Cursor, bool, error)
	// Count is the filter-scoped aggregate for the same listing.
	Count(ctx context.Context, videoID uuid.UUID, parentID *uuid.UUID) (int64, error)

	IncrementReplyCount(ctx context.Context, tx *sqlx.Tx, commentID uuid.UUID, delta int) error

	UpsertReaction(ctx context.Context, tx *sqlx.Tx, commentID, userID uuid.UUID, reaction string) (previous *string, err error)
	DeleteReaction(ctx context.Context, tx *sqlx.Tx, commentID, userID uuid.UUID) (previous string, err error)
	AdjustReactionCounts(ctx context.Context, tx *sqlx.Tx, commentID uuid.UUID, likeDelta, dislikeDelta int) error
	GetReactions(ctx context.Context, userID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]string, error)
	GetCounts(ctx context.Context, commentID uuid.UUID) (likes, dislikes int64, err error)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, viewerID, creatorID uuid.UUID) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, viewerID, creatorID uuid.UUID) error
	Exists(ctx context.Context, viewerID, creatorID uuid.UUID) (bool, error)
	GetSubscribers(ctx context.Context, creatorID uuid.UUID, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	GetSubscriberIDs(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error)
	GetCreatorIDs(ctx context.Context, viewerID uuid.UUID) ([]uuid.UUID, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
