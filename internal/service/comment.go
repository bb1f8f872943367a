package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	videoRepo   repository.VideoRepository
	userRepo    repository.UserRepository
	db          *sqlx.DB
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	videoRepo repository.VideoRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		videoRepo:   videoRepo,
		userRepo:    userRepo,
		db:          db,
	}
}

// Create adds a comment to a video. Uses transaction: insert comment +
// increment counters. Replying to a reply is rejected; the tree stays two
// levels deep. Creating a reply does not bump the parent's updated_at, so
// new replies never re-sort the top-level comment listing.
func (s *CommentService) Create(ctx context.Context, videoID, userID uuid.UUID, req model.CreateCommentRequest) (*model.Comment, error) {
	if len(req.Content) == 0 {
		return nil, model.ErrContentRequired
	}
	if len(req.Content) > model.MaxCommentLength {
		return nil, model.ErrContentTooLong
	}

	// Verify video exists
	exists, err := s.videoRepo.Exists(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("check video exists: %w", err)
	}
	if !exists {
		return nil, model.ErrVideoNotFound
	}

	// If parent comment provided, it must exist, belong to the same video,
	// and itself be top-level.
	if req.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err // ErrCommentNotFound or wrapped error
		}
		if parent.VideoID != videoID {
			return nil, model.ErrParentWrongVideo
		}
		if parent.ParentID != nil {
			return nil, model.ErrReplyDepthExceeded
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	comment, err := s.commentRepo.Create(ctx, tx, videoID, userID, req.Content, req.ParentID)
	if err != nil {
		return nil, err
	}

	if err := s.videoRepo.IncrementCommentCount(ctx, tx, videoID, 1); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		if err := s.commentRepo.IncrementReplyCount(ctx, tx, *req.ParentID, 1); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.hydrateAuthor(ctx, comment)

	log.Printf("[CommentService] User %s commented on video %s", userID, videoID)
	return comment, nil
}

// Update updates a comment's content. Edits bump updated_at, which re-sorts
// the comment to the top of its listing.
func (s *CommentService) Update(ctx context.Context, commentID, userID uuid.UUID, req model.UpdateCommentRequest) (*model.Comment, error) {
	if len(req.Content) == 0 {
		return nil, model.ErrContentRequired
	}
	if len(req.Content) > model.MaxCommentLength {
		return nil, model.ErrContentTooLong
	}

	// Repository handles ownership check
	comment, err := s.commentRepo.Update(ctx, commentID, userID, req.Content)
	if err != nil {
		return nil, err
	}

	s.hydrateAuthor(ctx, comment)

	log.Printf("[CommentService] User %s updated comment %s", userID, commentID)
	return comment, nil
}

// Delete removes a comment together with its replies. Uses transaction:
// cascade delete + decrement the video's comment count by everything removed.
func (s *CommentService) Delete(ctx context.Context, commentID, userID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	videoID, deletedCount, err := s.commentRepo.Delete(ctx, tx, commentID, userID)
	if err != nil {
		return err
	}

	if err := s.videoRepo.IncrementCommentCount(ctx, tx, videoID, -int(deletedCount)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[CommentService] User %s deleted comment %s (%d rows) from video %s",
		userID, commentID, deletedCount, videoID)
	return nil
}

// ListByVideo returns one page of a video's comments. parentID nil pages the
// top-level comments; non-nil pages that comment's replies. Top-level
// comments and replies paginate independently; a reply cursor never leaks
// rows from another thread.
func (s *CommentService) ListByVideo(ctx context.Context, videoID uuid.UUID, parentID *uuid.UUID, cursor *pagination.Cursor, limit int, viewerID *uuid.UUID) (*model.CommentListResponse, error) {
	if err := pagination.ValidateLimit(limit); err != nil {
		return nil, err
	}

	exists, err := s.videoRepo.Exists(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("check video exists: %w", err)
	}
	if !exists {
		return nil, model.ErrVideoNotFound
	}

	if parentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.VideoID != videoID {
			return nil, model.ErrParentWrongVideo
		}
	}

	comments, next, hasMore, err := s.commentRepo.ListByVideo(ctx, videoID, parentID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	total, err := s.commentRepo.Count(ctx, videoID, parentID)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	if viewerID != nil && len(comments) > 0 {
		ids := make([]uuid.UUID, len(comments))
		for i, c := range comments {
			ids[i] = c.ID
		}
		reactions, err := s.commentRepo.GetReactions(ctx, *viewerID, ids)
		if err != nil {
			log.Printf("[CommentService] Failed to check reactions: %v", err)
		} else {
			for i := range comments {
				if r, ok := reactions[comments[i].ID]; ok {
					reaction := r
					comments[i].ViewerReaction = &reaction
				}
			}
		}
	}

	return &model.CommentListResponse{
		Comments:   comments,
		NextCursor: cursorToken(next),
		HasMore:    hasMore,
		TotalCount: total,
	}, nil
}

// hydrateAuthor attaches the author summary to a comment, best-effort.
func (s *CommentService) hydrateAuthor(ctx context.Context, comment *model.Comment) {
	author, err := s.userRepo.GetByID(ctx, comment.UserID)
	if err != nil {
		return
	}
	comment.Author = &model.UserSummary{
		ID:          author.ID,
		Username:    author.Username,
		DisplayName: author.DisplayName,
		AvatarURL:   author.AvatarURL,
	}
}
