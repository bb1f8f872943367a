package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vidtube/internal/model"
	"vidtube/internal/repository"
)

// ReactionService handles like/dislike state on videos and comments.
// Setting a reaction replaces any previous one; counter deltas are computed
// from the previous state and applied in the same transaction as the upsert.
// Reactions never bump the target's updated_at, so reacting never re-sorts
// a listing.
type ReactionService struct {
	videoRepo   repository.VideoRepository
	commentRepo repository.CommentRepository
	db          *sqlx.DB
}

func NewReactionService(
	videoRepo repository.VideoRepository,
	commentRepo repository.CommentRepository,
	db *sqlx.DB,
) *ReactionService {
	return &ReactionService{
		videoRepo:   videoRepo,
		commentRepo: commentRepo,
		db:          db,
	}
}

// ReactToVideo sets the viewer's reaction on a video and returns the
// resulting counts for client reconciliation.
func (s *ReactionService) ReactToVideo(ctx context.Context, videoID, userID uuid.UUID, reaction string) (*model.ReactionCounts, error) {
	if !model.IsValidReaction(reaction) {
		return nil, model.ErrInvalidReaction
	}

	exists, err := s.videoRepo.Exists(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("check video exists: %w", err)
	}
	if !exists {
		return nil, model.ErrVideoNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	previous, err := s.videoRepo.UpsertReaction(ctx, tx, videoID, userID, reaction)
	if err != nil {
		return nil, err
	}

	likeDelta, dislikeDelta := reactionDeltas(previous, &reaction)
	if likeDelta != 0 || dislikeDelta != 0 {
		if err := s.videoRepo.AdjustReactionCounts(ctx, tx, videoID, likeDelta, dislikeDelta); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[ReactionService] User %s set %s on video %s", userID, reaction, videoID)

	likes, dislikes, err := s.videoRepo.GetCounts(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get reaction counts: %w", err)
	}
	viewerReaction := reaction
	return &model.ReactionCounts{
		LikeCount:      likes,
		DislikeCount:   dislikes,
		ViewerReaction: &viewerReaction,
	}, nil
}

// RemoveVideoReaction clears the viewer's reaction on a video.
func (s *ReactionService) RemoveVideoReaction(ctx context.Context, videoID, userID uuid.UUID) (*model.ReactionCounts, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	previous, err := s.videoRepo.DeleteReaction(ctx, tx, videoID, userID)
	if err != nil {
		return nil, err
	}

	likeDelta, dislikeDelta := reactionDeltas(&previous, nil)
	if err := s.videoRepo.AdjustReactionCounts(ctx, tx, videoID, likeDelta, dislikeDelta); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	likes, dislikes, err := s.videoRepo.GetCounts(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get reaction counts: %w", err)
	}
	return &model.ReactionCounts{
		LikeCount:    likes,
		DislikeCount: dislikes,
	}, nil
}

// ReactToComment sets the viewer's reaction on a comment.
func (s *ReactionService) ReactToComment(ctx context.Context, commentID, userID uuid.UUID, reaction string) (*model.ReactionCounts, error) {
	if !model.IsValidReaction(reaction) {
		return nil, model.ErrInvalidReaction
	}

	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	previous, err := s.commentRepo.UpsertReaction(ctx, tx, commentID, userID, reaction)
	if err != nil {
		return nil, err
	}

	likeDelta, dislikeDelta := reactionDeltas(previous, &reaction)
	if likeDelta != 0 || dislikeDelta != 0 {
		if err := s.commentRepo.AdjustReactionCounts(ctx, tx, commentID, likeDelta, dislikeDelta); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	likes, dislikes, err := s.commentRepo.GetCounts(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("get reaction counts: %w", err)
	}
	viewerReaction := reaction
	return &model.ReactionCounts{
		LikeCount:      likes,
		DislikeCount:   dislikes,
		ViewerReaction: &viewerReaction,
	}, nil
}

// RemoveCommentReaction clears the viewer's reaction on a comment.
func (s *ReactionService) RemoveCommentReaction(ctx context.Context, commentID, userID uuid.UUID) (*model.ReactionCounts, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	previous, err := s.commentRepo.DeleteReaction(ctx, tx, commentID, userID)
	if err != nil {
		return nil, err
	}

	likeDelta, dislikeDelta := reactionDeltas(&previous, nil)
	if err := s.commentRepo.AdjustReactionCounts(ctx, tx, commentID, likeDelta, dislikeDelta); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	likes, dislikes, err := s.commentRepo.GetCounts(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("get reaction counts: %w", err)
	}
	return &model.ReactionCounts{
		LikeCount:    likes,
		DislikeCount: dislikes,
	}, nil
}

// reactionDeltas computes like/dislike counter deltas for a transition from
// previous to next. Either side may be nil (no reaction).
func reactionDeltas(previous, next *string) (likeDelta, dislikeDelta int) {
	if previous != nil {
		switch *previous {
		case model.ReactionLike:
			likeDelta--
		case model.ReactionDislike:
			dislikeDelta--
		}
	}
	if next != nil {
		switch *next {
		case model.ReactionLike:
			likeDelta++
		case model.ReactionDislike:
			dislikeDelta++
		}
	}
	return likeDelta, dislikeDelta
}
