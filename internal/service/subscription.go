package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vidtube/internal/model"
	"vidtube/internal/queue"
	"vidtube/internal/repository"
)

type SubscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	userRepo         repository.UserRepository
	db               *sqlx.DB
	publisher        queue.Publisher
}

func NewSubscriptionService(
	subscriptionRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		db:               db,
		publisher:        publisher,
	}
}

// Subscribe adds a subscription and publishes an event to backfill the
// viewer's feed with the creator's recent videos.
func (s *SubscriptionService) Subscribe(ctx context.Context, viewerID, creatorID uuid.UUID) error {
	if viewerID == creatorID {
		return model.ErrSelfSubscription
	}

	_, err := s.userRepo.GetByID(ctx, creatorID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.subscriptionRepo.Create(ctx, tx, viewerID, creatorID)
	if err != nil {
		return err
	}

	if !inserted {
		return model.ErrAlreadySubscribed
	}

	if err := s.userRepo.IncrementSubscriberCount(ctx, tx, creatorID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	// Publish event for async backfill (after commit!)
	if s.publisher != nil {
		event := queue.NewUserSubscribedEvent(viewerID, creatorID)
		msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
		if err != nil {
			log.Printf("[SubscriptionService] Failed to publish UserSubscribed event: viewer=%s creator=%s err=%v",
				viewerID, creatorID, err)
		} else {
			log.Printf("[SubscriptionService] Published UserSubscribed: viewer=%s creator=%s msgID=%s",
				viewerID, creatorID, msgID)
		}
	}

	return nil
}

// Unsubscribe removes a subscription and publishes an event to clear the
// creator's videos from the viewer's feed.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, viewerID, creatorID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.subscriptionRepo.Delete(ctx, tx, viewerID, creatorID); err != nil {
		return err
	}

	if err := s.userRepo.IncrementSubscriberCount(ctx, tx, creatorID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	// Publish event for async removal (after commit!)
	if s.publisher != nil {
		event := queue.NewUserUnsubscribedEvent(viewerID, creatorID)
		msgID, err := s.publisher.Publish(ctx, queue.StreamFeed, event)
		if err != nil {
			log.Printf("[SubscriptionService] Failed to publish UserUnsubscribed event: viewer=%s creator=%s err=%v",
				viewerID, creatorID, err)
		} else {
			log.Printf("[SubscriptionService] Published UserUnsubscribed: viewer=%s creator=%s msgID=%s",
				viewerID, creatorID, msgID)
		}
	}

	return nil
}

// GetSubscribers retrieves a channel's subscribers, newest first, with
// created_at cursor pagination: limit+1 rows are fetched and the last
// returned row's timestamp becomes the next cursor.
func (s *SubscriptionService) GetSubscribers(ctx context.Context, creatorID uuid.UUID, cursor *time.Time, limit int) (*model.SubscriptionListResponse, error) {
	users, nextCursor, err := s.subscriptionRepo.GetSubscribers(ctx, creatorID, cursor, limit)
	if err != nil {
		return nil, err
	}

	var nextCursorStr *string
	if nextCursor != nil {
		str := nextCursor.Format(time.RFC3339Nano)
		nextCursorStr = &str
	}

	return &model.SubscriptionListResponse{
		Users:      users,
		NextCursor: nextCursorStr,
		HasMore:    nextCursor != nil,
	}, nil
}
