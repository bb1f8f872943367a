package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vidtube/internal/model"
)

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create inserts a subscription. Returns false without error when the viewer
// was already subscribed.
func (r *subscriptionRepository) Create(ctx context.Context, tx *sqlx.Tx, viewerID, creatorID uuid.UUID) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO subscriptions (viewer_id, creator_id)
		VALUES ($1, $2)
		ON CONFLICT (viewer_id, creator_id) DO NOTHING
	`, viewerID, creatorID)
	if err != nil {
		return false, fmt.Errorf("create subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Delete removes a subscription.
func (r *subscriptionRepository) Delete(ctx context.Context, tx *sqlx.Tx, viewerID, creatorID uuid.UUID) error {
	result, err := tx.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE viewer_id = $1 AND creator_id = $2`, viewerID, creatorID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotSubscribed
	}
	return nil
}

// Exists checks whether the viewer subscribes to the creator.
func (r *subscriptionRepository) Exists(ctx context.Context, viewerID, creatorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM subscriptions WHERE viewer_id = $1 AND creator_id = $2)`,
		viewerID, creatorID)
	if err != nil {
		return false, fmt.Errorf("check subscription existence: %w", err)
	}
	return exists, nil
}

// GetSubscribers lists a channel's subscribers, newest first, paginated by
// subscription time.
func (r *subscriptionRepository) GetSubscribers(ctx context.Context, creatorID uuid.UUID, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT u.id, u.username, u.display_name, u.avatar_url, s.created_at
			FROM subscriptions s
			JOIN users u ON u.id = s.viewer_id
			WHERE s.creator_id = $1
			ORDER BY s.created_at DESC
			LIMIT $2
		`
		args = []interface{}{creatorID, limit + 1}
	} else {
		query = `
			SELECT u.id, u.username, u.display_name, u.avatar_url, s.created_at
			FROM subscriptions s
			JOIN users u ON u.id = s.viewer_id
			WHERE s.creator_id = $1 AND s.created_at < $2
			ORDER BY s.created_at DESC
			LIMIT $3
		`
		args = []interface{}{creatorID, cursor, limit + 1}
	}

	type userWithTime struct {
		model.UserSummary
		CreatedAt time.Time `db:"created_at"`
	}

	var results []userWithTime
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, nil, fmt.Errorf("get subscribers: %w", err)
	}

	var nextCursor *time.Time
	if len(results) > limit {
		results = results[:limit]
		last := results[len(results)-1].CreatedAt
		nextCursor = &last
	}

	users := make([]model.UserSummary, len(results))
	for i, res := range results {
		users[i] = res.UserSummary
	}
	return users, nextCursor, nil
}

// GetSubscriberIDs returns every subscriber of a channel (for feed fan-out).
func (r *subscriptionRepository) GetSubscriberIDs(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids,
		`SELECT viewer_id FROM subscriptions WHERE creator_id = $1`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("get subscriber ids: %w", err)
	}
	return ids, nil
}

// GetCreatorIDs returns every channel a viewer subscribes to.
func (r *subscriptionRepository) GetCreatorIDs(ctx context.Context, viewerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids,
		`SELECT creator_id FROM subscriptions WHERE viewer_id = $1`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("get creator ids: %w", err)
	}
	return ids, nil
}
