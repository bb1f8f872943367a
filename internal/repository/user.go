package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"vidtube/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `
	id, username, password_hashed, display_name, avatar_url, avatar_key,
	banner_url, description, subscriber_count, video_count, created_at, updated_at`

// Create inserts a new user.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, password_hashed, display_name, avatar_url, avatar_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Username, user.PasswordHashed, user.DisplayName, user.AvatarURL, user.AvatarKey,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.ErrUsernameExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err == sql.ErrNoRows {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &user, nil
}

// ExistsByUsername checks whether a username is taken.
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

// GetSummaries returns author projections for a set of users in one query.
func (r *userRepository) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.UserSummary, error) {
	result := make(map[uuid.UUID]model.UserSummary)
	if len(ids) == 0 {
		return result, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	var summaries []model.UserSummary
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT id, username, display_name, avatar_url FROM users WHERE id = ANY($1::uuid[])
	`, pq.Array(strIDs))
	if err != nil {
		return nil, fmt.Errorf("get user summaries: %w", err)
	}

	for _, s := range summaries {
		result[s.ID] = s
	}
	return result, nil
}

// UpdateAvatar stores a new avatar location.
func (r *userRepository) UpdateAvatar(ctx context.Context, userID uuid.UUID, url, key string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET avatar_url = $1, avatar_key = $2, updated_at = NOW() WHERE id = $3
	`, url, key, userID)
	if err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// IncrementSubscriberCount atomically updates the subscriber_count.
func (r *userRepository) IncrementSubscriberCount(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET subscriber_count = subscriber_count + $1 WHERE id = $2`, delta, userID)
	if err != nil {
		return fmt.Errorf("update subscriber count: %w", err)
	}
	return nil
}

// IncrementVideoCount atomically updates the video_count.
func (r *userRepository) IncrementVideoCount(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET video_count = video_count + $1 WHERE id = $2`, delta, userID)
	if err != nil {
		return fmt.Errorf("update video count: %w", err)
	}
	return nil
}
