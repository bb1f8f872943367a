package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"vidtube/internal/model"
	"vidtube/internal/pagination"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

const commentColumns = `
	id, video_id, user_id, parent_id, content,
	like_count, dislike_count, reply_count, created_at, updated_at`

func commentCursor(c model.Comment) pagination.Cursor {
	return pagination.Cursor{ID: c.ID, UpdatedAt: c.UpdatedAt}
}

// Create inserts a comment inside the caller's transaction. Reply depth is
// enforced at the service layer before this is reached.
func (r *commentRepository) Create(ctx context.Context, tx *sqlx.Tx, videoID, userID uuid.UUID, content string, parentID *uuid.UUID) (*model.Comment, error) {
	query := `
		INSERT INTO comments (id, video_id, user_id, content, parent_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + commentColumns + `
	`
	var comment model.Comment
	err := tx.GetContext(ctx, &comment, query, uuid.New(), videoID, userID, content, parentID)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

// Update edits a comment's content. Only the owner can update; the edit bumps
// updated_at, re-sorting the comment to the top of its listing.
func (r *commentRepository) Update(ctx context.Context, commentID, userID uuid.UUID, content string) (*model.Comment, error) {
	query := `
		UPDATE comments
		SET content = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING ` + commentColumns + `
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, content, commentID, userID)
	if err == sql.ErrNoRows {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID)
		if exists {
			return nil, model.ErrNotCommentOwner
		}
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return &comment, nil
}

// Delete removes a comment and its replies (ON DELETE CASCADE). Returns the
// owning video id and the total number of removed rows for counter decrement.
func (r *commentRepository) Delete(ctx context.Context, tx *sqlx.Tx, commentID, userID uuid.UUID) (uuid.UUID, int64, error) {
	var comment struct {
		VideoID uuid.UUID `db:"video_id"`
		UserID  uuid.UUID `db:"user_id"`
	}
	err := tx.GetContext(ctx, &comment, `SELECT video_id, user_id FROM comments WHERE id = $1`, commentID)
	if err == sql.ErrNoRows {
		return uuid.Nil, 0, model.ErrCommentNotFound
	}
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("get comment: %w", err)
	}

	if comment.UserID != userID {
		return uuid.Nil, 0, model.ErrNotCommentOwner
	}

	// Count before the delete; the cascade removes the replies with it.
	var deletedCount int64
	err = tx.GetContext(ctx, &deletedCount, `
		SELECT COUNT(*) FROM comments WHERE id = $1 OR parent_id = $1
	`, commentID)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("count comments to delete: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID); err != nil {
		return uuid.Nil, 0, fmt.Errorf("delete comment: %w", err)
	}

	return comment.VideoID, deletedCount, nil
}

// GetByID retrieves a single comment.
func (r *commentRepository) GetByID(ctx context.Context, commentID uuid.UUID) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// ListByVideo pages through one video's comments with the author joined in.
// parentID nil selects top-level comments; non-nil selects that comment's
// replies. Both variants share the same cursor predicate and window logic.
func (r *commentRepository) ListByVideo(ctx context.Context, videoID uuid.UUID, parentID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Comment, *pagination.Cursor, bool, error) {
	query := `
		SELECT c.id, c.video_id, c.user_id, c.parent_id, c.content,
		       c.like_count, c.dislike_count, c.reply_count, c.created_at, c.updated_at,
		       u.id AS "author.id", u.username AS "author.username",
		       u.display_name AS "author.display_name", u.avatar_url AS "author.avatar_url"
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.video_id = $1
	`
	args := []interface{}{videoID}

	if parentID == nil {
		query += " AND c.parent_id IS NULL"
	} else {
		args = append(args, *parentID)
		query += fmt.Sprintf(" AND c.parent_id = $%d", len(args))
	}
	if cursor != nil {
		args = append(args, cursor.UpdatedAt, cursor.ID)
		query += fmt.Sprintf(" AND (c.updated_at, c.id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY c.updated_at DESC, c.id DESC LIMIT $%d", len(args))

	type commentRow struct {
		model.Comment
		AuthorID       uuid.UUID `db:"author.id"`
		AuthorUsername string    `db:"author.username"`
		AuthorDisplay  *string   `db:"author.display_name"`
		AuthorAvatar   *string   `db:"author.avatar_url"`
	}

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, nil, false, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		c := row.Comment
		c.Author = &model.UserSummary{
			ID:          row.AuthorID,
			Username:    row.AuthorUsername,
			DisplayName: row.AuthorDisplay,
			AvatarURL:   row.AuthorAvatar,
		}
		comments[i] = c
	}

	items, next, hasMore := pagination.Window(comments, limit, commentCursor)
	return items, next, hasMore, nil
}

// Count is the filter-scoped aggregate for the same listing. It runs as an
// independent query without the cursor predicate, so it is only eventually
// consistent with a page fetched alongside it.
func (r *commentRepository) Count(ctx context.Context, videoID uuid.UUID, parentID *uuid.UUID) (int64, error) {
	var count int64
	var err error
	if parentID == nil {
		err = r.db.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM comments WHERE video_id = $1 AND parent_id IS NULL`, videoID)
	} else {
		err = r.db.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM comments WHERE video_id = $1 AND parent_id = $2`, videoID, *parentID)
	}
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return count, nil
}

// IncrementReplyCount atomically updates the reply_count on a parent comment.
// updated_at is untouched: someone replying must not re-sort the parent.
func (r *commentRepository) IncrementReplyCount(ctx context.Context, tx *sqlx.Tx, commentID uuid.UUID, delta int) error {
	result, err := tx.ExecContext(ctx, `UPDATE comments SET reply_count = reply_count + $1 WHERE id = $2`, delta, commentID)
	if err != nil {
		return fmt.Errorf("update reply count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrCommentNotFound
	}
	return nil
}

// UpsertReaction sets the viewer's reaction and returns the previous one.
func (r *commentRepository) UpsertReaction(ctx context.Context, tx *sqlx.Tx, commentID, userID uuid.UUID, reaction string) (*string, error) {
	var prev sql.NullString
	err := tx.GetContext(ctx, &prev, `
		SELECT reaction FROM comment_reactions WHERE comment_id = $1 AND user_id = $2
	`, commentID, userID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("get previous reaction: %w", err)
	}
	var previous *string
	if prev.Valid {
		previous = &prev.String
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO comment_reactions (comment_id, user_id, reaction)
		VALUES ($1, $2, $3)
		ON CONFLICT (comment_id, user_id) DO UPDATE SET reaction = EXCLUDED.reaction
	`, commentID, userID, reaction)
	if err != nil {
		return nil, fmt.Errorf("upsert reaction: %w", err)
	}
	return previous, nil
}

// DeleteReaction removes the viewer's reaction, returning what it was.
func (r *commentRepository) DeleteReaction(ctx context.Context, tx *sqlx.Tx, commentID, userID uuid.UUID) (string, error) {
	var previous string
	err := tx.GetContext(ctx, &previous, `
		DELETE FROM comment_reactions WHERE comment_id = $1 AND user_id = $2 RETURNING reaction
	`, commentID, userID)
	if err == sql.ErrNoRows {
		return "", model.ErrNoReaction
	}
	if err != nil {
		return "", fmt.Errorf("delete reaction: %w", err)
	}
	return previous, nil
}

// AdjustReactionCounts applies like/dislike counter deltas without touching
// updated_at.
func (r *commentRepository) AdjustReactionCounts(ctx context.Context, tx *sqlx.Tx, commentID uuid.UUID, likeDelta, dislikeDelta int) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE comments SET like_count = like_count + $1, dislike_count = dislike_count + $2
		WHERE id = $3
	`, likeDelta, dislikeDelta, commentID)
	if err != nil {
		return fmt.Errorf("adjust reaction counts: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrCommentNotFound
	}
	return nil
}

// GetReactions returns the viewer's reactions to a set of comments, for
// hydrating listings.
func (r *commentRepository) GetReactions(ctx context.Context, userID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	result := make(map[uuid.UUID]string)
	if len(commentIDs) == 0 {
		return result, nil
	}

	ids := make([]string, len(commentIDs))
	for i, id := range commentIDs {
		ids[i] = id.String()
	}

	type row struct {
		CommentID uuid.UUID `db:"comment_id"`
		Reaction  string    `db:"reaction"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, `
		SELECT comment_id, reaction FROM comment_reactions
		WHERE user_id = $1 AND comment_id = ANY($2::uuid[])
	`, userID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get comment reactions: %w", err)
	}

	for _, rr := range rows {
		result[rr.CommentID] = rr.Reaction
	}
	return result, nil
}

// GetCounts returns the current like/dislike counters.
func (r *commentRepository) GetCounts(ctx context.Context, commentID uuid.UUID) (int64, int64, error) {
	var counts struct {
		Likes    int64 `db:"like_count"`
		Dislikes int64 `db:"dislike_count"`
	}
	err := r.db.GetContext(ctx, &counts, `SELECT like_count, dislike_count FROM comments WHERE id = $1`, commentID)
	if err == sql.ErrNoRows {
		return 0, 0, model.ErrCommentNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("get reaction counts: %w", err)
	}
	return counts.Likes, counts.Dislikes, nil
}
