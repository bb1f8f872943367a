package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"vidtube/internal/cache"
	"vidtube/internal/model"
	"vidtube/internal/pagination"
)

type videoRepository struct {
	db *sqlx.DB
}

func NewVideoRepository(db *sqlx.DB) VideoRepository {
	return &videoRepository{db: db}
}

const videoColumns = `
	id, user_id, title, description, category_id, visibility,
	asset_id, upload_id, playback_id, status, duration_ms,
	thumbnail_url, thumbnail_key, preview_url,
	view_count, like_count, dislike_count, comment_count,
	created_at, updated_at`

func videoCursor(v model.Video) pagination.Cursor {
	return pagination.Cursor{ID: v.ID, UpdatedAt: v.UpdatedAt}
}

// Create inserts a video draft inside the caller's transaction.
func (r *videoRepository) Create(ctx context.Context, tx *sqlx.Tx, video *model.Video) error {
	query := `
		INSERT INTO videos (id, user_id, title, description, category_id, visibility, upload_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := tx.QueryRowxContext(ctx, query,
		video.ID, video.UserID, video.Title, video.Description,
		video.CategoryID, video.Visibility, video.UploadID, video.Status,
	).Scan(&video.CreatedAt, &video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// GetByID retrieves a single video.
func (r *videoRepository) GetByID(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	var video model.Video
	err := r.db.GetContext(ctx, &video, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, videoID)
	if err == sql.ErrNoRows {
		return nil, model.ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return &video, nil
}

// GetByIDs retrieves multiple videos, re-ordered to match the input order.
// Used for hydrating the subscription feed from cache.
func (r *videoRepository) GetByIDs(ctx context.Context, videoIDs []uuid.UUID) ([]model.Video, error) {
	if len(videoIDs) == 0 {
		return []model.Video{}, nil
	}

	ids := make([]string, len(videoIDs))
	for i, id := range videoIDs {
		ids[i] = id.String()
	}

	var videos []model.Video
	err := r.db.SelectContext(ctx, &videos,
		`SELECT `+videoColumns+` FROM videos WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get videos by ids: %w", err)
	}

	byID := make(map[uuid.UUID]model.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}
	ordered := make([]model.Video, 0, len(videoIDs))
	for _, id := range videoIDs {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, v)
		}
	}
	return ordered, nil
}

// GetByAssetID looks a video up by its pipeline asset id (webhook path).
func (r *videoRepository) GetByAssetID(ctx context.Context, assetID string) (*model.Video, error) {
	var video model.Video
	err := r.db.GetContext(ctx, &video, `SELECT `+videoColumns+` FROM videos WHERE asset_id = $1`, assetID)
	if err == sql.ErrNoRows {
		return nil, model.ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video by asset id: %w", err)
	}
	return &video, nil
}

// GetByUploadID looks a video up by its storage upload id (webhook path,
// before the asset id is bound).
func (r *videoRepository) GetByUploadID(ctx context.Context, uploadID string) (*model.Video, error) {
	var video model.Video
	err := r.db.GetContext(ctx, &video, `SELECT `+videoColumns+` FROM videos WHERE upload_id = $1`, uploadID)
	if err == sql.ErrNoRows {
		return nil, model.ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get video by upload id: %w", err)
	}
	return &video, nil
}

// GetAuthorID returns the owner of a video (for event publishing).
func (r *videoRepository) GetAuthorID(ctx context.Context, videoID uuid.UUID) (uuid.UUID, error) {
	var authorID uuid.UUID
	err := r.db.GetContext(ctx, &authorID, `SELECT user_id FROM videos WHERE id = $1`, videoID)
	if err == sql.ErrNoRows {
		return uuid.Nil, model.ErrVideoNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("get author id: %w", err)
	}
	return authorID, nil
}

// Exists checks if a video exists.
func (r *videoRepository) Exists(ctx context.Context, videoID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM videos WHERE id = $1)`, videoID)
	if err != nil {
		return false, fmt.Errorf("check video exists: %w", err)
	}
	return exists, nil
}

// UpdateMetadata edits the owner's video. Nil fields stay unchanged; any
// successful edit bumps updated_at, re-sorting the video to the top of the
// studio listing.
func (r *videoRepository) UpdateMetadata(ctx context.Context, videoID, userID uuid.UUID, req model.UpdateVideoRequest) (*model.Video, error) {
	query := `
		UPDATE videos SET
			title       = COALESCE($1, title),
			description = COALESCE($2, description),
			category_id = COALESCE($3, category_id),
			visibility  = COALESCE($4, visibility),
			updated_at  = NOW()
		WHERE id = $5 AND user_id = $6
		RETURNING ` + videoColumns + `
	`
	var video model.Video
	err := r.db.GetContext(ctx, &video, query,
		req.Title, req.Description, req.CategoryID, req.Visibility, videoID, userID)
	if err == sql.ErrNoRows {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM videos WHERE id = $1)`, videoID)
		if exists {
			return nil, model.ErrNotVideoOwner
		}
		return nil, model.ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}
	return &video, nil
}

// SetThumbnail stores a new thumbnail location and bumps updated_at.
func (r *videoRepository) SetThumbnail(ctx context.Context, videoID uuid.UUID, url, key string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE videos SET thumbnail_url = $1, thumbnail_key = $2, updated_at = NOW()
		WHERE id = $3
	`, url, key, videoID)
	if err != nil {
		return fmt.Errorf("set thumbnail: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrVideoNotFound
	}
	return nil
}

// SetGeneratedText writes an AI-generated title or description.
// column must be "title" or "description"; it is never caller input.
func (r *videoRepository) SetGeneratedText(ctx context.Context, videoID uuid.UUID, column, value string) error {
	if column != "title" && column != "description" {
		return fmt.Errorf("unsupported generated column %q", column)
	}
	query := fmt.Sprintf(`UPDATE videos SET %s = $1, updated_at = NOW() WHERE id = $2`, column)
	result, err := r.db.ExecContext(ctx, query, value, videoID)
	if err != nil {
		return fmt.Errorf("set generated %s: %w", column, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrVideoNotFound
	}
	return nil
}

// ApplyAssetUpdate is the webhook write path. Last write wins: each event
// overwrites the pipeline fields without state validation or ordering checks.
func (r *videoRepository) ApplyAssetUpdate(ctx context.Context, assetID string, status string, playbackID *string, durationMS *int64, previewURL *string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE videos SET
			status      = $1,
			playback_id = COALESCE($2, playback_id),
			duration_ms = COALESCE($3, duration_ms),
			preview_url = COALESCE($4, preview_url),
			updated_at  = NOW()
		WHERE asset_id = $5
	`, status, playbackID, durationMS, previewURL, assetID)
	if err != nil {
		return fmt.Errorf("apply asset update: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrVideoNotFound
	}
	return nil
}

// BindAsset records the pipeline asset id for a pending upload.
func (r *videoRepository) BindAsset(ctx context.Context, uploadID, assetID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE videos SET asset_id = $1, status = $2, updated_at = NOW()
		WHERE upload_id = $3
	`, assetID, model.VideoStatusPreparing, uploadID)
	if err != nil {
		return fmt.Errorf("bind asset: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrVideoNotFound
	}
	return nil
}

// Delete hard-deletes a video; comments and reactions cascade in the DB.
func (r *videoRepository) Delete(ctx context.Context, tx *sqlx.Tx, videoID, userID uuid.UUID) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE id = $1 AND user_id = $2`, videoID, userID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM videos WHERE id = $1)`, videoID)
		if exists {
			return model.ErrNotVideoOwner
		}
		return model.ErrVideoNotFound
	}
	return nil
}

// ListByOwner returns the studio page: all of one owner's videos, newest
// (by updated_at) first. Keyset pagination over (updated_at, id) descending.
func (r *videoRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Video, *pagination.Cursor, bool, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT ` + videoColumns + `
			FROM videos
			WHERE user_id = $1
			ORDER BY updated_at DESC, id DESC
			LIMIT $2
		`
		args = []interface{}{ownerID, limit + 1}
	} else {
		query = `
			SELECT ` + videoColumns + `
			FROM videos
			WHERE user_id = $1 AND (updated_at, id) < ($2, $3)
			ORDER BY updated_at DESC, id DESC
			LIMIT $4
		`
		args = []interface{}{ownerID, cursor.UpdatedAt, cursor.ID, limit + 1}
	}

	var videos []model.Video
	if err := r.db.SelectContext(ctx, &videos, query, args...); err != nil {
		return nil, nil, false, fmt.Errorf("list owner videos: %w", err)
	}

	items, next, hasMore := pagination.Window(videos, limit, videoCursor)
	return items, next, hasMore, nil
}

// ListSuggestions returns public videos excluding the reference video,
// optionally narrowed to the same category. The cursor predicate composes
// with the filter by logical AND; the window logic is identical to every
// other paginated listing.
func (r *videoRepository) ListSuggestions(ctx context.Context, excludeID uuid.UUID, categoryID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Video, *pagination.Cursor, bool, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE visibility = $1 AND id <> $2
	`
	args := []interface{}{model.VisibilityPublic, excludeID}

	if categoryID != nil {
		args = append(args, *categoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if cursor != nil {
		args = append(args, cursor.UpdatedAt, cursor.ID)
		query += fmt.Sprintf(" AND (updated_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY updated_at DESC, id DESC LIMIT $%d", len(args))

	var videos []model.Video
	if err := r.db.SelectContext(ctx, &videos, query, args...); err != nil {
		return nil, nil, false, fmt.Errorf("list suggestions: %w", err)
	}

	items, next, hasMore := pagination.Window(videos, limit, videoCursor)
	return items, next, hasMore, nil
}

// IncrementViewCount bumps only the view counter. updated_at is left alone:
// views must not re-sort the video inside paginated listings.
func (r *videoRepository) IncrementViewCount(ctx context.Context, videoID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE videos SET view_count = view_count + 1 WHERE id = $1`, videoID)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrVideoNotFound
	}
	return nil
}

// IncrementCommentCount atomically updates the comment_count on a video.
func (r *videoRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, videoID uuid.UUID, delta int) error {
	result, err := tx.ExecContext(ctx, `UPDATE videos SET comment_count = comment_count + $1 WHERE id = $2`, delta, videoID)
	if err != nil {
		return fmt.Errorf("update comment count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrVideoNotFound
	}
	return nil
}

// UpsertReaction sets the viewer's reaction and returns the previous one.
func (r *videoRepository) UpsertReaction(ctx context.Context, tx *sqlx.Tx, videoID, userID uuid.UUID, reaction string) (*string, error) {
	var prev sql.NullString
	err := tx.GetContext(ctx, &prev, `
		SELECT reaction FROM video_reactions WHERE video_id = $1 AND user_id = $2
	`, videoID, userID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("get previous reaction: %w", err)
	}
	var previous *string
	if prev.Valid {
		previous = &prev.String
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO video_reactions (video_id, user_id, reaction)
		VALUES ($1, $2, $3)
		ON CONFLICT (video_id, user_id) DO UPDATE SET reaction = EXCLUDED.reaction
	`, videoID, userID, reaction)
	if err != nil {
		return nil, fmt.Errorf("upsert reaction: %w", err)
	}
	return previous, nil
}

// DeleteReaction removes the viewer's reaction, returning what it was.
func (r *videoRepository) DeleteReaction(ctx context.Context, tx *sqlx.Tx, videoID, userID uuid.UUID) (string, error) {
	var previous string
	err := tx.GetContext(ctx, &previous, `
		DELETE FROM video_reactions WHERE video_id = $1 AND user_id = $2 RETURNING reaction
	`, videoID, userID)
	if err == sql.ErrNoRows {
		return "", model.ErrNoReaction
	}
	if err != nil {
		return "", fmt.Errorf("delete reaction: %w", err)
	}
	return previous, nil
}

// AdjustReactionCounts applies like/dislike counter deltas. updated_at is not
// bumped: another viewer reacting must not re-sort the owner's listings.
func (r *videoRepository) AdjustReactionCounts(ctx context.Context, tx *sqlx.Tx, videoID uuid.UUID, likeDelta, dislikeDelta int) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE videos SET like_count = like_count + $1, dislike_count = dislike_count + $2
		WHERE id = $3
	`, likeDelta, dislikeDelta, videoID)
	if err != nil {
		return fmt.Errorf("adjust reaction counts: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrVideoNotFound
	}
	return nil
}

// GetReaction returns the viewer's reaction to a video, nil if none.
func (r *videoRepository) GetReaction(ctx context.Context, videoID, userID uuid.UUID) (*string, error) {
	var reaction string
	err := r.db.GetContext(ctx, &reaction, `
		SELECT reaction FROM video_reactions WHERE video_id = $1 AND user_id = $2
	`, videoID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reaction: %w", err)
	}
	return &reaction, nil
}

// GetCounts returns the current like/dislike counters.
func (r *videoRepository) GetCounts(ctx context.Context, videoID uuid.UUID) (int64, int64, error) {
	var counts struct {
		Likes    int64 `db:"like_count"`
		Dislikes int64 `db:"dislike_count"`
	}
	err := r.db.GetContext(ctx, &counts, `SELECT like_count, dislike_count FROM videos WHERE id = $1`, videoID)
	if err == sql.ErrNoRows {
		return 0, 0, model.ErrVideoNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("get reaction counts: %w", err)
	}
	return counts.Likes, counts.Dislikes, nil
}

// GetRecentByOwner returns recent public videos by a creator, for feed
// backfill after a new subscription.
func (r *videoRepository) GetRecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]cache.VideoScore, error) {
	query := `
		SELECT id, EXTRACT(EPOCH FROM updated_at)::bigint AS ts
		FROM videos
		WHERE user_id = $1 AND visibility = $2 AND status = $3
		ORDER BY updated_at DESC
		LIMIT $4
	`
	type row struct {
		ID uuid.UUID `db:"id"`
		TS int64     `db:"ts"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, query, ownerID, model.VisibilityPublic, model.VideoStatusReady, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent videos: %w", err)
	}

	videos := make([]cache.VideoScore, len(rows))
	for i, rr := range rows {
		videos[i] = cache.VideoScore{VideoID: rr.ID, Timestamp: rr.TS}
	}
	return videos, nil
}

// GetFeedVideoIDs returns public video ids from a set of creators, for
// warming a viewer's subscription feed cache.
func (r *videoRepository) GetFeedVideoIDs(ctx context.Context, creatorIDs []uuid.UUID, limit int) ([]cache.VideoScore, error) {
	if len(creatorIDs) == 0 {
		return []cache.VideoScore{}, nil
	}

	ids := make([]string, len(creatorIDs))
	for i, id := range creatorIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT id, EXTRACT(EPOCH FROM updated_at)::bigint AS ts
		FROM videos
		WHERE user_id = ANY($1::uuid[]) AND visibility = $2 AND status = $3
		ORDER BY updated_at DESC
		LIMIT $4
	`
	type row struct {
		ID uuid.UUID `db:"id"`
		TS int64     `db:"ts"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids), model.VisibilityPublic, model.VideoStatusReady, limit)
	if err != nil {
		return nil, fmt.Errorf("get feed video ids: %w", err)
	}

	videos := make([]cache.VideoScore, len(rows))
	for i, rr := range rows {
		videos[i] = cache.VideoScore{VideoID: rr.ID, Timestamp: rr.TS}
	}
	return videos, nil
}
