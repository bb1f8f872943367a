package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vidtube/internal/cache"
	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/queue"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Services depend on repository INTERFACES, so tests swap in mocks that return
// controlled responses. Each mock exposes fn fields; a nil fn falls back to a
// harmless default.

type mockUserRepository struct {
	createFn           func(ctx context.Context, user *model.User) error
	getByIDFn          func(ctx context.Context, id uuid.UUID) (*model.User, error)
	getByUsernameFn    func(ctx context.Context, username string) (*model.User, error)
	existsByUsernameFn func(ctx context.Context, username string) (bool, error)
	getSummariesFn     func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.UserSummary, error)

	createCalls int
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepository) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.UserSummary, error) {
	if m.getSummariesFn != nil {
		return m.getSummariesFn(ctx, ids)
	}
	return map[uuid.UUID]model.UserSummary{}, nil
}

func (m *mockUserRepository) UpdateAvatar(ctx context.Context, userID uuid.UUID, url, key string) error {
	return nil
}

func (m *mockUserRepository) IncrementSubscriberCount(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int) error {
	return nil
}

func (m *mockUserRepository) IncrementVideoCount(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, delta int) error {
	return nil
}

type mockVideoRepository struct {
	getByIDFn           func(ctx context.Context, videoID uuid.UUID) (*model.Video, error)
	getByAssetIDFn      func(ctx context.Context, assetID string) (*model.Video, error)
	getAuthorIDFn       func(ctx context.Context, videoID uuid.UUID) (uuid.UUID, error)
	existsFn            func(ctx context.Context, videoID uuid.UUID) (bool, error)
	updateMetadataFn    func(ctx context.Context, videoID, userID uuid.UUID, req model.UpdateVideoRequest) (*model.Video, error)
	setGeneratedTextFn  func(ctx context.Context, videoID uuid.UUID, column, value string) error
	setThumbnailFn      func(ctx context.Context, videoID uuid.UUID, url, key string) error
	applyAssetUpdateFn  func(ctx context.Context, assetID string, status string, playbackID *string, durationMS *int64, previewURL *string) error
	bindAssetFn         func(ctx context.Context, uploadID, assetID string) error
	listByOwnerFn       func(ctx context.Context, ownerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Video, *pagination.Cursor, bool, error)
	listSuggestionsFn   func(ctx context.Context, excludeID uuid.UUID, categoryID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Video, *pagination.Cursor, bool, error)
	incrementViewFn     func(ctx context.Context, videoID uuid.UUID) error
	getReactionFn       func(ctx context.Context, videoID, userID uuid.UUID) (*string, error)
	incrementCommentCnt func(ctx context.Context, tx *sqlx.Tx, videoID uuid.UUID, delta int) error
}

func (m *mockVideoRepository) Create(ctx context.Context, tx *sqlx.Tx, video *model.Video) error {
	return nil
}

func (m *mockVideoRepository) GetByID(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, videoID)
	}
	return nil, model.ErrVideoNotFound
}

func (m *mockVideoRepository) GetByIDs(ctx context.Context, videoIDs []uuid.UUID) ([]model.Video, error) {
	return nil, nil
}

func (m *mockVideoRepository) GetByAssetID(ctx context.Context, assetID string) (*model.Video, error) {
	if m.getByAssetIDFn != nil {
		return m.getByAssetIDFn(ctx, assetID)
	}
	return nil, model.ErrVideoNotFound
}

func (m *mockVideoRepository) GetByUploadID(ctx context.Context, uploadID string) (*model.Video, error) {
	return nil, model.ErrVideoNotFound
}

func (m *mockVideoRepository) GetAuthorID(ctx context.Context, videoID uuid.UUID) (uuid.UUID, error) {
	if m.getAuthorIDFn != nil {
		return m.getAuthorIDFn(ctx, videoID)
	}
	return uuid.Nil, model.ErrVideoNotFound
}

func (m *mockVideoRepository) Exists(ctx context.Context, videoID uuid.UUID) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, videoID)
	}
	return false, nil
}

func (m *mockVideoRepository) UpdateMetadata(ctx context.Context, videoID, userID uuid.UUID, req model.UpdateVideoRequest) (*model.Video, error) {
	if m.updateMetadataFn != nil {
		return m.updateMetadataFn(ctx, videoID, userID, req)
	}
	return nil, model.ErrVideoNotFound
}

func (m *mockVideoRepository) SetThumbnail(ctx context.Context, videoID uuid.UUID, url, key string) error {
	if m.setThumbnailFn != nil {
		return m.setThumbnailFn(ctx, videoID, url, key)
	}
	return nil
}

func (m *mockVideoRepository) SetGeneratedText(ctx context.Context, videoID uuid.UUID, column, value string) error {
	if m.setGeneratedTextFn != nil {
		return m.setGeneratedTextFn(ctx, videoID, column, value)
	}
	return nil
}

func (m *mockVideoRepository) ApplyAssetUpdate(ctx context.Context, assetID string, status string, playbackID *string, durationMS *int64, previewURL *string) error {
	if m.applyAssetUpdateFn != nil {
		return m.applyAssetUpdateFn(ctx, assetID, status, playbackID, durationMS, previewURL)
	}
	return nil
}

func (m *mockVideoRepository) BindAsset(ctx context.Context, uploadID, assetID string) error {
	if m.bindAssetFn != nil {
		return m.bindAssetFn(ctx, uploadID, assetID)
	}
	return nil
}

func (m *mockVideoRepository) Delete(ctx context.Context, tx *sqlx.Tx, videoID, userID uuid.UUID) error {
	return nil
}

func (m *mockVideoRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Video, *pagination.Cursor, bool, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID, cursor, limit)
	}
	return nil, nil, false, nil
}

func (m *mockVideoRepository) ListSuggestions(ctx context.Context, excludeID uuid.UUID, categoryID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Video, *pagination.Cursor, bool, error) {
	if m.listSuggestionsFn != nil {
		return m.listSuggestionsFn(ctx, excludeID, categoryID, cursor, limit)
	}
	return nil, nil, false, nil
}

func (m *mockVideoRepository) IncrementViewCount(ctx context.Context, videoID uuid.UUID) error {
	if m.incrementViewFn != nil {
		return m.incrementViewFn(ctx, videoID)
	}
	return nil
}

func (m *mockVideoRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, videoID uuid.UUID, delta int) error {
	if m.incrementCommentCnt != nil {
		return m.incrementCommentCnt(ctx, tx, videoID, delta)
	}
	return nil
}

func (m *mockVideoRepository) UpsertReaction(ctx context.Context, tx *sqlx.Tx, videoID, userID uuid.UUID, reaction string) (*string, error) {
	return nil, nil
}

func (m *mockVideoRepository) DeleteReaction(ctx context.Context, tx *sqlx.Tx, videoID, userID uuid.UUID) (string, error) {
	return "", nil
}

func (m *mockVideoRepository) AdjustReactionCounts(ctx context.Context, tx *sqlx.Tx, videoID uuid.UUID, likeDelta, dislikeDelta int) error {
	return nil
}

func (m *mockVideoRepository) GetReaction(ctx context.Context, videoID, userID uuid.UUID) (*string, error) {
	if m.getReactionFn != nil {
		return m.getReactionFn(ctx, videoID, userID)
	}
	return nil, nil
}

func (m *mockVideoRepository) GetCounts(ctx context.Context, videoID uuid.UUID) (int64, int64, error) {
	return 0, 0, nil
}

func (m *mockVideoRepository) GetRecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]cache.VideoScore, error) {
	return nil, nil
}

func (m *mockVideoRepository) GetFeedVideoIDs(ctx context.Context, creatorIDs []uuid.UUID, limit int) ([]cache.VideoScore, error) {
	return nil, nil
}

type mockCommentRepository struct {
	getByIDFn      func(ctx context.Context, commentID uuid.UUID) (*model.Comment, error)
	updateFn       func(ctx context.Context, commentID, userID uuid.UUID, content string) (*model.Comment, error)
	listByVideoFn  func(ctx context.Context, videoID uuid.UUID, parentID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Comment, *pagination.Cursor, bool, error)
	countFn        func(ctx context.Context, videoID uuid.UUID, parentID *uuid.UUID) (int64, error)
	getReactionsFn func(ctx context.Context, userID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

func (m *mockCommentRepository) Create(ctx context.Context, tx *sqlx.Tx, videoID, userID uuid.UUID, content string, parentID *uuid.UUID) (*model.Comment, error) {
	return &model.Comment{ID: uuid.New(), VideoID: videoID, UserID: userID, Content: content, ParentID: parentID}, nil
}

func (m *mockCommentRepository) Update(ctx context.Context, commentID, userID uuid.UUID, content string) (*model.Comment, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, commentID, userID, content)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) Delete(ctx context.Context, tx *sqlx.Tx, commentID, userID uuid.UUID) (uuid.UUID, int64, error) {
	return uuid.Nil, 0, model.ErrCommentNotFound
}

func (m *mockCommentRepository) GetByID(ctx context.Context, commentID uuid.UUID) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, commentID)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) ListByVideo(ctx context.Context, videoID uuid.UUID, parentID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]model.Comment, *pagination.Cursor, bool, error) {
	if m.listByVideoFn != nil {
		return m.listByVideoFn(ctx, videoID, parentID, cursor, limit)
	}
	return nil, nil, false, nil
}

func (m *mockCommentRepository) Count(ctx context.Context, videoID uuid.UUID, parentID *uuid.UUID) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, videoID, parentID)
	}
	return 0, nil
}

func (m *mockCommentRepository) IncrementReplyCount(ctx context.Context, tx *sqlx.Tx, commentID uuid.UUID, delta int) error {
	return nil
}

func (m *mockCommentRepository) UpsertReaction(ctx context.Context, tx *sqlx.Tx, commentID, userID uuid.UUID, reaction string) (*string, error) {
	return nil, nil
}

func (m *mockCommentRepository) DeleteReaction(ctx context.Context, tx *sqlx.Tx, commentID, userID uuid.UUID) (string, error) {
	return "", nil
}

func (m *mockCommentRepository) AdjustReactionCounts(ctx context.Context, tx *sqlx.Tx, commentID uuid.UUID, likeDelta, dislikeDelta int) error {
	return nil
}

func (m *mockCommentRepository) GetReactions(ctx context.Context, userID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	if m.getReactionsFn != nil {
		return m.getReactionsFn(ctx, userID, commentIDs)
	}
	return map[uuid.UUID]string{}, nil
}

func (m *mockCommentRepository) GetCounts(ctx context.Context, commentID uuid.UUID) (int64, int64, error) {
	return 0, 0, nil
}

type mockSubscriptionRepository struct {
	existsFn func(ctx context.Context, viewerID, creatorID uuid.UUID) (bool, error)
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, tx *sqlx.Tx, viewerID, creatorID uuid.UUID) (bool, error) {
	return true, nil
}

func (m *mockSubscriptionRepository) Delete(ctx context.Context, tx *sqlx.Tx, viewerID, creatorID uuid.UUID) error {
	return nil
}

func (m *mockSubscriptionRepository) Exists(ctx context.Context, viewerID, creatorID uuid.UUID) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, viewerID, creatorID)
	}
	return false, nil
}

func (m *mockSubscriptionRepository) GetSubscribers(ctx context.Context, creatorID uuid.UUID, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	return nil, nil, nil
}

func (m *mockSubscriptionRepository) GetSubscriberIDs(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *mockSubscriptionRepository) GetCreatorIDs(ctx context.Context, viewerID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

type mockCategoryRepository struct {
	existsFn func(ctx context.Context, id uuid.UUID) (bool, error)
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	return nil, nil
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	return nil, model.ErrCategoryNotFound
}

func (m *mockCategoryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return true, nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*model.RefreshToken // keyed by token hash

	revokeCalls        []string
	revokeAllUserCalls []uuid.UUID
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: map[string]*model.RefreshToken{}}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	token.CreatedAt = time.Now()
	m.tokens[token.TokenHash] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	token, ok := m.tokens[tokenHash]
	if !ok {
		return nil, model.ErrRefreshTokenNotFound
	}
	return token, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	m.revokeCalls = append(m.revokeCalls, id)
	for _, token := range m.tokens {
		if token.ID == id {
			now := time.Now()
			token.RevokedAt = &now
			token.ReplacedBy = replacedBy
		}
	}
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	m.revokeAllUserCalls = append(m.revokeAllUserCalls, userID)
	for _, token := range m.tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			now := time.Now()
			token.RevokedAt = &now
		}
	}
	return nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

// =============================================================================
// MOCK QUEUE PUBLISHER
// =============================================================================

type publishedEvent struct {
	Stream string
	Event  queue.Event
}

type mockPublisher struct {
	published []publishedEvent
	publishFn func(ctx context.Context, stream string, event queue.Event) (string, error)
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.Event) (string, error) {
	m.published = append(m.published, publishedEvent{Stream: stream, Event: event})
	if m.publishFn != nil {
		return m.publishFn(ctx, stream, event)
	}
	return "1-0", nil
}
