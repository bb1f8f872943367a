package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/queue"
	"vidtube/internal/repository"
)

// SourcePresigner issues presigned upload URLs for raw video bytes.
// Satisfied by MediaService; an interface so video tests can fake it.
type SourcePresigner interface {
	PresignSourceUpload(ctx context.Context) (*model.PresignSourceUploadResponse, error)
}

// VideoService handles business logic for video drafts, metadata, playback
// and the paginated studio / suggestions listings.
type VideoService struct {
	videoRepo    repository.VideoRepository
	userRepo     repository.UserRepository
	categoryRepo repository.CategoryRepository
	publisher    queue.Publisher
	presigner    SourcePresigner
	db           *sqlx.DB
}

func NewVideoService(
	videoRepo repository.VideoRepository,
	userRepo repository.UserRepository,
	categoryRepo repository.CategoryRepository,
	publisher queue.Publisher,
	presigner SourcePresigner,
	db *sqlx.DB,
) *VideoService {
	return &VideoService{
		videoRepo:    videoRepo,
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		publisher:    publisher,
		presigner:    presigner,
		db:           db,
	}
}

// CreateVideoResponse bundles the created draft with its upload destination.
type CreateVideoResponse struct {
	Video  *model.Video                       `json:"video"`
	Upload *model.PresignSourceUploadResponse `json:"upload"`
}

// Create validates metadata, creates a video draft in status "waiting", and
// returns a presigned URL the client uploads the source file to. The pipeline
// webhook moves the draft through preparing/ready later.
func (s *VideoService) Create(ctx context.Context, userID uuid.UUID, req model.CreateVideoRequest) (*CreateVideoResponse, error) {
	if err := validateVideoMetadata(req.Title, req.Description); err != nil {
		return nil, err
	}
	if req.Visibility == "" {
		req.Visibility = model.VisibilityPublic
	}
	if !model.IsValidVisibility(req.Visibility) {
		return nil, model.ErrInvalidVisibility
	}
	if req.CategoryID != nil {
		exists, err := s.categoryRepo.Exists(ctx, *req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("check category: %w", err)
		}
		if !exists {
			return nil, model.ErrCategoryNotFound
		}
	}

	upload, err := s.presigner.PresignSourceUpload(ctx)
	if err != nil {
		return nil, fmt.Errorf("presign source upload: %w", err)
	}

	video := &model.Video{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Visibility:  req.Visibility,
		Status:      model.VideoStatusWaiting,
		UploadID:    &upload.UploadID,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.videoRepo.Create(ctx, tx, video); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}
	if err := s.userRepo.IncrementVideoCount(ctx, tx, userID, 1); err != nil {
		return nil, fmt.Errorf("increment video count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[VideoService] Created draft: video=%s user=%s upload=%s", video.ID, userID, upload.UploadID)

	return &CreateVideoResponse{Video: video, Upload: upload}, nil
}

// UpdateMetadata edits a video's metadata for its owner. Edits bump
// updated_at, re-sorting the video to the top of its collections.
// Visibility transitions publish feed events.
func (s *VideoService) UpdateMetadata(ctx context.Context, videoID, userID uuid.UUID, req model.UpdateVideoRequest) (*model.Video, error) {
	if req.Title != nil {
		if err := validateVideoMetadata(*req.Title, req.Description); err != nil {
			return nil, err
		}
	} else if req.Description != nil && len(*req.Description) > model.MaxVideoDescriptionLength {
		return nil, model.ErrDescriptionTooLong
	}
	if req.Visibility != nil && !model.IsValidVisibility(*req.Visibility) {
		return nil, model.ErrInvalidVisibility
	}
	if req.CategoryID != nil {
		exists, err := s.categoryRepo.Exists(ctx, *req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("check category: %w", err)
		}
		if !exists {
			return nil, model.ErrCategoryNotFound
		}
	}

	before, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	video, err := s.videoRepo.UpdateMetadata(ctx, videoID, userID, req)
	if err != nil {
		return nil, err
	}

	// Visibility transitions change what subscribers should see in their feeds.
	if req.Visibility != nil && before.Visibility != video.Visibility {
		switch video.Visibility {
		case model.VisibilityPublic:
			if video.Status == model.VideoStatusReady {
				if _, err := s.publisher.Publish(ctx, queue.StreamFeed, queue.NewVideoPublishedEvent(video.ID, video.UserID)); err != nil {
					log.Printf("[VideoService] Failed to publish VideoPublished event: video=%s err=%v", video.ID, err)
				}
			}
		case model.VisibilityPrivate:
			if _, err := s.publisher.Publish(ctx, queue.StreamFeed, queue.NewVideoDeletedEvent(video.ID, video.UserID)); err != nil {
				log.Printf("[VideoService] Failed to publish VideoDeleted event: video=%s err=%v", video.ID, err)
			}
		}
	}

	return video, nil
}

// Delete removes a video and publishes an event to clear it from feeds.
func (s *VideoService) Delete(ctx context.Context, videoID, userID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.videoRepo.Delete(ctx, tx, videoID, userID); err != nil {
		return err
	}
	if err := s.userRepo.IncrementVideoCount(ctx, tx, userID, -1); err != nil {
		return fmt.Errorf("decrement video count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	event := queue.NewVideoDeletedEvent(videoID, userID)
	if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
		log.Printf("[VideoService] Failed to publish VideoDeleted event: video=%s err=%v", videoID, err)
	}

	return nil
}

// Watch retrieves a video for playback and counts the view.
// Private videos are only visible to their owner; for everyone else the
// video behaves as if it doesn't exist. Views don't bump updated_at, so
// watching never re-sorts listings.
func (s *VideoService) Watch(ctx context.Context, videoID uuid.UUID, viewerID *uuid.UUID) (*model.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if video.Visibility == model.VisibilityPrivate {
		if viewerID == nil || *viewerID != video.UserID {
			return nil, model.ErrVideoNotFound
		}
	}

	if err := s.videoRepo.IncrementViewCount(ctx, videoID); err != nil {
		log.Printf("[VideoService] Failed to count view: video=%s err=%v", videoID, err)
	} else {
		video.ViewCount++
	}

	s.hydrateAuthor(ctx, video)

	if viewerID != nil {
		reaction, err := s.videoRepo.GetReaction(ctx, videoID, *viewerID)
		if err != nil {
			log.Printf("[VideoService] Failed to check reaction: %v", err)
		} else {
			video.ViewerReaction = reaction
		}
	}

	return video, nil
}

// GetByID retrieves a video with the owner's view (no visibility filtering,
// no view counting). Used by the studio edit page.
func (s *VideoService) GetByID(ctx context.Context, videoID, userID uuid.UUID) (*model.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.UserID != userID {
		return nil, model.ErrNotVideoOwner
	}
	return video, nil
}

// ListStudio returns one page of the owner's videos, newest-updated first.
// All of the owner's videos are included regardless of visibility or status.
func (s *VideoService) ListStudio(ctx context.Context, ownerID uuid.UUID, cursor *pagination.Cursor, limit int) (*model.VideoListResponse, error) {
	if err := pagination.ValidateLimit(limit); err != nil {
		return nil, err
	}

	videos, next, hasMore, err := s.videoRepo.ListByOwner(ctx, ownerID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list studio videos: %w", err)
	}

	s.hydrateAuthors(ctx, videos)

	return &model.VideoListResponse{
		Videos:     videos,
		NextCursor: cursorToken(next),
		HasMore:    hasMore,
	}, nil
}

// ListSuggestions returns one page of public videos related to a reference
// video, excluding the reference itself. Fails fast when the reference video
// doesn't exist; suggestions for a missing video are meaningless.
func (s *VideoService) ListSuggestions(ctx context.Context, videoID uuid.UUID, cursor *pagination.Cursor, limit int) (*model.VideoListResponse, error) {
	if err := pagination.ValidateLimit(limit); err != nil {
		return nil, err
	}

	reference, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	videos, next, hasMore, err := s.videoRepo.ListSuggestions(ctx, videoID, reference.CategoryID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}

	s.hydrateAuthors(ctx, videos)

	return &model.VideoListResponse{
		Videos:     videos,
		NextCursor: cursorToken(next),
		HasMore:    hasMore,
	}, nil
}

// SetThumbnail stores an uploaded thumbnail's location on the owner's video.
// Thumbnail changes bump updated_at like any other metadata edit.
func (s *VideoService) SetThumbnail(ctx context.Context, videoID, userID uuid.UUID, url, key string) error {
	authorID, err := s.videoRepo.GetAuthorID(ctx, videoID)
	if err != nil {
		return err
	}
	if authorID != userID {
		return model.ErrNotVideoOwner
	}
	return s.videoRepo.SetThumbnail(ctx, videoID, url, key)
}

// AI generation job kinds accepted by RequestGeneration.
const (
	GenerationTitle       = "title"
	GenerationDescription = "description"
	GenerationThumbnail   = "thumbnail"
)

// ErrUnknownGenerationKind is returned for unrecognized generation kinds.
var ErrUnknownGenerationKind = fmt.Errorf("unknown generation kind")

// RequestGeneration enqueues an AI generation job for the owner's video.
// The job runs asynchronously; results land on the video via the worker.
func (s *VideoService) RequestGeneration(ctx context.Context, videoID, userID uuid.UUID, kind, prompt string) error {
	authorID, err := s.videoRepo.GetAuthorID(ctx, videoID)
	if err != nil {
		return err
	}
	if authorID != userID {
		return model.ErrNotVideoOwner
	}

	var event queue.Event
	switch kind {
	case GenerationTitle:
		event = queue.NewGenerateTitleEvent(videoID, userID, prompt)
	case GenerationDescription:
		event = queue.NewGenerateDescriptionEvent(videoID, userID, prompt)
	case GenerationThumbnail:
		event = queue.NewGenerateThumbnailEvent(videoID, userID, prompt)
	default:
		return ErrUnknownGenerationKind
	}

	if _, err := s.publisher.Publish(ctx, queue.StreamAI, event); err != nil {
		return fmt.Errorf("enqueue generation job: %w", err)
	}
	return nil
}

// hydrateAuthor attaches the author summary to a single video, best-effort.
func (s *VideoService) hydrateAuthor(ctx context.Context, video *model.Video) {
	summaries, err := s.userRepo.GetSummaries(ctx, []uuid.UUID{video.UserID})
	if err != nil {
		log.Printf("[VideoService] Failed to fetch author: %v", err)
		return
	}
	if summary, ok := summaries[video.UserID]; ok {
		video.Author = &summary
	}
}

// hydrateAuthors attaches author summaries to a page of videos in one query.
func (s *VideoService) hydrateAuthors(ctx context.Context, videos []model.Video) {
	if len(videos) == 0 {
		return
	}

	seen := make(map[uuid.UUID]struct{}, len(videos))
	ids := make([]uuid.UUID, 0, len(videos))
	for _, v := range videos {
		if _, ok := seen[v.UserID]; !ok {
			seen[v.UserID] = struct{}{}
			ids = append(ids, v.UserID)
		}
	}

	summaries, err := s.userRepo.GetSummaries(ctx, ids)
	if err != nil {
		log.Printf("[VideoService] Failed to fetch authors: %v", err)
		return
	}

	for i := range videos {
		if summary, ok := summaries[videos[i].UserID]; ok {
			videos[i].Author = &summary
		}
	}
}

// cursorToken encodes a cursor for the response, nil when the page is last.
func cursorToken(c *pagination.Cursor) *string {
	if c == nil {
		return nil
	}
	token := c.Token()
	return &token
}

func validateVideoMetadata(title string, description *string) error {
	if title == "" {
		return model.ErrTitleRequired
	}
	if len(title) > model.MaxVideoTitleLength {
		return model.ErrTitleTooLong
	}
	if description != nil && len(*description) > model.MaxVideoDescriptionLength {
		return model.ErrDescriptionTooLong
	}
	return nil
}
