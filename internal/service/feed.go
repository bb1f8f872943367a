package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidtube/internal/cache"
	"vidtube/internal/model"
	"vidtube/internal/pagination"
	"vidtube/internal/repository"
)

// CacheWarmLimit is max videos to fetch when warming a feed cache.
const CacheWarmLimit = 500

// ErrInvalidFeedCursor is returned when a feed cursor cannot be parsed.
var ErrInvalidFeedCursor = errors.New("invalid feed cursor")

// FeedService serves each viewer's subscription feed from the Redis cache,
// warming it from the database on a miss. The feed cache is scored by
// updated_at, so its ordering matches the database listings.
type FeedService struct {
	feedCache        cache.FeedCache
	videoRepo        repository.VideoRepository
	subscriptionRepo repository.SubscriptionRepository
	userRepo         repository.UserRepository
}

func NewFeedService(
	feedCache cache.FeedCache,
	videoRepo repository.VideoRepository,
	subscriptionRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
) *FeedService {
	return &FeedService{
		feedCache:        feedCache,
		videoRepo:        videoRepo,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
	}
}

// GetFeed retrieves the viewer's subscription feed with cursor-based pagination.
//
// Flow:
// 1. Check if cache exists for viewer
// 2. If no cache -> warm it (fetch videos from subscribed creators, up to 500)
// 3. Get video IDs from cache (using cursor if provided)
// 4. Hydrate: fetch full video details from DB
// 5. Build next cursor from last video
func (s *FeedService) GetFeed(ctx context.Context, userID uuid.UUID, cursor *string, limit int) (*model.VideoListResponse, error) {
	startTime := time.Now()

	if err := pagination.ValidateLimit(limit); err != nil {
		return nil, err
	}

	// Step 1: Check cache existence
	exists, err := s.feedCache.Exists(ctx, userID)
	if err != nil {
		log.Printf("[FeedService] Cache check failed for user=%s: %v", userID, err)
		// Continue - warm attempt below may still succeed
	}

	// Step 2: Warm cache if needed
	if !exists {
		log.Printf("[FeedService] Cache miss for user=%s, warming...", userID)
		if err := s.warmCache(ctx, userID); err != nil {
			log.Printf("[FeedService] Cache warm failed for user=%s: %v", userID, err)
		}
	}

	// Step 3: Get video IDs from cache
	var cursorScore *float64
	if cursor != nil {
		score, _, err := parseFeedCursor(*cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFeedCursor, err)
		}
		cursorScore = &score
	}

	videoIDs, scores, err := s.feedCache.GetFeed(ctx, userID, cursorScore, limit)
	if err != nil {
		log.Printf("[FeedService] GetFeed cache error: %v", err)
		return nil, fmt.Errorf("get feed from cache: %w", err)
	}

	if len(videoIDs) == 0 {
		log.Printf("[FeedService] Empty feed for user=%s", userID)
		return &model.VideoListResponse{Videos: []model.Video{}}, nil
	}

	// Step 4: Hydrate videos from DB
	videos, err := s.hydrateVideos(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate videos: %w", err)
	}

	// Step 5: Build next cursor and check if there are more videos
	var nextCursor *string
	hasMore := len(videoIDs) == limit // a full page means there might be more
	if hasMore && len(scores) > 0 {
		lastID := videoIDs[len(videoIDs)-1]
		lastScore := scores[len(scores)-1]
		c := formatFeedCursor(lastScore, lastID)
		nextCursor = &c
	}

	log.Printf("[FeedService] GetFeed OK: user=%s videos=%d hasMore=%v duration=%v",
		userID, len(videos), hasMore, time.Since(startTime))

	return &model.VideoListResponse{
		Videos:     videos,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// warmCache populates the viewer's feed cache from DB.
func (s *FeedService) warmCache(ctx context.Context, userID uuid.UUID) error {
	startTime := time.Now()

	creatorIDs, err := s.subscriptionRepo.GetCreatorIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("get creator ids: %w", err)
	}

	// Include the viewer's own videos in their feed
	creatorIDs = append(creatorIDs, userID)

	videos, err := s.videoRepo.GetFeedVideoIDs(ctx, creatorIDs, CacheWarmLimit)
	if err != nil {
		return fmt.Errorf("get feed video ids: %w", err)
	}

	if len(videos) == 0 {
		log.Printf("[FeedService] No videos to warm for user=%s", userID)
		return nil
	}

	if err := s.feedCache.WarmCache(ctx, userID, videos); err != nil {
		return fmt.Errorf("warm cache: %w", err)
	}

	log.Printf("[FeedService] Cache warmed: user=%s videos=%d duration=%v",
		userID, len(videos), time.Since(startTime))

	return nil
}

// hydrateVideos fetches full video details, preserving cache order and
// dropping entries that went private or were deleted since caching.
func (s *FeedService) hydrateVideos(ctx context.Context, videoIDs []uuid.UUID) ([]model.Video, error) {
	fetched, err := s.videoRepo.GetByIDs(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("get videos by ids: %w", err)
	}

	byID := make(map[uuid.UUID]model.Video, len(fetched))
	for _, v := range fetched {
		byID[v.ID] = v
	}

	videos := make([]model.Video, 0, len(videoIDs))
	for _, id := range videoIDs {
		v, ok := byID[id]
		if !ok {
			continue // deleted since caching
		}
		if v.Visibility != model.VisibilityPublic || v.Status != model.VideoStatusReady {
			continue // stale cache entry
		}
		videos = append(videos, v)
	}

	// Batch-fetch authors
	seen := make(map[uuid.UUID]struct{}, len(videos))
	authorIDs := make([]uuid.UUID, 0, len(videos))
	for _, v := range videos {
		if _, ok := seen[v.UserID]; !ok {
			seen[v.UserID] = struct{}{}
			authorIDs = append(authorIDs, v.UserID)
		}
	}

	summaries, err := s.userRepo.GetSummaries(ctx, authorIDs)
	if err != nil {
		log.Printf("[FeedService] Failed to fetch authors: %v", err)
		return videos, nil
	}

	for i := range videos {
		if summary, ok := summaries[videos[i].UserID]; ok {
			videos[i].Author = &summary
		}
	}

	return videos, nil
}

// parseFeedCursor parses "videoID:score" format cursor.
func parseFeedCursor(cursor string) (float64, uuid.UUID, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 2 {
		return 0, uuid.Nil, fmt.Errorf("invalid cursor format, expected id:score")
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		return 0, uuid.Nil, fmt.Errorf("invalid video id in cursor: %w", err)
	}

	score, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, uuid.Nil, fmt.Errorf("invalid score in cursor: %w", err)
	}

	return score, id, nil
}

// formatFeedCursor creates "videoID:score" format cursor.
func formatFeedCursor(score float64, id uuid.UUID) string {
	return fmt.Sprintf("%s:%.0f", id, score)
}
