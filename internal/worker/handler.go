package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"vidtube/internal/cache"
	"vidtube/internal/queue"
)

// SubscriberProvider defines the interface for fetching subscribers.
// This abstracts the repository layer so workers don't depend on DB directly.
type SubscriberProvider interface {
	// GetSubscriberIDs returns all subscriber IDs for a given creator.
	GetSubscriberIDs(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error)
}

// RecentVideosProvider defines the interface for fetching recent videos.
// Used for backfilling feed when a user subscribes to a creator.
type RecentVideosProvider interface {
	// GetRecentByOwner returns recent public ready videos by a creator,
	// as (videoID, timestamp) pairs for feed scoring.
	GetRecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]cache.VideoScore, error)
}

// GenerationRunner defines the interface for running AI generation jobs.
// This allows the worker to execute jobs without depending on the AI
// service directly.
type GenerationRunner interface {
	// RunTitleGeneration generates and stores a title for the video.
	RunTitleGeneration(ctx context.Context, videoID uuid.UUID, prompt string) error
	// RunDescriptionGeneration generates and stores a description.
	RunDescriptionGeneration(ctx context.Context, videoID uuid.UUID, prompt string) error
	// RunThumbnailGeneration generates and stores a thumbnail image.
	RunThumbnailGeneration(ctx context.Context, videoID uuid.UUID, prompt string) error
}

// Handler processes events from the queue.
type Handler struct {
	feedCache          cache.FeedCache
	subscriberProvider SubscriberProvider
	videosProvider     RecentVideosProvider
	generationRunner   GenerationRunner // Can be nil if AI generation not wired
}

// NewHandler creates a new event handler.
func NewHandler(
	feedCache cache.FeedCache,
	subscriberProvider SubscriberProvider,
	videosProvider RecentVideosProvider,
) *Handler {
	return &Handler{
		feedCache:          feedCache,
		subscriberProvider: subscriberProvider,
		videosProvider:     videosProvider,
	}
}

// SetGenerationRunner sets the AI generation runner (optional, for AI job events).
func (h *Handler) SetGenerationRunner(gr GenerationRunner) {
	h.generationRunner = gr
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.Event) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventVideoPublished:
		err = h.handleVideoPublished(ctx, event)
	case queue.EventVideoDeleted:
		err = h.handleVideoDeleted(ctx, event)
	case queue.EventUserSubscribed:
		err = h.handleUserSubscribed(ctx, event)
	case queue.EventUserUnsubscribed:
		err = h.handleUserUnsubscribed(ctx, event)
	// AI generation jobs
	case queue.EventGenerateTitle:
		err = h.handleGeneration(ctx, event)
	case queue.EventGenerateDescription:
		err = h.handleGeneration(ctx, event)
	case queue.EventGenerateThumbnail:
		err = h.handleGeneration(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handleVideoPublished fans out a published video to all subscribers' feed caches.
func (h *Handler) handleVideoPublished(ctx context.Context, event queue.Event) error {
	log.Printf("[Worker] VideoPublished: video=%s creator=%s", event.VideoID, event.CreatorID)

	subscribers, err := h.subscriberProvider.GetSubscriberIDs(ctx, event.CreatorID)
	if err != nil {
		return fmt.Errorf("get subscribers: %w", err)
	}

	log.Printf("[Worker] VideoPublished: fanning out to %d subscribers", len(subscribers))

	// Fan-out: add video to each subscriber's feed cache
	var failCount int
	for _, subscriberID := range subscribers {
		err := h.feedCache.AddVideo(ctx, subscriberID, event.VideoID, event.Timestamp)
		if err != nil {
			log.Printf("[Worker] VideoPublished: failed to add to user=%s err=%v", subscriberID, err)
			failCount++
			// Continue with other subscribers - don't fail entire fan-out
		}
	}

	// Also add to creator's own feed (they see their own videos)
	if err := h.feedCache.AddVideo(ctx, event.CreatorID, event.VideoID, event.Timestamp); err != nil {
		log.Printf("[Worker] VideoPublished: failed to add to creator's own feed err=%v", err)
	}

	log.Printf("[Worker] VideoPublished DONE: video=%s fanout=%d failed=%d",
		event.VideoID, len(subscribers)+1, failCount)

	return nil
}

// handleVideoDeleted removes a video from all subscribers' feed caches.
func (h *Handler) handleVideoDeleted(ctx context.Context, event queue.Event) error {
	log.Printf("[Worker] VideoDeleted: video=%s creator=%s", event.VideoID, event.CreatorID)

	subscribers, err := h.subscriberProvider.GetSubscriberIDs(ctx, event.CreatorID)
	if err != nil {
		return fmt.Errorf("get subscribers: %w", err)
	}

	log.Printf("[Worker] VideoDeleted: removing from %d subscribers' feeds", len(subscribers))

	var failCount int
	for _, subscriberID := range subscribers {
		err := h.feedCache.RemoveVideo(ctx, subscriberID, event.VideoID)
		if err != nil {
			log.Printf("[Worker] VideoDeleted: failed to remove from user=%s err=%v", subscriberID, err)
			failCount++
		}
	}

	// Also remove from creator's own feed
	if err := h.feedCache.RemoveVideo(ctx, event.CreatorID, event.VideoID); err != nil {
		log.Printf("[Worker] VideoDeleted: failed to remove from creator's own feed err=%v", err)
	}

	log.Printf("[Worker] VideoDeleted DONE: video=%s fanout=%d failed=%d",
		event.VideoID, len(subscribers)+1, failCount)

	return nil
}

// handleUserSubscribed backfills the viewer's feed with the creator's recent videos.
func (h *Handler) handleUserSubscribed(ctx context.Context, event queue.Event) error {
	log.Printf("[Worker] UserSubscribed: viewer=%s creator=%s", event.ViewerID, event.CreatorID)

	const backfillLimit = 20 // How many recent videos to backfill
	videos, err := h.videosProvider.GetRecentByOwner(ctx, event.CreatorID, backfillLimit)
	if err != nil {
		return fmt.Errorf("get recent videos: %w", err)
	}

	if len(videos) == 0 {
		log.Printf("[Worker] UserSubscribed: creator=%s has no videos to backfill", event.CreatorID)
		return nil
	}

	log.Printf("[Worker] UserSubscribed: backfilling %d videos to viewer=%s", len(videos), event.ViewerID)

	var failCount int
	for _, v := range videos {
		err := h.feedCache.AddVideo(ctx, event.ViewerID, v.VideoID, v.Timestamp)
		if err != nil {
			log.Printf("[Worker] UserSubscribed: failed to add video=%s err=%v", v.VideoID, err)
			failCount++
		}
	}

	log.Printf("[Worker] UserSubscribed DONE: viewer=%s backfilled=%d failed=%d",
		event.ViewerID, len(videos), failCount)

	return nil
}

// handleUserUnsubscribed removes the creator's videos from the viewer's feed.
func (h *Handler) handleUserUnsubscribed(ctx context.Context, event queue.Event) error {
	log.Printf("[Worker] UserUnsubscribed: viewer=%s creator=%s", event.ViewerID, event.CreatorID)

	// Fetch videos from the creator that might be in the viewer's feed.
	// We use a higher limit since we want to remove all their videos.
	const removeLimit = 100
	videos, err := h.videosProvider.GetRecentByOwner(ctx, event.CreatorID, removeLimit)
	if err != nil {
		return fmt.Errorf("get videos to remove: %w", err)
	}

	if len(videos) == 0 {
		log.Printf("[Worker] UserUnsubscribed: creator=%s has no videos to remove", event.CreatorID)
		return nil
	}

	log.Printf("[Worker] UserUnsubscribed: removing %d videos from viewer=%s", len(videos), event.ViewerID)

	ids := make([]uuid.UUID, len(videos))
	for i, v := range videos {
		ids[i] = v.VideoID
	}
	if err := h.feedCache.RemoveCreatorVideos(ctx, event.ViewerID, ids); err != nil {
		return fmt.Errorf("remove creator videos: %w", err)
	}

	log.Printf("[Worker] UserUnsubscribed DONE: viewer=%s removed=%d", event.ViewerID, len(videos))

	return nil
}

// handleGeneration dispatches an AI generation job to the runner.
func (h *Handler) handleGeneration(ctx context.Context, event queue.Event) error {
	log.Printf("[Worker] Generation: type=%s video=%s", event.Type, event.VideoID)

	if h.generationRunner == nil {
		log.Printf("[Worker] Generation: runner not set, skipping")
		return nil
	}

	var err error
	switch event.Type {
	case queue.EventGenerateTitle:
		err = h.generationRunner.RunTitleGeneration(ctx, event.VideoID, event.Prompt)
	case queue.EventGenerateDescription:
		err = h.generationRunner.RunDescriptionGeneration(ctx, event.VideoID, event.Prompt)
	case queue.EventGenerateThumbnail:
		err = h.generationRunner.RunThumbnailGeneration(ctx, event.VideoID, event.Prompt)
	}
	if err != nil {
		return fmt.Errorf("run generation %s: %w", event.Type, err)
	}

	log.Printf("[Worker] Generation DONE: type=%s video=%s", event.Type, event.VideoID)
	return nil
}
