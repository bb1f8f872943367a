package worker_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vidtube/internal/cache"
	"vidtube/internal/queue"
	"vidtube/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

// MockSubscriberProvider simulates the subscription repository.
type MockSubscriberProvider struct {
	// subscribers maps creatorID -> list of subscriber IDs
	subscribers map[uuid.UUID][]uuid.UUID
}

func NewMockSubscriberProvider() *MockSubscriberProvider {
	return &MockSubscriberProvider{
		subscribers: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *MockSubscriberProvider) AddSubscriber(creatorID, subscriberID uuid.UUID) {
	m.subscribers[creatorID] = append(m.subscribers[creatorID], subscriberID)
}

func (m *MockSubscriberProvider) RemoveSubscriber(creatorID, subscriberID uuid.UUID) {
	subs := m.subscribers[creatorID]
	for i, id := range subs {
		if id == subscriberID {
			m.subscribers[creatorID] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func (m *MockSubscriberProvider) GetSubscriberIDs(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error) {
	return m.subscribers[creatorID], nil
}

// MockVideosProvider simulates the video repository.
type MockVideosProvider struct {
	// videos maps creatorID -> list of (videoID, timestamp)
	videos map[uuid.UUID][]cache.VideoScore
}

func NewMockVideosProvider() *MockVideosProvider {
	return &MockVideosProvider{
		videos: make(map[uuid.UUID][]cache.VideoScore),
	}
}

func (m *MockVideosProvider) AddVideo(creatorID, videoID uuid.UUID, timestamp int64) {
	m.videos[creatorID] = append(m.videos[creatorID], cache.VideoScore{
		VideoID:   videoID,
		Timestamp: timestamp,
	})
}

func (m *MockVideosProvider) GetRecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]cache.VideoScore, error) {
	videos := m.videos[ownerID]
	if len(videos) > limit {
		return videos[:limit], nil
	}
	return videos, nil
}

// MockGenerationRunner records which AI jobs ran.
type MockGenerationRunner struct {
	titleCalls       []uuid.UUID
	descriptionCalls []uuid.UUID
	thumbnailCalls   []uuid.UUID
	lastPrompt       string
}

func (m *MockGenerationRunner) RunTitleGeneration(ctx context.Context, videoID uuid.UUID, prompt string) error {
	m.titleCalls = append(m.titleCalls, videoID)
	m.lastPrompt = prompt
	return nil
}

func (m *MockGenerationRunner) RunDescriptionGeneration(ctx context.Context, videoID uuid.UUID, prompt string) error {
	m.descriptionCalls = append(m.descriptionCalls, videoID)
	m.lastPrompt = prompt
	return nil
}

func (m *MockGenerationRunner) RunThumbnailGeneration(ctx context.Context, videoID uuid.UUID, prompt string) error {
	m.thumbnailCalls = append(m.thumbnailCalls, videoID)
	m.lastPrompt = prompt
	return nil
}

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestRedis(t *testing.T) *redis.Client {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}

	// Use DB 1 for testing to avoid conflicts with dev data
	opts.DB = 1

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}

	client.FlushDB(ctx)

	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx := context.Background()
	client.FlushDB(ctx)
	client.Close()
}

// =============================================================================
// Integration Tests
// =============================================================================

// TestVideoPublishedFanout tests that when a creator publishes a video,
// it gets added to all subscribers' feeds.
func TestVideoPublishedFanout(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	feedCache := cache.NewFeedCache(client)
	mockSubs := NewMockSubscriberProvider()
	mockVideos := NewMockVideosProvider()
	handler := worker.NewHandler(feedCache, mockSubs, mockVideos)

	// Scenario: creator has 3 subscribers
	creatorID := uuid.New()
	sub1 := uuid.New()
	sub2 := uuid.New()
	sub3 := uuid.New()

	mockSubs.AddSubscriber(creatorID, sub1)
	mockSubs.AddSubscriber(creatorID, sub2)
	mockSubs.AddSubscriber(creatorID, sub3)

	// Creator publishes a new video
	videoID := uuid.New()
	timestamp := time.Now().Unix()
	event := queue.Event{
		Type:      queue.EventVideoPublished,
		VideoID:   videoID,
		CreatorID: creatorID,
		Timestamp: timestamp,
	}

	if err := handler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	// Verify: video should be in all subscribers' feeds AND creator's own feed
	for _, userID := range []uuid.UUID{creatorID, sub1, sub2, sub3} {
		score, found, err := feedCache.GetScore(ctx, userID, videoID)
		if err != nil {
			t.Fatalf("GetScore failed for user %s: %v", userID, err)
		}
		if !found {
			t.Errorf("Video %s not found in user %s's feed", videoID, userID)
		}
		if score != timestamp {
			t.Errorf("Wrong timestamp for video in user %s's feed: got %d, want %d",
				userID, score, timestamp)
		}
	}

	for _, userID := range []uuid.UUID{creatorID, sub1, sub2, sub3} {
		size, _ := feedCache.Size(ctx, userID)
		if size != 1 {
			t.Errorf("User %s's feed size: got %d, want 1", userID, size)
		}
	}
}

// TestVideoDeletedRemoval tests that when a creator deletes a video,
// it gets removed from all subscribers' feeds.
func TestVideoDeletedRemoval(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	feedCache := cache.NewFeedCache(client)
	mockSubs := NewMockSubscriberProvider()
	mockVideos := NewMockVideosProvider()
	handler := worker.NewHandler(feedCache, mockSubs, mockVideos)

	creatorID := uuid.New()
	sub1 := uuid.New()
	sub2 := uuid.New()

	mockSubs.AddSubscriber(creatorID, sub1)
	mockSubs.AddSubscriber(creatorID, sub2)

	// Pre-populate: add a video to everyone's feed
	videoID := uuid.New()
	timestamp := time.Now().Unix()
	for _, userID := range []uuid.UUID{creatorID, sub1, sub2} {
		feedCache.AddVideo(ctx, userID, videoID, timestamp)
	}

	event := queue.Event{
		Type:      queue.EventVideoDeleted,
		VideoID:   videoID,
		CreatorID: creatorID,
		Timestamp: time.Now().Unix(),
	}

	if err := handler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	for _, userID := range []uuid.UUID{creatorID, sub1, sub2} {
		_, found, err := feedCache.GetScore(ctx, userID, videoID)
		if err != nil {
			t.Fatalf("GetScore failed for user %s: %v", userID, err)
		}
		if found {
			t.Errorf("Video should have been removed from user %s's feed", userID)
		}
	}
}

// TestUserSubscribedBackfill tests that when a viewer subscribes to a creator,
// the creator's recent videos are backfilled into the viewer's feed.
func TestUserSubscribedBackfill(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	feedCache := cache.NewFeedCache(client)
	mockSubs := NewMockSubscriberProvider()
	mockVideos := NewMockVideosProvider()
	handler := worker.NewHandler(feedCache, mockSubs, mockVideos)

	viewerID := uuid.New()
	creatorID := uuid.New()

	now := time.Now().Unix()
	video1 := uuid.New()
	video2 := uuid.New()
	video3 := uuid.New()
	mockVideos.AddVideo(creatorID, video1, now-3600) // 1 hour ago
	mockVideos.AddVideo(creatorID, video2, now-1800) // 30 min ago
	mockVideos.AddVideo(creatorID, video3, now-600)  // 10 min ago

	exists, _ := feedCache.Exists(ctx, viewerID)
	if exists {
		t.Fatal("Setup failed: viewer's feed should be empty initially")
	}

	event := queue.Event{
		Type:      queue.EventUserSubscribed,
		ViewerID:  viewerID,
		CreatorID: creatorID,
		Timestamp: now,
	}

	if err := handler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	size, _ := feedCache.Size(ctx, viewerID)
	if size != 3 {
		t.Errorf("Viewer's feed size: got %d, want 3", size)
	}

	for _, videoID := range []uuid.UUID{video1, video2, video3} {
		_, found, err := feedCache.GetScore(ctx, viewerID, videoID)
		if err != nil {
			t.Fatalf("GetScore failed: %v", err)
		}
		if !found {
			t.Errorf("Video %s not found in viewer's feed after subscribe", videoID)
		}
	}
}

// TestUserUnsubscribedRemoval tests that when a viewer unsubscribes,
// the creator's videos are removed from the viewer's feed while videos
// from other creators remain.
func TestUserUnsubscribedRemoval(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	feedCache := cache.NewFeedCache(client)
	mockSubs := NewMockSubscriberProvider()
	mockVideos := NewMockVideosProvider()
	handler := worker.NewHandler(feedCache, mockSubs, mockVideos)

	viewerID := uuid.New()
	unsubbedCreator := uuid.New()
	otherCreator := uuid.New()

	now := time.Now().Unix()

	// Unsubscribed creator's videos (to be removed)
	removed1 := uuid.New()
	removed2 := uuid.New()
	mockVideos.AddVideo(unsubbedCreator, removed1, now-3600)
	mockVideos.AddVideo(unsubbedCreator, removed2, now-1800)

	// Other creator's videos (should remain)
	kept1 := uuid.New()
	kept2 := uuid.New()
	mockVideos.AddVideo(otherCreator, kept1, now-2400)
	mockVideos.AddVideo(otherCreator, kept2, now-1200)

	// Pre-populate viewer's feed with all videos
	feedCache.AddVideo(ctx, viewerID, removed1, now-3600)
	feedCache.AddVideo(ctx, viewerID, removed2, now-1800)
	feedCache.AddVideo(ctx, viewerID, kept1, now-2400)
	feedCache.AddVideo(ctx, viewerID, kept2, now-1200)

	size, _ := feedCache.Size(ctx, viewerID)
	if size != 4 {
		t.Fatalf("Setup failed: feed should have 4 videos, got %d", size)
	}

	event := queue.Event{
		Type:      queue.EventUserUnsubscribed,
		ViewerID:  viewerID,
		CreatorID: unsubbedCreator,
		Timestamp: now,
	}

	if err := handler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	for _, videoID := range []uuid.UUID{removed1, removed2} {
		_, found, _ := feedCache.GetScore(ctx, viewerID, videoID)
		if found {
			t.Errorf("Video %s should have been removed from feed", videoID)
		}
	}

	for _, videoID := range []uuid.UUID{kept1, kept2} {
		_, found, _ := feedCache.GetScore(ctx, viewerID, videoID)
		if !found {
			t.Errorf("Video %s should still be in feed", videoID)
		}
	}

	size, _ = feedCache.Size(ctx, viewerID)
	if size != 2 {
		t.Errorf("Feed size after unsubscribe: got %d, want 2", size)
	}
}

// TestGenerationJobRouting tests that AI generation events reach the runner
// with the right job type and prompt.
func TestGenerationJobRouting(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	feedCache := cache.NewFeedCache(client)
	handler := worker.NewHandler(feedCache, NewMockSubscriberProvider(), NewMockVideosProvider())
	runner := &MockGenerationRunner{}
	handler.SetGenerationRunner(runner)

	videoID := uuid.New()
	creatorID := uuid.New()

	events := []queue.Event{
		queue.NewGenerateTitleEvent(videoID, creatorID, "a cooking tutorial"),
		queue.NewGenerateDescriptionEvent(videoID, creatorID, ""),
		queue.NewGenerateThumbnailEvent(videoID, creatorID, "sunset over mountains"),
	}
	for _, event := range events {
		if err := handler.HandleEvent(ctx, event); err != nil {
			t.Fatalf("HandleEvent(%s) failed: %v", event.Type, err)
		}
	}

	if len(runner.titleCalls) != 1 || runner.titleCalls[0] != videoID {
		t.Errorf("Expected 1 title generation for video %s, got %v", videoID, runner.titleCalls)
	}
	if len(runner.descriptionCalls) != 1 {
		t.Errorf("Expected 1 description generation, got %d", len(runner.descriptionCalls))
	}
	if len(runner.thumbnailCalls) != 1 {
		t.Errorf("Expected 1 thumbnail generation, got %d", len(runner.thumbnailCalls))
	}
	if runner.lastPrompt != "sunset over mountains" {
		t.Errorf("Prompt not forwarded: got %q", runner.lastPrompt)
	}
}

// TestGenerationSkippedWithoutRunner verifies AI events are acked (no error)
// when no runner is wired, so the stream doesn't back up.
func TestGenerationSkippedWithoutRunner(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()
	feedCache := cache.NewFeedCache(client)
	handler := worker.NewHandler(feedCache, NewMockSubscriberProvider(), NewMockVideosProvider())

	event := queue.NewGenerateTitleEvent(uuid.New(), uuid.New(), "")
	if err := handler.HandleEvent(ctx, event); err != nil {
		t.Fatalf("HandleEvent should not fail without a runner: %v", err)
	}
}

// =============================================================================
// Stream + Worker Integration Test
// =============================================================================

// TestStreamToWorkerIntegration tests the complete flow:
// Publisher -> Stream -> Consumer -> Handler -> Cache
func TestStreamToWorkerIntegration(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	ctx := context.Background()

	feedCache := cache.NewFeedCache(client)
	publisher := queue.NewPublisher(client)
	consumer := queue.NewConsumer(client)
	mockSubs := NewMockSubscriberProvider()
	mockVideos := NewMockVideosProvider()
	handler := worker.NewHandler(feedCache, mockSubs, mockVideos)

	creatorID := uuid.New()
	sub1 := uuid.New()
	sub2 := uuid.New()
	mockSubs.AddSubscriber(creatorID, sub1)
	mockSubs.AddSubscriber(creatorID, sub2)

	if err := consumer.EnsureGroup(ctx, queue.StreamFeed, queue.ConsumerGroupFeed); err != nil {
		t.Fatalf("EnsureGroup failed: %v", err)
	}

	videoID := uuid.New()
	event := queue.NewVideoPublishedEvent(videoID, creatorID)
	if _, err := publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	messages, err := consumer.Read(ctx, queue.StreamFeed, queue.ConsumerGroupFeed, "test-worker", 10, time.Second)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if err := handler.HandleEvent(ctx, msg.Event); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	if err := consumer.Ack(ctx, queue.StreamFeed, queue.ConsumerGroupFeed, msg.ID); err != nil {
		t.Fatalf("Ack failed: %v", err)
	}

	for _, userID := range []uuid.UUID{creatorID, sub1, sub2} {
		_, found, _ := feedCache.GetScore(ctx, userID, videoID)
		if !found {
			t.Errorf("Video not found in user %s's feed", userID)
		}
	}

	pending, _ := consumer.Pending(ctx, queue.StreamFeed, queue.ConsumerGroupFeed)
	if pending != 0 {
		t.Errorf("Expected 0 pending messages, got %d", pending)
	}
}
