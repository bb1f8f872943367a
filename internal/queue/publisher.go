package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the specified stream.
	// Returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event Event) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client) Publisher {
	return &RedisPublisher{client: client}
}

// Publish adds an event to the stream using XADD.
// Uses "*" for auto-generated message ID (timestamp-sequence).
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event Event) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		log.Printf("[Publisher] Publish FAILED: stream=%s type=%s err=%v", stream, event.Type, err)
		return "", fmt.Errorf("serialize event: %w", err)
	}

	// XADD stream * field value [field value ...]
	// "*" means Redis auto-generates the message ID
	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()

	if err != nil {
		log.Printf("[Publisher] Publish FAILED: stream=%s type=%s err=%v", stream, event.Type, err)
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.Printf("[Publisher] Publish OK: stream=%s type=%s msgID=%s duration=%v",
		stream, event.Type, messageID, time.Since(startTime))

	// Log event details for debugging
	switch event.Type {
	case EventVideoPublished, EventVideoDeleted:
		log.Printf("[Publisher]   -> video=%s creator=%s", event.VideoID, event.CreatorID)
	case EventUserSubscribed, EventUserUnsubscribed:
		log.Printf("[Publisher]   -> viewer=%s creator=%s", event.ViewerID, event.CreatorID)
	case EventGenerateTitle, EventGenerateDescription, EventGenerateThumbnail:
		log.Printf("[Publisher]   -> video=%s", event.VideoID)
	}

	return messageID, nil
}

// PublishVideoPublished is a convenience method for publishing video published events.
func (p *RedisPublisher) PublishVideoPublished(ctx context.Context, videoID, creatorID uuid.UUID) (string, error) {
	event := NewVideoPublishedEvent(videoID, creatorID)
	return p.Publish(ctx, StreamFeed, event)
}

// PublishVideoDeleted is a convenience method for publishing video deleted events.
func (p *RedisPublisher) PublishVideoDeleted(ctx context.Context, videoID, creatorID uuid.UUID) (string, error) {
	event := NewVideoDeletedEvent(videoID, creatorID)
	return p.Publish(ctx, StreamFeed, event)
}

// PublishUserSubscribed is a convenience method for publishing subscription events.
func (p *RedisPublisher) PublishUserSubscribed(ctx context.Context, viewerID, creatorID uuid.UUID) (string, error) {
	event := NewUserSubscribedEvent(viewerID, creatorID)
	return p.Publish(ctx, StreamFeed, event)
}
