package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types for the feed stream
const (
	EventVideoPublished   = "video_published"
	EventVideoDeleted     = "video_deleted"
	EventUserSubscribed   = "user_subscribed"
	EventUserUnsubscribed = "user_unsubscribed"
)

// Event types for the AI generation stream
const (
	EventGenerateTitle       = "generate_title"
	EventGenerateDescription = "generate_description"
	EventGenerateThumbnail   = "generate_thumbnail"
)

// Stream names
const (
	StreamFeed = "stream:feed"
	StreamAI   = "stream:ai"
)

// Consumer group names
const (
	ConsumerGroupFeed = "feed_workers"
	ConsumerGroupAI   = "ai_workers"
)

// Event represents an event published to a stream.
// Feed events and AI generation jobs share this structure.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	// Video events (VideoPublished, VideoDeleted) and AI jobs
	VideoID   uuid.UUID `json:"video_id,omitempty"`
	CreatorID uuid.UUID `json:"creator_id,omitempty"`

	// Subscription events (UserSubscribed, UserUnsubscribed)
	ViewerID uuid.UUID `json:"viewer_id,omitempty"`

	// AI generation jobs: a hint prompt supplied by the creator, may be empty.
	Prompt string `json:"prompt,omitempty"`
}

// NewVideoPublishedEvent creates an event for when a video becomes publicly
// visible. Worker will fan-out this video to all subscribers' feed caches.
func NewVideoPublishedEvent(videoID, creatorID uuid.UUID) Event {
	return Event{
		Type:      EventVideoPublished,
		Timestamp: time.Now().Unix(),
		VideoID:   videoID,
		CreatorID: creatorID,
	}
}

// NewVideoDeletedEvent creates an event for when a video is deleted or
// unpublished. Worker will remove it from all subscribers' feed caches.
func NewVideoDeletedEvent(videoID, creatorID uuid.UUID) Event {
	return Event{
		Type:      EventVideoDeleted,
		Timestamp: time.Now().Unix(),
		VideoID:   videoID,
		CreatorID: creatorID,
	}
}

// NewUserSubscribedEvent creates an event for when a viewer subscribes to a
// creator. Worker will backfill the creator's recent videos into the viewer's
// feed cache.
func NewUserSubscribedEvent(viewerID, creatorID uuid.UUID) Event {
	return Event{
		Type:      EventUserSubscribed,
		Timestamp: time.Now().Unix(),
		ViewerID:  viewerID,
		CreatorID: creatorID,
	}
}

// NewUserUnsubscribedEvent creates an event for when a viewer unsubscribes.
// Worker will remove the creator's videos from the viewer's feed cache.
func NewUserUnsubscribedEvent(viewerID, creatorID uuid.UUID) Event {
	return Event{
		Type:      EventUserUnsubscribed,
		Timestamp: time.Now().Unix(),
		ViewerID:  viewerID,
		CreatorID: creatorID,
	}
}

// NewGenerateTitleEvent creates an AI job to generate a title for a video.
func NewGenerateTitleEvent(videoID, creatorID uuid.UUID, prompt string) Event {
	return Event{
		Type:      EventGenerateTitle,
		Timestamp: time.Now().Unix(),
		VideoID:   videoID,
		CreatorID: creatorID,
		Prompt:    prompt,
	}
}

// NewGenerateDescriptionEvent creates an AI job to generate a description.
func NewGenerateDescriptionEvent(videoID, creatorID uuid.UUID, prompt string) Event {
	return Event{
		Type:      EventGenerateDescription,
		Timestamp: time.Now().Unix(),
		VideoID:   videoID,
		CreatorID: creatorID,
		Prompt:    prompt,
	}
}

// NewGenerateThumbnailEvent creates an AI job to generate a thumbnail image.
func NewGenerateThumbnailEvent(videoID, creatorID uuid.UUID, prompt string) Event {
	return Event{
		Type:      EventGenerateThumbnail,
		Timestamp: time.Now().Unix(),
		VideoID:   videoID,
		CreatorID: creatorID,
		Prompt:    prompt,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e Event) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEvent parses an Event from Redis stream message values.
func ParseEvent(values map[string]interface{}) (Event, error) {
	data, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
