package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"vidtube/internal/model"
	"vidtube/internal/queue"
	"vidtube/internal/repository"
)

// signatureTolerance bounds how old a signed webhook timestamp may be.
const signatureTolerance = 5 * time.Minute

// Webhook errors
var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrStaleSignature   = errors.New("webhook signature timestamp out of tolerance")
)

// WebhookService verifies and applies media pipeline events. Updates are
// last-write-wins keyed by asset id; the pipeline retries delivery, we don't.
type WebhookService struct {
	videoRepo repository.VideoRepository
	publisher queue.Publisher
	secret    []byte
	now       func() time.Time
}

func NewWebhookService(videoRepo repository.VideoRepository, publisher queue.Publisher, secret string) *WebhookService {
	return &WebhookService{
		videoRepo: videoRepo,
		publisher: publisher,
		secret:    []byte(secret),
		now:       time.Now,
	}
}

// VerifySignature checks a "t=<unix>,v1=<hex>" signature header against the
// raw body. The signed payload is "<t>.<body>" with HMAC-SHA256, so a replay
// with an old timestamp or a tampered body both fail.
func (s *WebhookService) VerifySignature(header string, body []byte) error {
	var timestampStr, signature string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestampStr = kv[1]
		case "v1":
			signature = kv[1]
		}
	}
	if timestampStr == "" || signature == "" {
		return ErrInvalidSignature
	}

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}

	age := s.now().Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrStaleSignature
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(timestampStr))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// HandleEvent applies a verified pipeline event to the matching video row.
// Unknown event types are logged and dropped, not failed: the pipeline adds
// event types over time and old deployments must keep accepting deliveries.
func (s *WebhookService) HandleEvent(ctx context.Context, event model.PipelineEvent) error {
	log.Printf("[Webhook] Event: type=%s", event.Type)

	switch event.Type {
	case model.PipelineAssetCreated:
		return s.handleAssetCreated(ctx, event)
	case model.PipelineAssetReady:
		return s.handleAssetReady(ctx, event)
	case model.PipelineAssetErrored:
		return s.handleAssetErrored(ctx, event)
	case model.PipelineAssetDeleted:
		return s.handleAssetDeleted(ctx, event)
	case model.PipelineTrackReady:
		var data model.PipelineTrackData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("decode track data: %w", err)
		}
		log.Printf("[Webhook] Track ready: asset=%s track=%s type=%s", data.AssetID, data.TrackID, data.Type)
		return nil
	case model.PipelineUploadCancelled:
		log.Printf("[Webhook] Upload cancelled")
		return nil
	default:
		log.Printf("[Webhook] Ignoring unknown event type: %s", event.Type)
		return nil
	}
}

// handleAssetCreated binds the new asset to its draft via the upload id and
// moves the draft to "preparing". Status transitions bump updated_at.
func (s *WebhookService) handleAssetCreated(ctx context.Context, event model.PipelineEvent) error {
	var data model.PipelineAssetData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("decode asset data: %w", err)
	}

	if err := s.videoRepo.BindAsset(ctx, data.UploadID, data.AssetID); err != nil {
		return fmt.Errorf("bind asset: %w", err)
	}

	if err := s.videoRepo.ApplyAssetUpdate(ctx, data.AssetID, model.VideoStatusPreparing, nil, nil, nil); err != nil {
		return fmt.Errorf("apply asset update: %w", err)
	}

	log.Printf("[Webhook] Asset created: asset=%s upload=%s", data.AssetID, data.UploadID)
	return nil
}

// handleAssetReady stores playback details and, for public videos, publishes
// the feed fan-out event.
func (s *WebhookService) handleAssetReady(ctx context.Context, event model.PipelineEvent) error {
	var data model.PipelineAssetData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("decode asset data: %w", err)
	}

	var durationMS *int64
	if data.DurationS > 0 {
		ms := int64(data.DurationS * 1000)
		durationMS = &ms
	}

	var previewURL *string
	if data.PlaybackID != nil {
		url := fmt.Sprintf("https://stream.vidtube.dev/%s/preview.webp", *data.PlaybackID)
		previewURL = &url
	}

	if err := s.videoRepo.ApplyAssetUpdate(ctx, data.AssetID, model.VideoStatusReady, data.PlaybackID, durationMS, previewURL); err != nil {
		return fmt.Errorf("apply asset update: %w", err)
	}

	log.Printf("[Webhook] Asset ready: asset=%s", data.AssetID)

	// The video just became watchable; fan it out to subscriber feeds.
	video, err := s.videoRepo.GetByAssetID(ctx, data.AssetID)
	if err != nil {
		log.Printf("[Webhook] Asset ready but video lookup failed: asset=%s err=%v", data.AssetID, err)
		return nil
	}
	if video.Visibility == model.VisibilityPublic && s.publisher != nil {
		fanout := queue.NewVideoPublishedEvent(video.ID, video.UserID)
		if _, err := s.publisher.Publish(ctx, queue.StreamFeed, fanout); err != nil {
			log.Printf("[Webhook] Failed to publish VideoPublished: video=%s err=%v", video.ID, err)
		}
	}

	return nil
}

func (s *WebhookService) handleAssetErrored(ctx context.Context, event model.PipelineEvent) error {
	var data model.PipelineAssetData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("decode asset data: %w", err)
	}

	if err := s.videoRepo.ApplyAssetUpdate(ctx, data.AssetID, model.VideoStatusErrored, nil, nil, nil); err != nil {
		return fmt.Errorf("apply asset update: %w", err)
	}

	if data.Error != nil {
		log.Printf("[Webhook] Asset errored: asset=%s error=%s", data.AssetID, *data.Error)
	} else {
		log.Printf("[Webhook] Asset errored: asset=%s", data.AssetID)
	}
	return nil
}

// handleAssetDeleted marks the video unplayable and clears it from feeds.
func (s *WebhookService) handleAssetDeleted(ctx context.Context, event model.PipelineEvent) error {
	var data model.PipelineAssetData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("decode asset data: %w", err)
	}

	video, err := s.videoRepo.GetByAssetID(ctx, data.AssetID)
	if err != nil {
		log.Printf("[Webhook] Asset deleted for unknown video: asset=%s", data.AssetID)
		return nil
	}

	if err := s.videoRepo.ApplyAssetUpdate(ctx, data.AssetID, model.VideoStatusErrored, nil, nil, nil); err != nil {
		return fmt.Errorf("apply asset update: %w", err)
	}

	if s.publisher != nil {
		event := queue.NewVideoDeletedEvent(video.ID, video.UserID)
		if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
			log.Printf("[Webhook] Failed to publish VideoDeleted: video=%s err=%v", video.ID, err)
		}
	}

	log.Printf("[Webhook] Asset deleted: asset=%s video=%s", data.AssetID, video.ID)
	return nil
}
