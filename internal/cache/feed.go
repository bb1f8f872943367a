package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// FeedCachePrefix is the key prefix for per-viewer subscription feeds
	FeedCachePrefix = "feed:user:"

	// FeedCacheCap is the maximum number of videos cached per viewer
	FeedCacheCap = 500

	// FeedCacheTTL is the TTL for feed cache entries (7 days)
	FeedCacheTTL = 7 * 24 * time.Hour
)

// VideoScore pairs a video with its updated_at score for caching.
type VideoScore struct {
	VideoID   uuid.UUID
	Timestamp int64 // Unix timestamp of updated_at
}

// FeedCache holds each viewer's subscription feed as a sorted set of video
// ids scored by updated_at. An interface so services and workers can be
// tested with in-memory fakes.
type FeedCache interface {
	// AddVideo adds a video to a viewer's feed cache.
	// Pipeline: ZADD + ZREMRANGEBYRANK (maintain cap) + EXPIRE (refresh TTL)
	AddVideo(ctx context.Context, viewerID, videoID uuid.UUID, timestamp int64) error

	// RemoveVideo removes a video from a viewer's feed cache.
	RemoveVideo(ctx context.Context, viewerID, videoID uuid.UUID) error

	// GetFeed retrieves video ids from a viewer's feed cache. A nil cursor
	// returns the newest entries; otherwise entries with score strictly
	// below the cursor score.
	GetFeed(ctx context.Context, viewerID uuid.UUID, cursorScore *float64, limit int) (videoIDs []uuid.UUID, scores []float64, err error)

	// WarmCache bulk-inserts videos into a viewer's feed cache.
	WarmCache(ctx context.Context, viewerID uuid.UUID, videos []VideoScore) error

	// RemoveCreatorVideos drops a set of videos from one viewer's cache,
	// used when the viewer unsubscribes from their creator.
	RemoveCreatorVideos(ctx context.Context, viewerID uuid.UUID, videoIDs []uuid.UUID) error

	// Exists checks if a viewer has a feed cache entry. False means a new
	// viewer or an expired TTL; the service warms the cache in that case.
	Exists(ctx context.Context, viewerID uuid.UUID) (bool, error)

	// GetScore returns the score of a video in a viewer's feed, if present.
	GetScore(ctx context.Context, viewerID, videoID uuid.UUID) (score int64, found bool, err error)

	// Size returns the number of videos in a viewer's feed cache.
	Size(ctx context.Context, viewerID uuid.UUID) (int64, error)
}

// RedisFeedCache implements FeedCache using Redis sorted sets.
type RedisFeedCache struct {
	client *redis.Client
}

// NewFeedCache creates a new FeedCache backed by Redis.
func NewFeedCache(client *redis.Client) FeedCache {
	return &RedisFeedCache{client: client}
}

func feedKey(viewerID uuid.UUID) string {
	return FeedCachePrefix + viewerID.String()
}

// AddVideo adds a video to a viewer's feed cache using a pipeline.
func (c *RedisFeedCache) AddVideo(ctx context.Context, viewerID, videoID uuid.UUID, timestamp int64) error {
	key := feedKey(viewerID)

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(timestamp),
		Member: videoID.String(),
	})
	// Trim to cap: keep the FeedCacheCap highest scores (newest)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-FeedCacheCap-1))
	pipe.Expire(ctx, key, FeedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[FeedCache] AddVideo FAILED: viewer=%s video=%s err=%v", viewerID, videoID, err)
		return fmt.Errorf("add video to feed: %w", err)
	}
	return nil
}

// RemoveVideo removes a video from a viewer's feed cache.
func (c *RedisFeedCache) RemoveVideo(ctx context.Context, viewerID, videoID uuid.UUID) error {
	if err := c.client.ZRem(ctx, feedKey(viewerID), videoID.String()).Err(); err != nil {
		log.Printf("[FeedCache] RemoveVideo FAILED: viewer=%s video=%s err=%v", viewerID, videoID, err)
		return fmt.Errorf("remove video from feed: %w", err)
	}
	return nil
}

// GetFeed retrieves video ids from a viewer's feed cache.
func (c *RedisFeedCache) GetFeed(ctx context.Context, viewerID uuid.UUID, cursorScore *float64, limit int) ([]uuid.UUID, []float64, error) {
	key := feedKey(viewerID)

	var results []redis.Z
	var err error

	if cursorScore == nil {
		results, err = c.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	} else {
		// "(" prefix makes the upper bound exclusive
		results, err = c.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
			Min:    "-inf",
			Max:    fmt.Sprintf("(%f", *cursorScore),
			Offset: 0,
			Count:  int64(limit),
		}).Result()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get feed from cache: %w", err)
	}

	videoIDs := make([]uuid.UUID, 0, len(results))
	scores := make([]float64, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(member)
		if err != nil {
			log.Printf("[FeedCache] GetFeed: skipping malformed member %q", member)
			continue
		}
		videoIDs = append(videoIDs, id)
		scores = append(scores, z.Score)
	}

	return videoIDs, scores, nil
}

// WarmCache bulk-inserts videos into a viewer's feed cache.
func (c *RedisFeedCache) WarmCache(ctx context.Context, viewerID uuid.UUID, videos []VideoScore) error {
	if len(videos) == 0 {
		return nil
	}
	key := feedKey(viewerID)

	members := make([]redis.Z, len(videos))
	for i, v := range videos {
		members[i] = redis.Z{
			Score:  float64(v.Timestamp),
			Member: v.VideoID.String(),
		}
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-FeedCacheCap-1))
	pipe.Expire(ctx, key, FeedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[FeedCache] WarmCache FAILED: viewer=%s videos=%d err=%v", viewerID, len(videos), err)
		return fmt.Errorf("warm feed cache: %w", err)
	}

	log.Printf("[FeedCache] WarmCache OK: viewer=%s videos=%d", viewerID, len(videos))
	return nil
}

// RemoveCreatorVideos drops the given videos from one viewer's cache.
func (c *RedisFeedCache) RemoveCreatorVideos(ctx context.Context, viewerID uuid.UUID, videoIDs []uuid.UUID) error {
	if len(videoIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(videoIDs))
	for i, id := range videoIDs {
		members[i] = id.String()
	}
	if err := c.client.ZRem(ctx, feedKey(viewerID), members...).Err(); err != nil {
		return fmt.Errorf("remove creator videos from feed: %w", err)
	}
	return nil
}

// Exists checks if a viewer has a feed cache entry.
func (c *RedisFeedCache) Exists(ctx context.Context, viewerID uuid.UUID) (bool, error) {
	n, err := c.client.Exists(ctx, feedKey(viewerID)).Result()
	if err != nil {
		return false, fmt.Errorf("check feed cache existence: %w", err)
	}
	return n > 0, nil
}

// GetScore returns the score of a video in a viewer's feed, if present.
func (c *RedisFeedCache) GetScore(ctx context.Context, viewerID, videoID uuid.UUID) (int64, bool, error) {
	score, err := c.client.ZScore(ctx, feedKey(viewerID), videoID.String()).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get feed score: %w", err)
	}
	return int64(score), true, nil
}

// Size returns the number of videos in a viewer's feed cache.
func (c *RedisFeedCache) Size(ctx context.Context, viewerID uuid.UUID) (int64, error) {
	n, err := c.client.ZCard(ctx, feedKey(viewerID)).Result()
	if err != nil {
		return 0, fmt.Errorf("get feed size: %w", err)
	}
	return n, nil
}
