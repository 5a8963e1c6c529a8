package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"colorfest/services/analytics-service/internal/models"
)

const feedCacheKey = "colorfest:feed:latest"

// CachedFeed is the last successfully fetched upstream feed
type CachedFeed struct {
	FetchedAt time.Time         `json:"fetched_at"`
	Events    []models.RawEvent `json:"events"`
}

// FeedCache keeps the last good feed across restarts
type FeedCache interface {
	Save(ctx context.Context, feed CachedFeed) error
	Load(ctx context.Context) (*CachedFeed, error)
}

type feedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedCache creates a Redis-backed feed cache. A zero ttl keeps the key
// until it is overwritten.
func NewFeedCache(client *redis.Client, ttl time.Duration) FeedCache {
	return &feedCache{client: client, ttl: ttl}
}

func (c *feedCache) Save(ctx context.Context, feed CachedFeed) error {
	payload, err := json.Marshal(feed)
	if err != nil {
		return fmt.Errorf("failed to encode feed: %w", err)
	}
	if err := c.client.Set(ctx, feedCacheKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache feed: %w", err)
	}
	return nil
}

// Load returns nil without error when nothing is cached
func (c *feedCache) Load(ctx context.Context) (*CachedFeed, error) {
	payload, err := c.client.Get(ctx, feedCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cached feed: %w", err)
	}

	var feed CachedFeed
	if err := json.Unmarshal(payload, &feed); err != nil {
		return nil, fmt.Errorf("failed to decode cached feed: %w", err)
	}
	return &feed, nil
}
