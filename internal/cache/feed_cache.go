package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"doubtdesk/internal/model"
)

// FeedCache holds the composed per-class doubt feed so the hot read path does
// not hit Mongo on every poll. Writes invalidate; the fan-out layer is only a
// hint, the feed is the source of truth.
type FeedCache interface {
	Get(ctx context.Context, class string) ([]*model.DoubtFeedItem, error)
	Set(ctx context.Context, class string, feed []*model.DoubtFeedItem) error
	Invalidate(ctx context.Context, class string) error
}

type feedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedCache creates a new feed cache.
func NewFeedCache(client *redis.Client) FeedCache {
	return &feedCache{
		client: client,
		ttl:    30 * time.Second,
	}
}

func (c *feedCache) key(class string) string {
	return fmt.Sprintf("feed:%s", class)
}

func (c *feedCache) Get(ctx context.Context, class string) ([]*model.DoubtFeedItem, error) {
	data, err := c.client.Get(ctx, c.key(class)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var feed []*model.DoubtFeedItem
	if err := json.Unmarshal([]byte(data), &feed); err != nil {
		return nil, err
	}
	return feed, nil
}

func (c *feedCache) Set(ctx context.Context, class string, feed []*model.DoubtFeedItem) error {
	data, err := json.Marshal(feed)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(class), data, c.ttl).Err()
}

func (c *feedCache) Invalidate(ctx context.Context, class string) error {
	return c.client.Del(ctx, c.key(class)).Err()
}
