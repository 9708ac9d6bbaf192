package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StudentCache caches student display names used when annotating answer
// lists. Names change rarely, so a long TTL is fine.
type StudentCache interface {
	GetName(ctx context.Context, studentID string) (string, error)
	SetName(ctx context.Context, studentID, name string) error
}

type studentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStudentCache creates a new student cache.
func NewStudentCache(client *redis.Client) StudentCache {
	return &studentCache{
		client: client,
		ttl:    1 * time.Hour,
	}
}

func (c *studentCache) key(studentID string) string {
	return fmt.Sprintf("student:name:%s", studentID)
}

// GetName returns the cached name, or "" on a miss.
func (c *studentCache) GetName(ctx context.Context, studentID string) (string, error) {
	name, err := c.client.Get(ctx, c.key(studentID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func (c *studentCache) SetName(ctx context.Context, studentID, name string) error {
	return c.client.Set(ctx, c.key(studentID), name, c.ttl).Err()
}
