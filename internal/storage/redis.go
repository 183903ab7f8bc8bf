package storage

import (
	"context"
	"encoding/json"
	"errors"
	"gurimarket/backend/internal/models"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	suspendedKeyPrefix = "suspended:"
	seenKeyPrefix      = "trigger:seen:"
	resumeTokenKey     = "trigger:resume:"

	// ModerationChannel carries ModerationEvent JSON to feed subscribers.
	ModerationChannel = "moderation:events"
)

// Cache holds the engine's Redis-backed state: the suspension cache,
// trigger dedup markers, change-stream resume tokens and the moderation feed.
type Cache struct {
	Redis *redis.Client
}

// NewCache wraps an existing Redis client.
func NewCache(rdb *redis.Client) *Cache {
	return &Cache{Redis: rdb}
}

// MarkSuspended caches a suspension until the given deadline. The key
// expires on its own when the suspension lapses.
func (c *Cache) MarkSuspended(ctx context.Context, uid string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return c.ClearSuspended(ctx, uid)
	}
	return c.Redis.Set(ctx, suspendedKeyPrefix+uid, until.UTC().Format(time.RFC3339), ttl).Err()
}

// ClearSuspended drops the cached suspension for uid.
func (c *Cache) ClearSuspended(ctx context.Context, uid string) error {
	return c.Redis.Del(ctx, suspendedKeyPrefix+uid).Err()
}

// IsUserSuspended checks the suspension cache.
func (c *Cache) IsUserSuspended(ctx context.Context, uid string) (bool, error) {
	status, err := c.Redis.Get(ctx, suspendedKeyPrefix+uid).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status != "", nil
}

// SeenOnce records eventID and reports whether this is the first time it
// has been seen within ttl.
func (c *Cache) SeenOnce(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	return c.Redis.SetNX(ctx, seenKeyPrefix+eventID, 1, ttl).Result()
}

// Forget releases a dedup marker so a failed event can be redelivered.
func (c *Cache) Forget(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	return c.Redis.Del(ctx, seenKeyPrefix+eventID).Err()
}

// SaveResumeToken stores the last processed change-stream token for a
// watched collection.
func (c *Cache) SaveResumeToken(ctx context.Context, collection string, token []byte) error {
	return c.Redis.Set(ctx, resumeTokenKey+collection, token, 0).Err()
}

// LoadResumeToken returns nil when no token has been stored yet.
func (c *Cache) LoadResumeToken(ctx context.Context, collection string) ([]byte, error) {
	token, err := c.Redis.Get(ctx, resumeTokenKey+collection).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return token, err
}

// PublishModeration fans a moderation event out to feed subscribers.
func (c *Cache) PublishModeration(ctx context.Context, ev models.ModerationEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.Redis.Publish(ctx, ModerationChannel, payload).Err()
}

// SubscribeModeration subscribes to the moderation feed. The caller closes
// the returned PubSub.
func (c *Cache) SubscribeModeration(ctx context.Context) *redis.PubSub {
	return c.Redis.Subscribe(ctx, ModerationChannel)
}
