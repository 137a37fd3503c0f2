package redisinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/go-registration-api/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const cooldownPrefix = "verification_cooldown:"

// CooldownCache stores short-lived resend-cooldown markers. SetNX makes the
// check-and-set atomic per key, so a second resend inside the window is
// rejected deterministically, not just "likely".
type CooldownCache struct {
	client *redis.Client
}

// NewClient creates a Redis client from the configured URL.
func NewClient(cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	return redis.NewClient(opts), nil
}

func NewCooldownCache(client *redis.Client) *CooldownCache {
	return &CooldownCache{client: client}
}

// Acquire sets the cooldown marker for (userID, channel) if none exists.
// Returns false when a marker is already present (cooldown active).
func (c *CooldownCache) Acquire(ctx context.Context, userID, channel string, ttl time.Duration) (bool, error) {
	key := cooldownPrefix + userID + ":" + channel
	ok, err := c.client.SetNX(ctx, key, time.Now().UTC().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set cooldown marker: %w", err)
	}
	return ok, nil
}

// Clear removes the cooldown marker, used when an admin resets verification.
func (c *CooldownCache) Clear(ctx context.Context, userID, channel string) error {
	key := cooldownPrefix + userID + ":" + channel
	return c.client.Del(ctx, key).Err()
}
