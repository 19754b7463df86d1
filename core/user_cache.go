package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache key grammar. The two key spaces are independent slots: a write to
// one never populates the other.
const (
	userKeyByID    = "user:%d"
	userKeyByEmail = "user_email:%s"
)

// UserCache mirrors User rows into the cache as UTF-8 JSON. It never
// originates identity; it only reflects what the durable store committed.
type UserCache struct {
	client *redis.Client
	ttl    time.Duration // by-email entry lifetime
}

func NewUserCache(client *redis.Client, ttl time.Duration) *UserCache {
	return &UserCache{client: client, ttl: ttl}
}

// SetByID writes the by-id slot without expiry.
func (c *UserCache) SetByID(ctx context.Context, u User) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return wrapKind(ErrSerialization, err)
	}
	if err := c.client.Set(ctx, fmt.Sprintf(userKeyByID, u.ID), payload, 0).Err(); err != nil {
		return cacheError(err)
	}
	return nil
}

// SetByEmail writes the by-email slot with the configured TTL.
func (c *UserCache) SetByEmail(ctx context.Context, u User) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return wrapKind(ErrSerialization, err)
	}
	if err := c.client.Set(ctx, fmt.Sprintf(userKeyByEmail, u.Email), payload, c.ttl).Err(); err != nil {
		return cacheError(err)
	}
	return nil
}

// GetByEmail reads the by-email slot. A miss returns (nil, nil). A malformed
// payload returns ErrDeserialization so the caller can choose fallback
// policy; connectivity failures return ErrConnection.
func (c *UserCache) GetByEmail(ctx context.Context, email string) (*User, error) {
	payload, err := c.client.Get(ctx, fmt.Sprintf(userKeyByEmail, email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, cacheError(err)
	}

	var u User
	if err := json.Unmarshal(payload, &u); err != nil {
		return nil, wrapKind(ErrDeserialization, err)
	}
	return &u, nil
}
