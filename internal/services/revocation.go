package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList records users whose outstanding tokens must be refused.
type RevocationList interface {
	Revoke(ctx context.Context, userID string) error
	IsRevoked(ctx context.Context, userID string) (bool, error)
}

const revokedUserKeyPrefix = "revoked:user:"

// RedisRevocationList keeps revoked user ids in Redis. Entries expire after
// ttl, the lifetime of a token, since older tokens fail verification anyway.
type RedisRevocationList struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRevocationList creates a new RedisRevocationList.
func NewRedisRevocationList(client *redis.Client, ttl time.Duration) *RedisRevocationList {
	return &RedisRevocationList{client: client, ttl: ttl}
}

func (r *RedisRevocationList) Revoke(ctx context.Context, userID string) error {
	if err := r.client.Set(ctx, revokedUserKeyPrefix+userID, 1, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user: %w", err)
	}
	return nil
}

func (r *RedisRevocationList) IsRevoked(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedUserKeyPrefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return n > 0, nil
}

// NoopRevocationList is used when no Redis is configured; tokens then live
// until their natural expiry.
type NoopRevocationList struct{}

func (NoopRevocationList) Revoke(context.Context, string) error { return nil }

func (NoopRevocationList) IsRevoked(context.Context, string) (bool, error) { return false, nil }
