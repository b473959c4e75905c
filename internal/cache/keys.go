package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	CredentialVersionKeyPrefix = "user:%d:credver"
	BlacklistKeyPrefix         = "blacklist:%s"
)

const (
	CredentialVersionTTL = 10 * time.Minute
)

func CredentialVersionKey(userID uint) string {
	return fmt.Sprintf(CredentialVersionKeyPrefix, userID)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateCredentialVersion(ctx context.Context, userID uint) {
	Invalidate(ctx, CredentialVersionKey(userID))
}

// Revoke marks a token id as revoked until ttl elapses.
func Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return client.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti has been revoked. Without Redis nothing is revoked.
func IsRevoked(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
