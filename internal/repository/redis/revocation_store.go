// Package redis implements the revocation store on Redis. Blacklist entries
// and user watermarks are plain string keys with a TTL, so Redis expiry
// removes them without any sweeping.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bibee/backend/internal/domain"
)

const (
	blacklistPrefix = "token_blacklist:"
	watermarkPrefix = "user_token_invalidation:"
)

type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore connects to url and verifies the connection. The
// returned store owns the client; call Close at shutdown.
func NewRevocationStore(ctx context.Context, url string) (*RevocationStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RevocationStore{client: client}, nil
}

// NewRevocationStoreFromClient wraps an existing client.
func NewRevocationStoreFromClient(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

func (s *RevocationStore) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	return s.SetWithTTL(ctx, blacklistPrefix+jti, "1", ttl)
}

func (s *RevocationStore) InvalidateUserTokens(ctx context.Context, subject string, at time.Time, ttl time.Duration) error {
	return s.SetWithTTL(ctx, watermarkPrefix+subject, strconv.FormatInt(at.UnixMilli(), 10), ttl)
}

func (s *RevocationStore) IsRevoked(ctx context.Context, jti, subject string, issuedAt time.Time) (bool, error) {
	if jti != "" {
		blacklisted, err := s.Exists(ctx, blacklistPrefix+jti)
		if err != nil {
			return false, err
		}
		if blacklisted {
			return true, nil
		}
	}

	if issuedAt.IsZero() {
		return false, nil
	}
	val, ok, err := s.Get(ctx, watermarkPrefix+subject)
	if err != nil || !ok {
		return false, err
	}
	watermark, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// A corrupt watermark cannot be trusted either way.
		return false, fmt.Errorf("%w: bad watermark for %s: %v", domain.ErrStoreUnavailable, subject, err)
	}
	return issuedAt.UnixMilli() < watermark, nil
}

func (s *RevocationStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Get returns the value of key and whether it exists.
func (s *RevocationStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable(err)
	}
	return val, true, nil
}

func (s *RevocationStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

func (s *RevocationStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RevocationStore) Close() error {
	return s.client.Close()
}

func unavailable(err error) error {
	return fmt.Errorf("%w: redis: %v", domain.ErrStoreUnavailable, err)
}
