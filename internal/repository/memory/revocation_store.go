// Package memory provides in-process implementations of the repository
// contracts. They are safe for concurrent use but only suitable for a single
// instance: development runs and tests.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"
)

const (
	blacklistPrefix = "token_blacklist:"
	watermarkPrefix = "user_token_invalidation:"
)

type entry struct {
	value      string
	expiration time.Time
}

// RevocationStore is a TTL map keyed the same way as the Redis store.
type RevocationStore struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

// NewRevocationStore returns an empty store. A nil now defaults to time.Now.
func NewRevocationStore(now func() time.Time) *RevocationStore {
	if now == nil {
		now = time.Now
	}
	return &RevocationStore{items: make(map[string]entry), now: now}
}

func (s *RevocationStore) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	s.SetWithTTL(blacklistPrefix+jti, "1", ttl)
	return nil
}

func (s *RevocationStore) InvalidateUserTokens(ctx context.Context, subject string, at time.Time, ttl time.Duration) error {
	s.SetWithTTL(watermarkPrefix+subject, strconv.FormatInt(at.UnixMilli(), 10), ttl)
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, jti, subject string, issuedAt time.Time) (bool, error) {
	if jti != "" && s.Exists(blacklistPrefix+jti) {
		return true, nil
	}
	if issuedAt.IsZero() {
		return false, nil
	}
	val, ok := s.Get(watermarkPrefix + subject)
	if !ok {
		return false, nil
	}
	watermark, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, err
	}
	return issuedAt.UnixMilli() < watermark, nil
}

func (s *RevocationStore) SetWithTTL(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = entry{value: value, expiration: s.now().Add(ttl)}
}

// Get returns the value of key if it exists and has not expired.
func (s *RevocationStore) Get(key string) (string, bool) {
	s.mu.RLock()
	e, exists := s.items[key]
	s.mu.RUnlock()

	if !exists {
		return "", false
	}
	if !s.now().Before(e.expiration) {
		s.mu.Lock()
		if cur, ok := s.items[key]; ok && cur.expiration.Equal(e.expiration) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return "", false
	}
	return e.value, true
}

func (s *RevocationStore) Exists(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Purge drops every expired entry and returns how many were removed.
func (s *RevocationStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for k, e := range s.items {
		if !now.Before(e.expiration) {
			delete(s.items, k)
			n++
		}
	}
	return n
}

// RunJanitor purges expired entries every interval until ctx is done.
func (s *RevocationStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Purge()
		}
	}
}

func (s *RevocationStore) Ping(context.Context) error { return nil }

func (s *RevocationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]entry)
	return nil
}
