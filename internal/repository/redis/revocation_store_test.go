package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibee/backend/internal/domain"
)

func newTestStore(t *testing.T) (*RevocationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRevocationStore(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestNewRevocationStore_BadURL(t *testing.T) {
	_, err := NewRevocationStore(context.Background(), "://nope")
	assert.Error(t, err)
}

func TestBlacklistToken_KeyAndTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BlacklistToken(ctx, "jti-1", 30*time.Minute))

	val, err := mr.Get("token_blacklist:jti-1")
	require.NoError(t, err)
	assert.Equal(t, "1", val)
	assert.Equal(t, 30*time.Minute, mr.TTL("token_blacklist:jti-1"))

	revoked, err := s.IsRevoked(ctx, "jti-1", "u1", time.Time{})
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(30 * time.Minute)
	revoked, err = s.IsRevoked(ctx, "jti-1", "u1", time.Time{})
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInvalidateUserTokens_Watermark(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	at := time.Unix(1_700_000_000, 0)

	require.NoError(t, s.InvalidateUserTokens(ctx, "u1", at, 7*24*time.Hour))

	val, err := mr.Get("user_token_invalidation:u1")
	require.NoError(t, err)
	assert.Equal(t, "1700000000000", val)
	assert.Equal(t, 7*24*time.Hour, mr.TTL("user_token_invalidation:u1"))

	tests := []struct {
		name     string
		subject  string
		issuedAt time.Time
		want     bool
	}{
		{name: "before watermark", subject: "u1", issuedAt: at.Add(-time.Second), want: true},
		{name: "earlier in the same second", subject: "u1", issuedAt: at.Add(-300 * time.Millisecond), want: true},
		{name: "same millisecond", subject: "u1", issuedAt: at, want: false},
		{name: "one millisecond later", subject: "u1", issuedAt: at.Add(time.Millisecond), want: false},
		{name: "after watermark", subject: "u1", issuedAt: at.Add(time.Second), want: false},
		{name: "no iat skips check", subject: "u1", issuedAt: time.Time{}, want: false},
		{name: "other subject", subject: "u2", issuedAt: at.Add(-time.Hour), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.IsRevoked(ctx, "", tt.subject, tt.issuedAt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInvalidateUserTokens_Overwrites(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	first := time.Unix(1_700_000_000, 0)
	second := first.Add(time.Hour)

	require.NoError(t, s.InvalidateUserTokens(ctx, "u1", first, time.Hour))
	require.NoError(t, s.InvalidateUserTokens(ctx, "u1", second, time.Hour))

	revoked, err := s.IsRevoked(ctx, "", "u1", first.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestIsRevoked_CorruptWatermark(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("user_token_invalidation:u1", "garbage"))

	_, err := s.IsRevoked(context.Background(), "", "u1", time.Now())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRevocationStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	t.Cleanup(func() { _ = s.Close() })
	mr.Close()

	ctx := context.Background()
	_, err := s.IsRevoked(ctx, "jti", "u1", time.Now())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	assert.ErrorIs(t, s.BlacklistToken(ctx, "jti", time.Minute), domain.ErrStoreUnavailable)
	assert.ErrorIs(t, s.InvalidateUserTokens(ctx, "u1", time.Now(), time.Minute), domain.ErrStoreUnavailable)
	assert.ErrorIs(t, s.Ping(ctx), domain.ErrStoreUnavailable)
}

func TestGetAndExists(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetWithTTL(ctx, "k", "v", time.Minute))
	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	exists, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
}
