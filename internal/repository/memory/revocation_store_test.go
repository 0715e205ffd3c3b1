package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestRevocationStore_BlacklistExpires(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	s := NewRevocationStore(clk.Now)
	ctx := context.Background()

	require.NoError(t, s.BlacklistToken(ctx, "jti", time.Minute))

	revoked, err := s.IsRevoked(ctx, "jti", "u1", time.Time{})
	require.NoError(t, err)
	assert.True(t, revoked)

	clk.Advance(59 * time.Second)
	assert.True(t, s.Exists("token_blacklist:jti"), "must not expire early")

	clk.Advance(time.Second)
	revoked, err = s.IsRevoked(ctx, "jti", "u1", time.Time{})
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationStore_Watermark(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	s := NewRevocationStore(clk.Now)
	ctx := context.Background()
	at := clk.Now()

	require.NoError(t, s.InvalidateUserTokens(ctx, "u1", at, time.Hour))

	revoked, err := s.IsRevoked(ctx, "", "u1", at.Add(-time.Second))
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsRevoked(ctx, "", "u1", at.Add(-time.Millisecond))
	require.NoError(t, err)
	assert.True(t, revoked, "sub-second issue instants are compared")

	revoked, err = s.IsRevoked(ctx, "", "u1", at)
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = s.IsRevoked(ctx, "", "u1", time.Time{})
	require.NoError(t, err)
	assert.False(t, revoked)

	clk.Advance(time.Hour)
	revoked, err = s.IsRevoked(ctx, "", "u1", at.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationStore_Purge(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	s := NewRevocationStore(clk.Now)

	s.SetWithTTL("a", "1", time.Minute)
	s.SetWithTTL("b", "1", time.Hour)
	clk.Advance(2 * time.Minute)

	assert.Equal(t, 1, s.Purge())
	assert.True(t, s.Exists("b"))
}

func TestRevocationStore_ConcurrentAccess(t *testing.T) {
	s := NewRevocationStore(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jti := string(rune('a' + i%26))
			_ = s.BlacklistToken(ctx, jti, time.Minute)
			_, _ = s.IsRevoked(ctx, jti, "u", time.Now())
		}(i)
	}
	wg.Wait()

	revoked, err := s.IsRevoked(ctx, "a", "u", time.Time{})
	require.NoError(t, err)
	assert.True(t, revoked)
}
