package domain

import (
	"context"
	"time"
)

// RevocationStore holds per-token blacklist entries and per-user
// invalidation watermarks. Both kinds of entries expire on their own.
type RevocationStore interface {
	// BlacklistToken marks a single token id as revoked for ttl.
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error

	// InvalidateUserTokens sets the subject's watermark to at, overwriting
	// any previous value. Tokens issued strictly before at are revoked.
	InvalidateUserTokens(ctx context.Context, subject string, at time.Time, ttl time.Duration) error

	// IsRevoked reports whether a token is blacklisted or predates the
	// subject's watermark. An empty jti skips the blacklist lookup and a zero
	// issuedAt skips the watermark lookup.
	IsRevoked(ctx context.Context, jti, subject string, issuedAt time.Time) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}
