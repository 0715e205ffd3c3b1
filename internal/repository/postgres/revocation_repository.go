package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// RevocationRepository is the revocation store for deployments without
// Redis. Rows carry their own expiry; expired rows are ignored by reads
// and removed by Purge.
type RevocationRepository struct {
	db  DB
	now func() time.Time
}

func NewRevocationRepository(db DB, now func() time.Time) *RevocationRepository {
	if now == nil {
		now = time.Now
	}
	return &RevocationRepository{db: db, now: now}
}

func (r *RevocationRepository) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO revoked_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`
	if _, err := r.db.Exec(ctx, query, jti, r.now().Add(ttl)); err != nil {
		return storeError(err)
	}
	return nil
}

func (r *RevocationRepository) InvalidateUserTokens(ctx context.Context, subject string, at time.Time, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO user_token_invalidations (subject, invalidated_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject) DO UPDATE SET
			invalidated_at = EXCLUDED.invalidated_at,
			expires_at = EXCLUDED.expires_at
	`
	if _, err := r.db.Exec(ctx, query, subject, at.UnixMilli(), r.now().Add(ttl)); err != nil {
		return storeError(err)
	}
	return nil
}

func (r *RevocationRepository) IsRevoked(ctx context.Context, jti, subject string, issuedAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := r.now()
	if jti != "" {
		var blacklisted bool
		query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1 AND expires_at > $2)`
		if err := r.db.QueryRow(ctx, query, jti, now).Scan(&blacklisted); err != nil {
			return false, storeError(err)
		}
		if blacklisted {
			return true, nil
		}
	}

	if issuedAt.IsZero() {
		return false, nil
	}
	var watermark int64
	query := `SELECT invalidated_at FROM user_token_invalidations WHERE subject = $1 AND expires_at > $2`
	err := r.db.QueryRow(ctx, query, subject, now).Scan(&watermark)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeError(err)
	}
	return issuedAt.UnixMilli() < watermark, nil
}

// Purge deletes expired rows and returns how many were removed.
func (r *RevocationRepository) Purge(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := r.now()
	tokens, err := r.db.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, storeError(err)
	}
	users, err := r.db.Exec(ctx, `DELETE FROM user_token_invalidations WHERE expires_at <= $1`, now)
	if err != nil {
		return tokens.RowsAffected(), storeError(err)
	}
	return tokens.RowsAffected() + users.RowsAffected(), nil
}

// RunJanitor calls Purge every interval until ctx is done.
func (r *RevocationRepository) RunJanitor(ctx context.Context, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := r.Purge(ctx); err != nil {
				log.WarnContext(ctx, "purging expired revocations failed", "error", err)
			} else if n > 0 {
				log.DebugContext(ctx, "purged expired revocations", "rows", n)
			}
		}
	}
}

func (r *RevocationRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var one int
	if err := r.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return storeError(err)
	}
	return nil
}

// Close is a no-op; the pool is owned by the caller.
func (r *RevocationRepository) Close() error { return nil }
