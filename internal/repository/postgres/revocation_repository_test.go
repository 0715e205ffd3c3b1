package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibee/backend/internal/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newRevocationRepo(t *testing.T) (*RevocationRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock := newMock(t)
	return NewRevocationRepository(mock, func() time.Time { return fixedNow }), mock
}

func TestRevocationRepository_BlacklistToken(t *testing.T) {
	repo, mock := newRevocationRepo(t)

	mock.ExpectExec(`INSERT INTO revoked_tokens`).
		WithArgs("jti-1", fixedNow.Add(30*time.Minute)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.BlacklistToken(context.Background(), "jti-1", 30*time.Minute))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevocationRepository_InvalidateUserTokens(t *testing.T) {
	repo, mock := newRevocationRepo(t)

	mock.ExpectExec(`INSERT INTO user_token_invalidations`).
		WithArgs("user-1", fixedNow.UnixMilli(), fixedNow.Add(7*24*time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.InvalidateUserTokens(context.Background(), "user-1", fixedNow, 7*24*time.Hour))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevocationRepository_IsRevoked(t *testing.T) {
	const (
		blacklistQuery = `SELECT EXISTS \(SELECT 1 FROM revoked_tokens`
		watermarkQuery = `SELECT invalidated_at FROM user_token_invalidations`
	)

	t.Run("blacklisted", func(t *testing.T) {
		repo, mock := newRevocationRepo(t)
		mock.ExpectQuery(blacklistQuery).WithArgs("jti-1", fixedNow).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		revoked, err := repo.IsRevoked(context.Background(), "jti-1", "user-1", fixedNow)
		require.NoError(t, err)
		assert.True(t, revoked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("issued before watermark", func(t *testing.T) {
		repo, mock := newRevocationRepo(t)
		mock.ExpectQuery(blacklistQuery).WithArgs("jti-1", fixedNow).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(watermarkQuery).WithArgs("user-1", fixedNow).
			WillReturnRows(pgxmock.NewRows([]string{"invalidated_at"}).AddRow(fixedNow.UnixMilli()))

		revoked, err := repo.IsRevoked(context.Background(), "jti-1", "user-1", fixedNow.Add(-time.Second))
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("issued at watermark", func(t *testing.T) {
		repo, mock := newRevocationRepo(t)
		mock.ExpectQuery(blacklistQuery).WithArgs("jti-1", fixedNow).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(watermarkQuery).WithArgs("user-1", fixedNow).
			WillReturnRows(pgxmock.NewRows([]string{"invalidated_at"}).AddRow(fixedNow.UnixMilli()))

		revoked, err := repo.IsRevoked(context.Background(), "jti-1", "user-1", fixedNow)
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("issued earlier in the same second", func(t *testing.T) {
		repo, mock := newRevocationRepo(t)
		mock.ExpectQuery(blacklistQuery).WithArgs("jti-1", fixedNow).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(watermarkQuery).WithArgs("user-1", fixedNow).
			WillReturnRows(pgxmock.NewRows([]string{"invalidated_at"}).AddRow(fixedNow.Add(300 * time.Millisecond).UnixMilli()))

		revoked, err := repo.IsRevoked(context.Background(), "jti-1", "user-1", fixedNow)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("no watermark", func(t *testing.T) {
		repo, mock := newRevocationRepo(t)
		mock.ExpectQuery(blacklistQuery).WithArgs("jti-1", fixedNow).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(watermarkQuery).WithArgs("user-1", fixedNow).
			WillReturnError(pgx.ErrNoRows)

		revoked, err := repo.IsRevoked(context.Background(), "jti-1", "user-1", fixedNow)
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("missing claims skip checks", func(t *testing.T) {
		repo, mock := newRevocationRepo(t)

		revoked, err := repo.IsRevoked(context.Background(), "", "user-1", time.Time{})
		require.NoError(t, err)
		assert.False(t, revoked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store error", func(t *testing.T) {
		repo, mock := newRevocationRepo(t)
		mock.ExpectQuery(blacklistQuery).WithArgs("jti-1", fixedNow).
			WillReturnError(errors.New("connection reset by peer"))

		_, err := repo.IsRevoked(context.Background(), "jti-1", "user-1", fixedNow)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}

func TestRevocationRepository_Purge(t *testing.T) {
	repo, mock := newRevocationRepo(t)

	mock.ExpectExec(`DELETE FROM revoked_tokens`).WithArgs(fixedNow).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM user_token_invalidations`).WithArgs(fixedNow).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	n, err := repo.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
