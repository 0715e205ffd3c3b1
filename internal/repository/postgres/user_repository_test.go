package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibee/backend/internal/domain"
)

var userCols = []string{"id", "email", "password_hash", "name", "plan", "usage_seconds", "last_login_at", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestUserRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "alice@example.com", "hash", "Alice", domain.PlanFree, 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	u := &domain.User{Email: "alice@example.com", PasswordHash: "hash", Name: "Alice"}
	require.NoError(t, repo.Create(context.Background(), u))

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, domain.PlanFree, u.Plan)
	assert.False(t, u.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &domain.User{Email: "alice@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateConnectionError(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), &domain.User{Email: "alice@example.com"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	id := uuid.New()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("alice@example.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(id, "alice@example.com", "hash", "Alice", domain.PlanPro, 42, (*time.Time)(nil), created, created))

	u, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, domain.PlanPro, u.Plan)
	assert.Equal(t, 42, u.UsageSeconds)
	assert.Nil(t, u.LastLoginAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	u, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepository_GetByIDStoreError(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	id := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(errors.New("timeout"))

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	id := uuid.New()
	mock.ExpectExec(`UPDATE users SET last_login_at = NOW\(\) WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateLastLogin(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePlan(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	id := uuid.New()

	mock.ExpectExec(`UPDATE users SET plan = \$2, updated_at = NOW\(\) WHERE id = \$1`).
		WithArgs(id, domain.PlanAdmin).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdatePlan(context.Background(), id, domain.PlanAdmin))

	mock.ExpectExec(`UPDATE users SET plan`).
		WithArgs(id, domain.PlanPro).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.UpdatePlan(context.Background(), id, domain.PlanPro), domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.Delete(context.Background(), id))

	mock.ExpectExec(`DELETE FROM users`).
		WithArgs(id).
		WillReturnError(errors.New("connection reset"))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), domain.ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
