package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibee/backend/internal/domain"
)

func TestUserRepository(t *testing.T) {
	r := NewUserRepository()
	ctx := context.Background()

	u := &domain.User{Email: "alice@example.com", PasswordHash: "h"}
	require.NoError(t, r.Create(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, domain.PlanFree, u.Plan)

	err := r.Create(ctx, &domain.User{Email: "alice@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailExists)

	got, err := r.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	missing, err := r.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, r.UpdateLastLogin(ctx, u.ID))
	got, err = r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)

	require.NoError(t, r.UpdatePlan(ctx, u.ID, domain.PlanAdmin))
	got, err = r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanAdmin, got.Plan)

	require.NoError(t, r.Delete(ctx, u.ID))
	got, err = r.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, r.Delete(ctx, u.ID), domain.ErrUserNotFound)
	assert.ErrorIs(t, r.UpdatePlan(ctx, u.ID, domain.PlanPro), domain.ErrUserNotFound)
}
