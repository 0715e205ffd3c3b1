package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibee/backend/internal/domain"
	"github.com/bibee/backend/internal/repository/memory"
)

func TestAdminUsecase_SetPlan(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.registerAlice(t)
	admin := NewAdminUsecase(h.users, memory.NewRevocationStore(h.clock.Now), 7*24*time.Hour)
	ctx := context.Background()

	user, err := admin.SetPlan(ctx, " ALICE@example.com", domain.PlanAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanAdmin, user.Plan)

	stored, err := h.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanAdmin, stored.Plan)

	_, err = admin.SetPlan(ctx, "alice@example.com", "root")
	verr, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "plan", verr.Field)

	_, err = admin.SetPlan(ctx, "nobody@example.com", domain.PlanPro)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminUsecase_DeleteUserRevokesTokens(t *testing.T) {
	store := memory.NewRevocationStore(nil)
	h := newHarness(t, store)
	alice := h.registerAlice(t)
	ctx := context.Background()

	pair, err := h.auth.IssuePair(alice.ID.String())
	require.NoError(t, err)

	admin := NewAdminUsecase(h.users, store, 7*24*time.Hour)
	admin.now = func() time.Time { return h.clock.Now().Add(time.Millisecond) }
	require.NoError(t, admin.DeleteUser(ctx, "alice@example.com"))

	_, _, err = h.auth.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrRevoked)
	_, err = h.auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRevoked)

	assert.ErrorIs(t, admin.DeleteUser(ctx, "alice@example.com"), ErrUserNotFound)
}

func TestAdminUsecase_DeleteUserStoreDown(t *testing.T) {
	h := newHarness(t, nil)
	h.registerAlice(t)

	admin := NewAdminUsecase(h.users, brokenStore{}, time.Hour)
	assert.ErrorIs(t, admin.DeleteUser(context.Background(), "alice@example.com"), ErrStoreUnavailable)
}
