package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bibee/backend/internal/domain"
)

// AdminUsecase carries the operator actions that have no public endpoint:
// granting a plan and removing an account.
type AdminUsecase struct {
	users       domain.UserAdmin
	revocations domain.RevocationStore
	refreshTTL  time.Duration
	now         func() time.Time
}

func NewAdminUsecase(users domain.UserAdmin, revocations domain.RevocationStore, refreshTTL time.Duration) *AdminUsecase {
	return &AdminUsecase{
		users:       users,
		revocations: revocations,
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}
}

func (u *AdminUsecase) lookup(ctx context.Context, email string) (*domain.User, error) {
	user, err := u.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// SetPlan changes the plan of the account registered under email.
func (u *AdminUsecase) SetPlan(ctx context.Context, email string, plan domain.UserPlan) (*domain.User, error) {
	if !plan.Valid() {
		return nil, invalidField("plan", fmt.Sprintf("unknown plan %q", plan))
	}
	user, err := u.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := u.users.UpdatePlan(ctx, user.ID, plan); err != nil {
		return nil, err
	}
	user.Plan = plan
	return user, nil
}

// DeleteUser removes the account and writes a revoke-all watermark for it,
// so tokens already handed out stop working at the revocation check.
func (u *AdminUsecase) DeleteUser(ctx context.Context, email string) error {
	user, err := u.lookup(ctx, email)
	if err != nil {
		return err
	}
	if err := u.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	if err := u.revocations.InvalidateUserTokens(ctx, user.ID.String(), u.now(), u.refreshTTL); err != nil {
		return storeErr(err)
	}
	return nil
}
