package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type UserPlan string

const (
	PlanFree  UserPlan = "free"
	PlanPro   UserPlan = "pro"
	PlanAdmin UserPlan = "admin"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name,omitempty"`
	Plan         UserPlan   `json:"plan"`
	UsageSeconds int        `json:"usage_seconds"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// UserRepository is the credential store. Lookups return (nil, nil) when
// the user does not exist. Create fails with ErrEmailExists on a duplicate
// email.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

func (p UserPlan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanAdmin:
		return true
	}
	return false
}

// UserAdmin is the operator surface of the credential store. UpdatePlan and
// Delete fail with ErrUserNotFound when id does not exist.
type UserAdmin interface {
	UserRepository
	UpdatePlan(ctx context.Context, id uuid.UUID, plan UserPlan) error
	Delete(ctx context.Context, id uuid.UUID) error
}
