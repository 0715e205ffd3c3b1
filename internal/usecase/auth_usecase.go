package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/bibee/backend/internal/config"
	"github.com/bibee/backend/internal/domain"
	"github.com/bibee/backend/internal/events"
	"github.com/bibee/backend/internal/metrics"
	"github.com/bibee/backend/internal/token"
)

var (
	ErrInvalidCredentials = domain.ErrInvalidCredentials
	ErrEmailExists        = domain.ErrEmailExists
	ErrInvalidToken       = token.ErrInvalid
	ErrTokenExpired       = token.ErrExpired
	ErrWrongTokenType     = domain.ErrWrongTokenType
	ErrRevoked            = domain.ErrRevoked
	ErrUserNotFound       = domain.ErrUserNotFound
	ErrStoreUnavailable   = domain.ErrStoreUnavailable
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    int64  `json:"expires_at"`
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}

// AuthUsecase issues token pairs, validates presented tokens against the
// blacklist and the per-user watermark, and records logouts and
// revoke-all requests.
type AuthUsecase struct {
	userRepo    domain.UserRepository
	revocations domain.RevocationStore
	codec       *token.Codec
	hasher      PasswordHasher
	events      domain.EventPublisher
	metrics     *metrics.Auth
	log         *slog.Logger
	now         func() time.Time

	accessTTL  time.Duration
	refreshTTL time.Duration

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*AuthUsecase)

// WithClock overrides time.Now. The codec should share the same clock.
func WithClock(now func() time.Time) Option {
	return func(u *AuthUsecase) { u.now = now }
}

func WithEvents(p domain.EventPublisher) Option {
	return func(u *AuthUsecase) { u.events = p }
}

func WithMetrics(m *metrics.Auth) Option {
	return func(u *AuthUsecase) { u.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(u *AuthUsecase) { u.log = l }
}

func NewAuthUsecase(userRepo domain.UserRepository, revocations domain.RevocationStore, codec *token.Codec, hasher PasswordHasher, cfg *config.JWTConfig, opts ...Option) *AuthUsecase {
	u := &AuthUsecase{
		userRepo:    userRepo,
		revocations: revocations,
		codec:       codec,
		hasher:      hasher,
		events:      events.Noop{},
		log:         slog.Default(),
		now:         time.Now,
		accessTTL:   cfg.AccessExpiry,
		refreshTTL:  cfg.RefreshExpiry,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *AuthUsecase) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := u.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hashedPassword, err := u.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
		Plan:         domain.PlanFree,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	u.publish(ctx, domain.EventUserRegistered, user.ID.String(), "")
	return user, nil
}

// Login never tells an unknown email apart from a wrong password.
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := u.userRepo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		u.hasher.Verify(password, u.dummyPasswordHash())
		u.metrics.LoginAttempted(false)
		return nil, ErrInvalidCredentials
	}
	if !u.hasher.Verify(password, user.PasswordHash) {
		u.metrics.LoginAttempted(false)
		return nil, ErrInvalidCredentials
	}

	pair, err := u.IssuePair(user.ID.String())
	if err != nil {
		return nil, err
	}
	u.metrics.LoginAttempted(true)

	if err := u.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		u.log.WarnContext(ctx, "failed to update last login", "user_id", user.ID, "error", err)
	}
	return pair, nil
}

// IssuePair mints an access and a refresh token for subject. Each carries
// its own token id and the current time as iat.
func (u *AuthUsecase) IssuePair(subject string) (*TokenPair, error) {
	access, accessClaims, err := u.mint(subject, token.Access)
	if err != nil {
		return nil, err
	}
	refresh, _, err := u.mint(subject, token.Refresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresAt:    accessClaims.ExpiresAt.Unix(),
	}, nil
}

// Authenticate resolves the identity behind an access token. Checks run
// from cheapest to most expensive: signature and expiry, token type,
// revocation store, credential store.
func (u *AuthUsecase) Authenticate(ctx context.Context, accessToken string) (*domain.User, *token.Claims, error) {
	user, claims, err := u.authenticate(ctx, accessToken)
	u.metrics.TokenChecked(string(token.Access), FailureReason(err))
	return user, claims, err
}

func (u *AuthUsecase) authenticate(ctx context.Context, accessToken string) (*domain.User, *token.Claims, error) {
	claims, err := u.verify(ctx, accessToken, token.Access)
	if err != nil {
		return nil, nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}
	return user, claims, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token is not rotated and stays usable until it expires or is revoked.
func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken string) (*AccessToken, error) {
	claims, err := u.verify(ctx, refreshToken, token.Refresh)
	u.metrics.TokenChecked(string(token.Refresh), FailureReason(err))
	if err != nil {
		return nil, err
	}

	access, accessClaims, err := u.mint(claims.Subject, token.Access)
	if err != nil {
		return nil, err
	}
	return &AccessToken{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresAt:   accessClaims.ExpiresAt.Unix(),
	}, nil
}

// Logout blacklists every decodable token among tokens. Tokens that fail
// to decode are ignored so the caller learns nothing about their validity;
// only a failed revocation store write is reported.
func (u *AuthUsecase) Logout(ctx context.Context, tokens ...string) error {
	for _, raw := range tokens {
		if raw == "" {
			continue
		}
		claims, err := u.codec.Decode(raw)
		if err != nil {
			u.log.DebugContext(ctx, "logout with undecodable token", "error", err)
			continue
		}
		if claims.ID == "" {
			continue
		}
		if err := u.blacklist(ctx, claims); err != nil {
			return err
		}
		u.publish(ctx, domain.EventSessionLogout, claims.Subject, claims.ID)
	}
	return nil
}

// RevokeAll invalidates every token issued to subject before now, compared
// at millisecond precision. The invoking token, when given, is blacklisted
// as well so it cannot survive a watermark that falls in the same
// millisecond as its issue instant.
func (u *AuthUsecase) RevokeAll(ctx context.Context, subject string, invoking *token.Claims) error {
	if subject == "" {
		return ErrInvalidToken
	}
	if invoking != nil && invoking.ID != "" {
		if err := u.blacklist(ctx, invoking); err != nil {
			return err
		}
	}
	if err := u.revocations.InvalidateUserTokens(ctx, subject, u.now(), u.refreshTTL); err != nil {
		return storeErr(err)
	}
	u.metrics.Revoked("user")

	var jti string
	if invoking != nil {
		jti = invoking.ID
	}
	u.publish(ctx, domain.EventSessionRevokedAll, subject, jti)
	return nil
}

func (u *AuthUsecase) verify(ctx context.Context, raw string, want token.Type) (*token.Claims, error) {
	claims, err := u.codec.Decode(raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	revoked, err := u.revocations.IsRevoked(ctx, claims.ID, claims.Subject, claims.IssuedAtTime())
	if err != nil {
		return nil, storeErr(err)
	}
	if revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

func (u *AuthUsecase) blacklist(ctx context.Context, claims *token.Claims) error {
	if err := u.revocations.BlacklistToken(ctx, claims.ID, u.ttlFor(claims.Type)); err != nil {
		return storeErr(err)
	}
	u.metrics.Revoked("token")
	return nil
}

func (u *AuthUsecase) mint(subject string, typ token.Type) (string, *token.Claims, error) {
	claims := token.NewClaims(typ, subject, ulid.Make().String(), u.now(), u.ttlFor(typ))
	s, err := u.codec.Encode(claims)
	if err != nil {
		return "", nil, err
	}
	return s, claims, nil
}

// ttlFor returns the nominal lifetime of a token type. Unknown types get
// the access lifetime.
func (u *AuthUsecase) ttlFor(typ token.Type) time.Duration {
	if typ == token.Refresh {
		return u.refreshTTL
	}
	return u.accessTTL
}

func (u *AuthUsecase) dummyPasswordHash() string {
	u.dummyOnce.Do(func() {
		h, err := u.hasher.Hash("dummy-password-for-timing")
		if err == nil {
			u.dummyHash = h
		}
	})
	return u.dummyHash
}

func (u *AuthUsecase) publish(ctx context.Context, typ domain.EventType, subject, jti string) {
	ev := domain.Event{Type: typ, Subject: subject, TokenID: jti, OccurredAt: u.now()}
	if err := u.events.Publish(ctx, ev); err != nil {
		u.log.WarnContext(ctx, "failed to publish event", "type", typ, "error", err)
	}
}

func storeErr(err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// FailureReason maps an authentication error to a short label for logs and
// metrics. It is never sent to clients.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrWrongTokenType):
		return "wrong_type"
	case errors.Is(err, ErrRevoked):
		return "revoked"
	case errors.Is(err, ErrUserNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrInvalidToken):
		return "invalid"
	default:
		return "error"
	}
}

// IsAuthFailure reports whether err means the presented token must be
// refused, as opposed to an infrastructure failure.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrWrongTokenType) ||
		errors.Is(err, ErrRevoked) ||
		errors.Is(err, ErrUserNotFound)
}
