package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/bibee/backend/internal/domain"
	"github.com/bibee/backend/internal/token"
	"github.com/bibee/backend/internal/usecase"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

// CredentialsError is the only message a client sees for a refused token.
const CredentialsError = "Could not validate credentials"

type AuthMiddleware struct {
	authUsecase *usecase.AuthUsecase
	log         *slog.Logger
}

func NewAuthMiddleware(authUsecase *usecase.AuthUsecase, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{authUsecase: authUsecase, log: log}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := BearerToken(r)
		if !ok {
			m.log.InfoContext(r.Context(), "authentication failed", "reason", "missing_bearer")
			Unauthorized(w)
			return
		}

		user, claims, err := m.authUsecase.Authenticate(r.Context(), raw)
		if errors.Is(err, domain.ErrStoreUnavailable) {
			m.log.ErrorContext(r.Context(), "revocation check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
			return
		}
		if err != nil {
			m.log.InfoContext(r.Context(), "authentication failed", "reason", usecase.FailureReason(err))
			Unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
		ctx = context.WithValue(ctx, userKey, user)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly must be used after Authenticate.
func (m *AuthMiddleware) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			Unauthorized(w)
			return
		}
		if user.Plan != domain.PlanAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Unauthorized writes the uniform 401 response.
func Unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, CredentialsError)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok
}

func GetClaims(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*token.Claims)
	return claims, ok
}
