package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bibee/backend/internal/domain"
	"github.com/bibee/backend/internal/middleware"
	"github.com/bibee/backend/internal/usecase"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type Handler struct {
	authUsecase    *usecase.AuthUsecase
	personaUsecase *usecase.PersonaUsecase
	projectUsecase *usecase.ProjectUsecase
	eventLog       domain.EventLog
	log            *slog.Logger
}

func NewHandler(auth *usecase.AuthUsecase, personas *usecase.PersonaUsecase, projects *usecase.ProjectUsecase, eventLog domain.EventLog, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		authUsecase:    auth,
		personaUsecase: personas,
		projectUsecase: projects,
		eventLog:       eventLog,
		log:            log,
	}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "Validation failed", Fields: fields})
}

// pageParams reads limit and offset from the query string and clamps them
// to the values the listing will apply.
func pageParams(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	return domain.ClampPage(limit, offset)
}

// decodeRequest reads a JSON body into dst and checks its validate tags.
// It writes the error response itself and reports whether to continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = "failed on " + fe.Tag()
		}
		writeValidationError(w, fields)
		return false
	}
	return true
}

// writeTokenError maps a token check failure to the response. The reason
// is logged and never returned to the client.
func (h *Handler) writeTokenError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.log.ErrorContext(r.Context(), "revocation store unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	case usecase.IsAuthFailure(err):
		h.log.InfoContext(r.Context(), "token refused", "path", r.URL.Path, "reason", usecase.FailureReason(err))
		middleware.Unauthorized(w)
	default:
		h.log.ErrorContext(r.Context(), "token check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Auth handlers

type registerRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"max=255"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, err := h.authUsecase.Register(r.Context(), req.Email, req.Password, req.Name)
	if verr, ok := usecase.IsValidationError(err); ok {
		writeValidationError(w, map[string]string{verr.Field: verr.Message})
		return
	}
	if errors.Is(err, usecase.ErrEmailExists) {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	if errors.Is(err, usecase.ErrStoreUnavailable) {
		h.log.ErrorContext(r.Context(), "register failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "register failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	tokens, err := h.authUsecase.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, usecase.ErrInvalidCredentials) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if errors.Is(err, usecase.ErrStoreUnavailable) {
		h.log.ErrorContext(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to login")
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	access, err := h.authUsecase.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeTokenError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, access)
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout blacklists the bearer token and, when given, the refresh token
// in the body. It answers 200 whatever the tokens look like.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	tokens := make([]string, 0, 2)
	if raw, ok := middleware.BearerToken(r); ok {
		tokens = append(tokens, raw)
	}

	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.DebugContext(r.Context(), "ignoring unreadable logout body", "error", err)
	}
	if req.RefreshToken != "" {
		tokens = append(tokens, req.RefreshToken)
	}

	if err := h.authUsecase.Logout(r.Context(), tokens...); err != nil {
		h.log.ErrorContext(r.Context(), "logout failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully logged out"})
}

func (h *Handler) RevokeAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		middleware.Unauthorized(w)
		return
	}

	if err := h.authUsecase.RevokeAll(r.Context(), claims.Subject, claims); err != nil {
		h.writeTokenError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "All tokens have been revoked"})
}

// User handlers

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.Unauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ListMySecurityEvents returns the caller's own audit trail.
func (h *Handler) ListMySecurityEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.Unauthorized(w)
		return
	}

	limit, offset := pageParams(r)

	events, err := h.eventLog.ListBySubject(r.Context(), userID.String(), limit, offset)
	if err != nil {
		h.log.ErrorContext(r.Context(), "listing security events failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list security events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"limit":  limit,
		"offset": offset,
	})
}

// Admin handlers

func (h *Handler) AdminListSecurityEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	events, total, err := h.eventLog.ListRecent(r.Context(), limit, offset)
	if err != nil {
		h.log.ErrorContext(r.Context(), "listing security events failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list security events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
