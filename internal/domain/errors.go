package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWrongTokenType     = errors.New("wrong token type")
	ErrRevoked            = errors.New("token revoked")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrPersonaNotFound    = errors.New("voice persona not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrStoreUnavailable is returned when the revocation or credential store
	// cannot be reached. It never means the token itself is invalid.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports a rejected input field. Kind is the sentinel the
// error wraps, such as ErrWeakPassword or ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
	Kind    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Kind }
