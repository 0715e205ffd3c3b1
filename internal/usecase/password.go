package usecase

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/bibee/backend/internal/domain"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

var validate = validator.New()

// NormalizeEmail trims and lower-cases an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email,max=255"); err != nil {
		return &domain.ValidationError{Field: "email", Message: "must be a valid email address", Kind: domain.ErrInvalidEmail}
	}
	return nil
}

// ValidatePassword enforces the registration policy: 8 to 72 characters
// with at least one uppercase letter, one lowercase letter and one digit.
func ValidatePassword(password string) error {
	weak := func(msg string) error {
		return &domain.ValidationError{Field: "password", Message: msg, Kind: domain.ErrWeakPassword}
	}

	if utf8.RuneCountInString(password) < MinPasswordLength {
		return weak("must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return weak("must be at most 72 bytes")
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !upper:
		return weak("must contain at least one uppercase letter")
	case !lower:
		return weak("must contain at least one lowercase letter")
	case !digit:
		return weak("must contain at least one digit")
	}
	return nil
}

// IsValidationError reports whether err carries field-level detail.
func IsValidationError(err error) (*domain.ValidationError, bool) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
