package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bibee/backend/internal/domain"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Passw0rd1", false},
		{"exactly 8", "Abcdef12", false},
		{"72 bytes", "Aa1" + strings.Repeat("x", 69), false},
		{"7 chars", "short1A", true},
		{"short1", "short1", true},
		{"73 bytes", "Aa1" + strings.Repeat("x", 70), true},
		{"no upper", "alllowercase1", true},
		{"no lower", "ALLUPPERCASE1", true},
		{"no digit", "NoDigitsHere", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrWeakPassword)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.ErrorIs(t, ValidateEmail(""), domain.ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail("alice"), domain.ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail(strings.Repeat("a", 250)+"@example.com"), domain.ErrInvalidEmail)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@EXAMPLE.com\t"))
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("Passw0rd1")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd1", hash)

	assert.True(t, h.Verify("Passw0rd1", hash))
	assert.False(t, h.Verify("Passw0rd2", hash))
	assert.False(t, h.Verify("Passw0rd1", "not-a-hash"))
}
