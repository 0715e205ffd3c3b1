// Package token encodes and decodes the signed, expiring claim sets handed
// to clients. It is the only cryptographic trust boundary of the auth
// system: a token is accepted only when it was signed with the configured
// secret using the configured HMAC algorithm.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("invalid token")

	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrEmptySecret          = errors.New("empty signing secret")
)

type Type string

const (
	Access  Type = "access"
	Refresh Type = "refresh"
)

// Claims is the signed claim set. The registered iat claim only carries
// whole seconds, so the issue instant is also kept in iat_ms as an integer
// number of Unix milliseconds.
type Claims struct {
	Type           Type  `json:"type"`
	IssuedAtMillis int64 `json:"iat_ms,omitempty"`
	jwt.RegisteredClaims
}

// NewClaims returns a claim set of type typ issued at issuedAt and expiring
// ttl later.
func NewClaims(typ Type, subject, id string, issuedAt time.Time, ttl time.Duration) *Claims {
	return &Claims{
		Type:           typ,
		IssuedAtMillis: issuedAt.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
}

// IssuedAtTime returns the issue instant at millisecond precision when
// iat_ms is present, the second-precision iat claim otherwise, or the zero
// time when neither is set.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAtMillis > 0 {
		return time.UnixMilli(c.IssuedAtMillis)
	}
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewCodec returns a codec for one of HS256, HS384 or HS512. A nil now
// defaults to time.Now.
func NewCodec(secret, algorithm string, now func() time.Time) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	if now == nil {
		now = time.Now
	}
	return &Codec{secret: []byte(secret), method: method, now: now}, nil
}

func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

func (c *Codec) Encode(claims *Claims) (string, error) {
	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// Decode verifies the signature, the algorithm and the expiry of s.
// It fails with ErrExpired once exp has passed and with ErrInvalid for any
// other problem.
func (c *Codec) Decode(s string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(s, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return claims, nil
}
