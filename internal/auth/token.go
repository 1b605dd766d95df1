// Package auth provides token issuance and verification, password hashing,
// and the ownership checks used by resource handlers.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification errors.
var (
	// ErrMalformedToken indicates the token could not be parsed or its
	// signature does not match.
	ErrMalformedToken = errors.New("malformed token")
	// ErrExpiredToken indicates the token's exp claim is in the past.
	ErrExpiredToken = errors.New("expired token")
)

// claims is the token payload. The subject is carried in the custom "id"
// field; iat and exp come from the registered claims.
type claims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed bearer tokens.
// Tokens are self-contained: validity is a function of signature and
// expiry only, so no server-side state is kept.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source. Used in tests to issue tokens
// at fixed instants.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a TokenService signing with secret.
// Issued tokens expire ttl after issuance.
func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for subjectID. The caller is responsible for having
// verified credentials first; Issue does not check that the subject exists.
func (s *TokenService) Issue(subjectID int64) (string, error) {
	now := s.now().UTC()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify checks raw's structure, signature and expiry, and returns the
// embedded subject ID. It does not resolve the subject to a user; that is
// the caller's job. Expiry is compared against UTC now with no leeway.
func (s *TokenService) Verify(raw string) (int64, error) {
	var c claims

	_, err := jwt.ParseWithClaims(raw, &c,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredToken
		}
		return 0, ErrMalformedToken
	}

	return c.UserID, nil
}
