package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errEmptyKey = errors.New("signing key is empty")

// TokenService issues and validates signed access tokens. The signing key
// is read-only after construction.
type TokenService struct {
	secretKey  []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenService returns a service signing with secretKey. Tokens issued
// through Issue live for defaultTTL. With an empty key nothing is issued and
// nothing validates.
func NewTokenService(secretKey []byte, defaultTTL time.Duration) *TokenService {
	return &TokenService{
		secretKey:  secretKey,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Issue signs a token for subject with the default lifetime.
func (s *TokenService) Issue(subject string) (string, error) {
	return s.IssueWithTTL(subject, s.defaultTTL)
}

// IssueWithTTL signs a token for subject expiring ttl from now. A zero or
// negative ttl yields a token that is already expired.
func (s *TokenService) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	if len(s.secretKey) == 0 {
		return "", errEmptyKey
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	})

	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// Validate verifies tokenString and returns its subject. Bad signatures,
// malformed input, a missing or passed expiry and an empty subject all
// return common.ErrInvalidToken and nothing else.
func (s *TokenService) Validate(tokenString string) (string, error) {
	if len(s.secretKey) == 0 {
		return "", common.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", common.ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
