// Package token signs and verifies the two JWT classes the API uses: short
// lived access tokens presented as bearer credentials, and long lived refresh
// tokens exchanged for new access tokens. Each class has its own secret and
// TTL; a token signed under one class never verifies under the other.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "researchmatch/pkg/domain-errors"
)

// Class selects which signing secret and TTL apply.
type Class int

const (
	ClassAccess Class = iota
	ClassRefresh
)

// Claims binds the identity summary into both token classes.
type Claims struct {
	AccountID   string `json:"account_id"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

// Service issues and verifies tokens. It is stateless: access tokens are
// never persisted (revocation is bounded by the short TTL alone), and refresh
// token persistence is the account store's concern.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string

	// now is swappable for expiry tests.
	now func() time.Time
}

func NewService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        "researchmatch",
		now:           time.Now,
	}
}

// WithClock overrides the time source. Test use only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// IssueAccessToken signs a short-lived credential binding the identity claims.
func (s *Service) IssueAccessToken(accountID, email, displayName string) (string, error) {
	return s.issue(accountID, email, displayName, s.accessSecret, s.accessTTL)
}

// IssueRefreshToken signs a long-lived credential under the refresh secret.
func (s *Service) IssueRefreshToken(accountID, email, displayName string) (string, error) {
	return s.issue(accountID, email, displayName, s.refreshSecret, s.refreshTTL)
}

func (s *Service) issue(accountID, email, displayName string, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		AccountID:   accountID,
		Email:       email,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return tok.SignedString(secret)
}

// Verify parses and validates a token under the given key class. Expired
// tokens and tokens signed under the wrong class both fail with an
// unauthorized domain error.
func (s *Service) Verify(tokenString string, class Class) (*Claims, error) {
	secret := s.accessSecret
	if class == ClassRefresh {
		secret = s.refreshSecret
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
