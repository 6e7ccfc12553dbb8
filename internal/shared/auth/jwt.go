// Package auth signs and verifies recruiter bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer     = "hirelens"
	defaultTTL = 24 * time.Hour
	leeway     = 30 * time.Second
	devSecret  = "dev-secret"
)

// Claims identify a recruiter. Sub is the owner id compared against
// job ownership.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrMissingSecret = errors.New("JWT_SECRET is required")
	ErrInvalidToken  = errors.New("invalid token")
)

// Keys holds the HS256 secret shared by the API and token-minting tools.
type Keys struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewKeys builds Keys from secret. When requireSecret is false an empty
// secret falls back to a fixed development value.
func NewKeys(secret string, requireSecret bool) (*Keys, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if requireSecret {
			return nil, ErrMissingSecret
		}
		secret = devSecret
	}
	return &Keys{secret: []byte(secret), ttl: defaultTTL, now: time.Now}, nil
}

// Sign issues a token for claims. Missing timestamps default to now and
// now plus 24h.
func (k *Keys) Sign(claims Claims) (string, error) {
	if claims.Sub == "" {
		return "", errors.New("sub is required")
	}
	now := k.now().UTC()
	if claims.Issuer == "" {
		claims.Issuer = issuer
	}
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(k.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
}

// Verify parses raw and returns its claims. Every failure maps to
// ErrInvalidToken.
func (k *Keys) Verify(raw string) (Claims, error) {
	if k == nil {
		return Claims{}, ErrInvalidToken
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return k.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(k.now),
	)
	if err != nil || !token.Valid || claims.Sub == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
