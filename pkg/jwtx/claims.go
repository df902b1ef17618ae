package jwtx

import (
	"time"

	"github.com/aussiebroadwan/starterkit/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// Default lifetimes, overridable through config.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType separates short lived access tokens from refresh tokens. Both are
// signed with the same key, so every consumer must check it.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// Claims are the claims carried by every token this service issues.
type Claims struct {
	jwt.RegisteredClaims

	// Role of the subject at issue time ("admin" or "user").
	Role string `json:"role"`

	// Type is "access" or "refresh".
	Type TokenType `json:"type"`
}

// NewClaims builds claims for subject valid for ttl from now.
func NewClaims(subject, role string, typ TokenType, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.New().String(),
		},
		Role: role,
		Type: typ,
	}
}

// RequireType returns ErrTokenType unless the claims carry want.
func (c *Claims) RequireType(want TokenType) error {
	if c.Type != want {
		return ErrTokenType
	}
	return nil
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
// Tokens without exp are rejected.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryWithLeeway(0)
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if !now.Before(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
