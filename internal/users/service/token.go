package service

import (
	"errors"
	"time"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
	"github.com/aussiebroadwan/starterkit/pkg/jwtx"
)

// TokenService issues and decodes HS256 access and refresh tokens. All of its
// settings are fixed at construction.
type TokenService struct {
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is swapped in tests.
	Now func() time.Time
}

// NewTokenService wires an HS256 signer and verifier around secret. Zero TTLs
// fall back to the jwtx defaults.
func NewTokenService(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	signer, err := jwtx.NewSignerHS256(secret)
	if err != nil {
		return nil, err
	}
	verifier, err := jwtx.NewVerifierHS256(secret, issuer, 0)
	if err != nil {
		return nil, err
	}

	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}

	return &TokenService{
		Signer:     signer,
		Verifier:   verifier,
		Issuer:     issuer,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}, nil
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TokenService) CreateAccessToken(subject string, role domain.Role) (string, error) {
	return s.create(subject, role, jwtx.TypeAccess, s.AccessTTL)
}

func (s *TokenService) CreateRefreshToken(subject string, role domain.Role) (string, error) {
	return s.create(subject, role, jwtx.TypeRefresh, s.RefreshTTL)
}

func (s *TokenService) create(subject string, role domain.Role, typ jwtx.TokenType, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	return s.Signer.Sign(jwtx.NewClaims(subject, role.String(), typ, ttl, s.Issuer, s.now()))
}

// DecodeToken verifies token and returns its claims. It does not look at the
// type claim; callers use Claims.RequireType. Failures wrap
// jwtx.ErrInvalidToken.
func (s *TokenService) DecodeToken(token string) (jwtx.Claims, error) {
	return s.Verifier.Verify(token)
}

// IssuePair mints a fresh access and refresh token for subject.
func (s *TokenService) IssuePair(subject string, role domain.Role) (*domain.TokenPair, error) {
	access, err := s.CreateAccessToken(subject, role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.CreateRefreshToken(subject, role)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.AccessTTL / time.Second),
	}, nil
}
