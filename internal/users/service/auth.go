package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
	"github.com/aussiebroadwan/starterkit/internal/users/store"
	"github.com/aussiebroadwan/starterkit/pkg/jwtx"
	"github.com/aussiebroadwan/starterkit/pkg/slogx"
)

type AuthService struct {
	Store  store.Store
	Hasher PasswordHasher
	Tokens *TokenService

	dummyOnce sync.Once
	dummyHash string
}

// Login exchanges credentials for a token pair. Unknown usernames and wrong
// passwords both yield ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByUsername(ctx, username, true)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		// burn the same hashing time as a real check
		s.Hasher.Verify(password, s.dummy())
		l.Info("login failed", slog.String("reason", "unknown user"))
		return nil, ErrUnauthorized
	}

	if !s.Hasher.Verify(password, u.PasswordHash) {
		l.Info("login failed", slog.String("reason", "bad password"), slog.String("user_id", u.ID))
		return nil, ErrUnauthorized
	}

	if s.Hasher.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, u.ID, password)
	}

	pair, err := s.Tokens.IssuePair(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	l.Info("login succeeded", slog.String("user_id", u.ID))
	return pair, nil
}

// rehash upgrades a hash from a deprecated scheme. Failure does not fail the
// login.
func (s *AuthService) rehash(ctx context.Context, userID, password string) {
	l := slogx.FromContext(ctx)

	hash, err := s.Hasher.Hash(password)
	if err == nil {
		err = s.Store.Users().UpdateUser(ctx, userID, domain.UserPatch{PasswordHash: &hash})
	}
	if err != nil {
		l.Warn("failed to upgrade password hash", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	l.Info("upgraded password hash", slog.String("user_id", userID))
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("dummy-password-for-timing")
	})
	return s.dummyHash
}

// Refresh issues a new pair from a valid refresh token. The subject is not
// re-checked against the store.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.decode(refreshToken, jwtx.TypeRefresh)
	if err != nil {
		l.Info("refresh rejected", slog.Any("error", err))
		return nil, ErrUnauthorized
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		l.Info("refresh rejected", slog.Any("error", err))
		return nil, ErrUnauthorized
	}

	pair, err := s.Tokens.IssuePair(claims.Subject, role)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return pair, nil
}

// AuthenticateRequest resolves an access token to its active user. A valid
// token whose user has since been deleted or deactivated, or whose subject is
// not a user id, yields ErrNotFound.
func (s *AuthService) AuthenticateRequest(ctx context.Context, accessToken string) (domain.User, error) {
	claims, err := s.decode(accessToken, jwtx.TypeAccess)
	if err != nil {
		slogx.FromContext(ctx).Debug("access token rejected", slog.Any("error", err))
		return domain.User{}, ErrUnauthorized
	}

	return loadActive(ctx, s.Store, claims.Subject)
}

func (s *AuthService) decode(token string, want jwtx.TokenType) (jwtx.Claims, error) {
	claims, err := s.Tokens.DecodeToken(token)
	if err != nil {
		return jwtx.Claims{}, err
	}
	if err := claims.RequireType(want); err != nil {
		return jwtx.Claims{}, err
	}
	return claims, nil
}
