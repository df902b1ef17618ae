package service_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
	"github.com/aussiebroadwan/starterkit/internal/users/service"
	"github.com/aussiebroadwan/starterkit/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceDefaults(t *testing.T) {
	ts, err := service.NewTokenService(testSecret, "", 0, 0)
	require.NoError(t, err)
	require.Equal(t, jwtx.DefaultAccessTokenTTL, ts.AccessTTL)
	require.Equal(t, jwtx.DefaultRefreshTokenTTL, ts.RefreshTTL)

	_, err = service.NewTokenService([]byte("short"), "", 0, 0)
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestCreateAndDecode(t *testing.T) {
	ts, err := service.NewTokenService(testSecret, "starterkit", time.Minute, time.Hour)
	require.NoError(t, err)

	access, err := ts.CreateAccessToken("user-1", domain.RoleAdmin)
	require.NoError(t, err)

	c, err := ts.DecodeToken(access)
	require.NoError(t, err)
	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "admin", c.Role)
	require.Equal(t, jwtx.TypeAccess, c.Type)
	require.True(t, c.ExpiresAt.After(time.Now()))
	require.WithinDuration(t, time.Now().Add(time.Minute), c.ExpiresAt.Time, 5*time.Second)

	refresh, err := ts.CreateRefreshToken("user-1", domain.RoleUser)
	require.NoError(t, err)
	c, err = ts.DecodeToken(refresh)
	require.NoError(t, err)
	require.Equal(t, jwtx.TypeRefresh, c.Type)
	require.WithinDuration(t, time.Now().Add(time.Hour), c.ExpiresAt.Time, 5*time.Second)

	_, err = ts.CreateAccessToken("", domain.RoleUser)
	require.Error(t, err)
}

func TestDecodeRejectsOtherIssuer(t *testing.T) {
	a, err := service.NewTokenService(testSecret, "a", time.Minute, time.Hour)
	require.NoError(t, err)
	b, err := service.NewTokenService(testSecret, "b", time.Minute, time.Hour)
	require.NoError(t, err)

	tok, err := a.CreateAccessToken("user-1", domain.RoleUser)
	require.NoError(t, err)

	_, err = b.DecodeToken(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}
