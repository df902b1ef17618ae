package http_test

import (
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/starterkit/pkg/usersdk"
	"github.com/stretchr/testify/require"
)

func TestSDKAgainstRouter(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	client := usersdk.NewSDKClient(srv.URL)
	ctx := t.Context()

	info, err := client.GetInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, "starterkit", info.Project)

	health, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)

	dave, err := client.CreateUser(ctx, usersdk.CreateUserRequest{
		Username: "dave",
		Name:     "Dave",
		Password: "dave-password",
	})
	require.NoError(t, err)

	_, err = client.CreateUser(ctx, usersdk.CreateUserRequest{
		Username: "dave",
		Name:     "Other Dave",
		Password: "dave-password",
	})
	require.ErrorIs(t, err, usersdk.ErrUsernameConflict)

	_, err = client.Login(ctx, "dave", "wrong")
	require.ErrorIs(t, err, usersdk.ErrUnauthorized)

	session, err := client.Login(ctx, "dave", "dave-password")
	require.NoError(t, err)

	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, dave.ID, me.ID)

	users, err := session.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	name := "David"
	updated, err := session.UpdateUser(ctx, dave.ID, usersdk.UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "David", updated.Name)

	admin, err := session.GetUser(ctx, users[1].ID)
	require.NoError(t, err)
	require.Equal(t, adminUsername, admin.Username)

	err = session.DeleteUser(ctx, admin.ID)
	require.ErrorIs(t, err, usersdk.ErrForbidden)

	// an already expired session refreshes itself before the next call
	stale := client.NewSessionFromTokens("expired", session.RefreshToken(), 0)
	me, err = stale.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, dave.ID, me.ID)
	require.NotEqual(t, "expired", stale.AccessToken())

	require.NoError(t, session.DeleteUser(ctx, dave.ID))

	_, err = session.Me(ctx)
	require.ErrorIs(t, err, usersdk.ErrNotFound)
}

func TestSDKAdminSession(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	client := usersdk.NewSDKClient(srv.URL)
	ctx := t.Context()

	_, err := client.CreateUser(ctx, usersdk.CreateUserRequest{
		Username: "eve",
		Name:     "Eve",
		Password: "eve-password",
		Role:     "admin",
	})
	require.ErrorIs(t, err, usersdk.ErrForbidden)

	session, err := client.Login(ctx, adminUsername, adminPassword)
	require.NoError(t, err)

	eve, err := session.CreateUser(ctx, usersdk.CreateUserRequest{
		Username: "eve",
		Name:     "Eve",
		Password: "eve-password",
		Role:     "admin",
	})
	require.NoError(t, err)
	require.Equal(t, "admin", eve.Role)

	_, err = session.CreateUser(ctx, usersdk.CreateUserRequest{Username: "x"})
	var apiErr *usersdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, usersdk.ErrorCodeValidationFailed, apiErr.Code)
	require.Contains(t, apiErr.Fields, "name")
	require.Contains(t, apiErr.Fields, "password")
}
