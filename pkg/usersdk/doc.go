/*
Package usersdk is a Go client for the starterkit user service.

# Overview

SDKClient covers the unauthenticated endpoints (login, refresh, sign-up and
the health probes). Login returns a Session, which carries the token pair and
is used for everything that needs a bearer token.

	client := usersdk.NewSDKClient("http://localhost:8080")

	_, err := client.CreateUser(ctx, usersdk.CreateUserRequest{
		Username: "alice",
		Name:     "Alice",
		Password: "correct horse",
	})

	session, err := client.Login(ctx, "alice", "correct horse")
	me, err := session.Me(ctx)

# Automatic Token Refresh

Sessions refresh their access token 30 seconds before it expires, using the
refresh token from the last login or refresh. Callers never refresh by hand.

# Error Handling

Failed calls return *APIError. The predefined values can be matched with
errors.Is, which compares error codes:

	_, err := session.GetUser(ctx, id)
	if errors.Is(err, usersdk.ErrNotFound) {
		// deleted or never existed
	}

Validation failures carry per-field reasons in APIError.Fields.

The same APIError values are written by the service's handlers, so the wire
format is defined in one place.

# Thread Safety

Sessions are safe for concurrent use.
*/
package usersdk
