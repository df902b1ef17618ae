package usersdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeServer hands out numbered tokens and echoes the bearer token back from
// /api/v1/auth/me as the user's name.
func fakeServer(t *testing.T, refreshes *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ErrInvalidRequest.WriteError(w)
			return
		}
		if req.RefreshToken != "refresh-1" {
			ErrUnauthorized.WriteError(w)
			return
		}
		refreshes.Add(1)
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "access-2",
			RefreshToken: "refresh-1",
			TokenType:    "bearer",
			ExpiresIn:    3600,
		})
	})
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(User{ID: "u1", Name: r.Header.Get("Authorization")})
	})
	mux.HandleFunc("GET /api/v1/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		ErrNotFound.WriteError(w)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionUsesCurrentToken(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := fakeServer(t, &refreshes)
	client := NewSDKClient(srv.URL + "/")

	session := client.NewSessionFromTokens("access-1", "refresh-1", 3600)
	me, err := session.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer access-1", me.Name)
	require.Zero(t, refreshes.Load())
}

func TestSessionRefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := fakeServer(t, &refreshes)
	client := NewSDKClient(srv.URL)

	// lifetime shorter than the refresh buffer counts as already expired
	session := client.NewSessionFromTokens("access-1", "refresh-1", 1)
	me, err := session.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer access-2", me.Name)
	require.Equal(t, int32(1), refreshes.Load())
	require.Equal(t, "access-2", session.AccessToken())

	// the refreshed token is reused
	_, err = session.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), refreshes.Load())
}

func TestSessionWithoutRefreshToken(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := fakeServer(t, &refreshes)
	client := NewSDKClient(srv.URL)

	session := client.NewSessionFromTokens("access-1", "", 0)
	_, err := session.Me(context.Background())
	require.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestSessionRefreshRejected(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := fakeServer(t, &refreshes)
	client := NewSDKClient(srv.URL)

	session := client.NewSessionFromTokens("access-1", "stale", 0)
	_, err := session.Me(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAPIErrorMatching(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := fakeServer(t, &refreshes)
	client := NewSDKClient(srv.URL)
	session := client.NewSessionFromTokens("access-1", "refresh-1", 3600)

	_, err := session.GetUser(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrForbidden)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	t.Run("service shape", func(t *testing.T) {
		body := []byte(`{"error":"validation_failed","error_description":"bad","fields":{"username":"required"}}`)
		err := parseErrorResponse(&http.Response{StatusCode: http.StatusBadRequest}, body)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, ErrorCodeValidationFailed, apiErr.Code)
		require.Equal(t, "required", apiErr.Fields["username"])
		require.Equal(t, "validation_failed: bad (username: required)", apiErr.Error())
	})

	t.Run("plain text body", func(t *testing.T) {
		err := parseErrorResponse(&http.Response{StatusCode: http.StatusTooManyRequests}, []byte("slow down\n"))
		require.ErrorIs(t, err, ErrRateLimited)
		require.Contains(t, err.Error(), "slow down")
	})

	t.Run("empty body", func(t *testing.T) {
		err := parseErrorResponse(&http.Response{StatusCode: http.StatusBadGateway}, nil)
		require.ErrorIs(t, err, ErrServerError)
		require.Contains(t, err.Error(), http.StatusText(http.StatusBadGateway))
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
	})
}

func TestWriteErrorUnauthorizedChallenge(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ErrUnauthorized.WriteError(rec)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, ErrorCodeUnauthorized, body["error"])
	require.NotContains(t, body, "fields")
}

func TestWithFieldsCopies(t *testing.T) {
	t.Parallel()

	e := ErrValidationFailed.WithFields(map[string]string{"name": "required"})
	require.Nil(t, ErrValidationFailed.Fields)
	require.ErrorIs(t, e, ErrValidationFailed)
}
