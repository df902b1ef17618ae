package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/starterkit/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newPair(t *testing.T, issuer string) (*jwtx.HS256Signer, *jwtx.HS256Verifier) {
	t.Helper()
	s, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	v, err := jwtx.NewVerifierHS256(testSecret, issuer, 0)
	require.NoError(t, err)
	return s, v
}

func TestHS256_RoundTrip(t *testing.T) {
	s, v := newPair(t, "starterkit")
	require.Equal(t, "HS256", s.Alg())

	tok, err := s.Sign(jwtx.NewClaims("user-1", "user", jwtx.TypeAccess, time.Minute, "starterkit", time.Now()))
	require.NoError(t, err)
	require.Len(t, strings.Split(tok, "."), 3)

	c, err := v.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "user", c.Role)
	require.Equal(t, jwtx.TypeAccess, c.Type)
	require.True(t, c.ExpiresAt.After(time.Now()))
}

func TestHS256_RejectsWeakSecret(t *testing.T) {
	_, err := jwtx.NewSignerHS256([]byte("short"))
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
	_, err = jwtx.NewVerifierHS256(nil, "", 0)
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestHS256_Expired(t *testing.T) {
	s, v := newPair(t, "")

	// issued two hours ago with a one hour lifetime
	past := time.Now().Add(-2 * time.Hour)
	tok, err := s.Sign(jwtx.NewClaims("user-1", "user", jwtx.TypeAccess, time.Hour, "", past))
	require.NoError(t, err)

	_, err = v.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestHS256_WrongSecret(t *testing.T) {
	s, err := jwtx.NewSignerHS256([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)
	_, v := newPair(t, "")

	tok, err := s.Sign(jwtx.NewClaims("user-1", "user", jwtx.TypeAccess, time.Minute, "", time.Now()))
	require.NoError(t, err)

	_, err = v.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestHS256_IssuerMismatch(t *testing.T) {
	s, v := newPair(t, "starterkit")

	tok, err := s.Sign(jwtx.NewClaims("user-1", "user", jwtx.TypeAccess, time.Minute, "someone-else", time.Now()))
	require.NoError(t, err)

	_, err = v.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestHS256_Malformed(t *testing.T) {
	_, v := newPair(t, "")

	for _, tok := range []string{"", "abc", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30"} {
		_, err := v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken, "token %q", tok)
	}
}

func TestHS256_RejectsOtherAlgorithms(t *testing.T) {
	_, v := newPair(t, "")
	claims := jwtx.NewClaims("user-1", "admin", jwtx.TypeAccess, time.Minute, "", time.Now())

	t.Run("none", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})

	t.Run("HS512 with same secret", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})
}

func TestHS256_MissingSubject(t *testing.T) {
	s, v := newPair(t, "")

	tok, err := s.Sign(jwtx.NewClaims("", "user", jwtx.TypeAccess, time.Minute, "", time.Now()))
	require.NoError(t, err)

	_, err = v.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
}
