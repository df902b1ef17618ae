package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
	"github.com/aussiebroadwan/starterkit/internal/users/service"
	"github.com/aussiebroadwan/starterkit/internal/users/store"
	"github.com/aussiebroadwan/starterkit/internal/users/store/drivers/sqlite"
	"github.com/aussiebroadwan/starterkit/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("service-test-secret-0123456789abcdef")

type fixture struct {
	store  store.Store
	hasher *cryptox.Hasher
	tokens *service.TokenService
	users  *service.UserService
	auth   *service.AuthService
}

// newFixture defaults to argon2id with bcrypt accepted for verification.
func newFixture(t *testing.T, schemes ...string) *fixture {
	t.Helper()
	if len(schemes) == 0 {
		schemes = []string{cryptox.SchemeArgon2id, cryptox.SchemeBcrypt}
	}

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	hasher, err := cryptox.NewHasher("test-pepper", schemes...)
	require.NoError(t, err)

	tokens, err := service.NewTokenService(testSecret, "starterkit", 30*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	return &fixture{
		store:  st,
		hasher: hasher,
		tokens: tokens,
		users:  &service.UserService{Store: st, Hasher: hasher},
		auth:   &service.AuthService{Store: st, Hasher: hasher, Tokens: tokens},
	}
}

func ctx() context.Context { return context.Background() }

// countingStore records id lookups that reach the store.
type countingStore struct {
	store.Store
	users *countingUsers
}

func (s *countingStore) Users() store.Users { return s.users }

type countingUsers struct {
	store.Users
	byID []string
}

func (u *countingUsers) GetUserByID(ctx context.Context, id string, activeOnly bool) (domain.User, error) {
	u.byID = append(u.byID, id)
	return u.Users.GetUserByID(ctx, id, activeOnly)
}

func newCountingStore(st store.Store) *countingStore {
	return &countingStore{Store: st, users: &countingUsers{Users: st.Users()}}
}
