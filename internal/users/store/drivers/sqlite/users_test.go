package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
	"github.com/aussiebroadwan/starterkit/internal/users/store"
	"github.com/aussiebroadwan/starterkit/internal/users/store/drivers/sqlite"
	"github.com/aussiebroadwan/starterkit/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUser(username string, createdAt time.Time) domain.User {
	return domain.User{
		ID:           idx.NewAt(createdAt).String(),
		Username:     username,
		Name:         "Name " + username,
		PasswordHash: "$argon2id$hash",
		Role:         domain.RoleUser,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Users()

	empty, err := repo.IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := newUser("alice", time.Now().UTC())
	require.NoError(t, repo.CreateUser(ctx, u))

	empty, err = repo.IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)

	got, err := repo.GetUserByID(ctx, u.ID, true)
	require.NoError(t, err)
	require.Equal(t, u.Username, got.Username)
	require.Equal(t, u.Name, got.Name)
	require.Equal(t, u.PasswordHash, got.PasswordHash)
	require.Equal(t, domain.RoleUser, got.Role)
	require.False(t, got.Inactive)
	require.Nil(t, got.DeletedAt)
	require.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Millisecond)

	byName, err := repo.GetUserByUsername(ctx, "alice", true)
	require.NoError(t, err)
	require.Equal(t, u.ID, byName.ID)

	_, err = repo.GetUserByID(ctx, "missing", false)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Users()

	require.NoError(t, repo.CreateUser(ctx, newUser("bob", time.Now().UTC())))
	err := repo.CreateUser(ctx, newUser("bob", time.Now().UTC()))
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestActiveOnlyFiltering(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Users()

	u := newUser("carol", time.Now().UTC())
	u.Inactive = true
	require.NoError(t, repo.CreateUser(ctx, u))

	_, err := repo.GetUserByID(ctx, u.ID, true)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.GetUserByUsername(ctx, "carol", true)
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := repo.GetUserByID(ctx, u.ID, false)
	require.NoError(t, err)
	require.True(t, got.Inactive)

	// inactive but not deleted still lists
	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestListUsersNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Users()

	base := time.Now().UTC().Add(-time.Hour)
	for i, name := range []string{"u1", "u2", "u3"} {
		require.NoError(t, repo.CreateUser(ctx, newUser(name, base.Add(time.Duration(i)*time.Minute))))
	}

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, "u3", users[0].Username)
	require.Equal(t, "u2", users[1].Username)
	require.Equal(t, "u1", users[2].Username)
}

func TestUpdateUserPartial(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Users()

	created := time.Now().UTC().Add(-time.Minute)
	u := newUser("dave", created)
	require.NoError(t, repo.CreateUser(ctx, u))

	name := "David"
	role := domain.RoleAdmin
	require.NoError(t, repo.UpdateUser(ctx, u.ID, domain.UserPatch{Name: &name, Role: &role}))

	got, err := repo.GetUserByID(ctx, u.ID, true)
	require.NoError(t, err)
	require.Equal(t, "David", got.Name)
	require.Equal(t, domain.RoleAdmin, got.Role)
	require.Equal(t, u.PasswordHash, got.PasswordHash)
	require.False(t, got.Inactive)
	require.True(t, got.UpdatedAt.After(created))

	err = repo.UpdateUser(ctx, "missing", domain.UserPatch{Name: &name})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSoftDeleteUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Users()

	u := newUser("erin", time.Now().UTC())
	require.NoError(t, repo.CreateUser(ctx, u))
	require.NoError(t, repo.SoftDeleteUser(ctx, u.ID))

	got, err := repo.GetUserByID(ctx, u.ID, false)
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)
	require.True(t, got.Inactive)

	_, err = repo.GetUserByID(ctx, u.ID, true)
	require.ErrorIs(t, err, store.ErrNotFound)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Empty(t, users)

	// second delete succeeds and does not move deleted_at backwards
	first := *got.DeletedAt
	require.NoError(t, repo.SoftDeleteUser(ctx, u.ID))
	again, err := repo.GetUserByID(ctx, u.ID, false)
	require.NoError(t, err)
	require.False(t, again.DeletedAt.Before(first))

	// the username stays reserved
	err = repo.CreateUser(ctx, newUser("erin", time.Now().UTC()))
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	require.ErrorIs(t, repo.SoftDeleteUser(ctx, "missing"), store.ErrNotFound)
}
