package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
	"github.com/aussiebroadwan/starterkit/internal/users/store"
	"github.com/aussiebroadwan/starterkit/pkg/cryptox"
	"github.com/aussiebroadwan/starterkit/pkg/idx"
	"github.com/aussiebroadwan/starterkit/pkg/slogx"
)

// PasswordHasher is satisfied by *cryptox.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
	NeedsRehash(encoded string) bool
	MaxPasswordBytes() int
}

type UserService struct {
	Store  store.Store
	Hasher PasswordHasher

	// Now is swapped in tests.
	Now func() time.Time
}

type CreateUserInput struct {
	Username string
	Name     string
	Password string
	Role     domain.Role
	Inactive bool
}

// UpdateUserInput holds the fields to replace. Nil fields are left alone.
type UpdateUserInput struct {
	Name     *string
	Password *string
	Inactive *bool
	Role     *domain.Role
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create validates and stores a new user. Username uniqueness is left to the
// store's unique index.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if in.Role == "" {
		in.Role = domain.RoleUser
	}

	now := s.now()
	u := domain.User{
		ID:        idx.NewAt(now).String(),
		Username:  in.Username,
		Name:      in.Name,
		Role:      in.Role,
		Inactive:  in.Inactive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := domain.JoinValidation(u.Validate(), s.validatePassword(in.Password)); err != nil {
		return domain.User{}, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	u.PasswordHash = hash

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Info("username already taken", slog.String("username", u.Username))
			return domain.User{}, ErrUsernameConflict
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	l.Info("user created",
		slog.String("user_id", u.ID),
		slog.String("role", u.Role.String()),
	)
	return u, nil
}

// ListActive returns every user that is not soft deleted, inactive ones
// included.
func (s *UserService) ListActive(ctx context.Context) ([]domain.User, error) {
	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetActive returns the user with id when it is active.
func (s *UserService) GetActive(ctx context.Context, id string) (domain.User, error) {
	return loadActive(ctx, s.Store, id)
}

// loadActive is the single lookup of an active user by id. Ids that are not
// ULIDs cannot exist and never reach the store.
func loadActive(ctx context.Context, st store.Store, id string) (domain.User, error) {
	if !idx.Valid(id) {
		return domain.User{}, ErrNotFound
	}

	u, err := st.Users().GetUserByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// validatePassword applies the domain rules and the current scheme's input
// limit.
func (s *UserService) validatePassword(pw string) error {
	return domain.ValidatePasswordLimit(pw, s.Hasher.MaxPasswordBytes())
}

func (s *UserService) hash(pw string) (string, error) {
	hash, err := s.Hasher.Hash(pw)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return "", domain.NewValidationError("password", "too long for the password scheme")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// UpdateActive replaces the supplied fields of an active user and returns the
// stored result.
func (s *UserService) UpdateActive(ctx context.Context, id string, in UpdateUserInput) (domain.User, error) {
	current, err := s.GetActive(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	patch := domain.UserPatch{
		Name:     in.Name,
		Inactive: in.Inactive,
		Role:     in.Role,
	}
	var pwErr error
	if in.Password != nil {
		pwErr = s.validatePassword(*in.Password)
	}
	if err := domain.JoinValidation(patch.Validate(), pwErr); err != nil {
		return domain.User{}, err
	}

	// nothing supplied, nothing written
	if patch.Empty() && in.Password == nil {
		return current, nil
	}

	if in.Password != nil {
		hash, err := s.hash(*in.Password)
		if err != nil {
			return domain.User{}, err
		}
		patch.PasswordHash = &hash
	}

	if err := s.Store.Users().UpdateUser(ctx, id, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}

	// the update may have deactivated the user, so read back without the filter
	u, err := s.Store.Users().GetUserByID(ctx, id, false)
	if err != nil {
		return domain.User{}, fmt.Errorf("reload user: %w", err)
	}

	slogx.FromContext(ctx).Info("user updated",
		slog.String("user_id", id),
		slog.Bool("password_changed", in.Password != nil),
	)
	return u, nil
}

// DeleteActive soft deletes an active user.
func (s *UserService) DeleteActive(ctx context.Context, id string) error {
	if _, err := s.GetActive(ctx, id); err != nil {
		return err
	}

	if err := s.Store.Users().SoftDeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	slogx.FromContext(ctx).Info("user deleted", slog.String("user_id", id))
	return nil
}

// BootstrapAdmin creates an admin account when the store holds no users at
// all. Without a configured password one is generated and logged once. It
// reports whether a user was created.
func (s *UserService) BootstrapAdmin(ctx context.Context, username, name, password string) (bool, error) {
	l := slogx.FromContext(ctx)

	if username == "" {
		return false, nil
	}

	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, fmt.Errorf("check store: %w", err)
	}
	if !empty {
		l.Debug("users exist, skipping admin bootstrap")
		return false, nil
	}

	generated := false
	if password == "" {
		if password, err = cryptox.GeneratePassword(); err != nil {
			return false, err
		}
		generated = true
	}
	if name == "" {
		name = username
	}

	u, err := s.Create(ctx, CreateUserInput{
		Username: username,
		Name:     name,
		Password: password,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}

	if generated {
		l.Warn("bootstrapped admin with generated password, change it after first login",
			slog.String("user_id", u.ID),
			slog.String("username", u.Username),
			slog.String("password", password),
		)
	} else {
		l.Info("bootstrapped admin", slog.String("user_id", u.ID), slog.String("username", u.Username))
	}
	return true, nil
}
