package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, mongo)
// implement this and expose sub-repositories.
type Store interface {
	Users() Users

	// ApplyMigrations brings the schema (tables or indexes) up to date. It is
	// safe to call on every start.
	ApplyMigrations() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error

	Close() error
}

type Users interface {
	// CreateUser inserts u as given. Fails with ErrAlreadyExists when the
	// username is taken by any record, deleted ones included.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns ErrNotFound when no record matches. With activeOnly
	// set, inactive and soft deleted records do not match.
	GetUserByID(ctx context.Context, id string, activeOnly bool) (domain.User, error)

	// GetUserByUsername behaves like GetUserByID but keys on username.
	GetUserByUsername(ctx context.Context, username string, activeOnly bool) (domain.User, error)

	// ListUsers returns every record that is not soft deleted, newest first.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// UpdateUser applies the non-nil fields of patch and bumps updated_at.
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error

	// SoftDeleteUser sets deleted_at, inactive and updated_at in one write.
	// Deleting twice moves deleted_at forward.
	SoftDeleteUser(ctx context.Context, id string) error

	// IsEmpty returns true if there are no users at all.
	IsEmpty(ctx context.Context) (bool, error)
}
