package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
)

const userColumns = `id, username, name, password_hash, role, inactive, created_at, updated_at, deleted_at`

const activeClause = ` AND inactive = 0 AND deleted_at IS NULL`

type usersRepo struct {
	db  *sql.DB
	now func() time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u         domain.User
		role      string
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Name,
		&u.PasswordHash,
		&role,
		&u.Inactive,
		&u.CreatedAt,
		&u.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	if u.Role, err = domain.ParseRole(role); err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	u.DeletedAt = mapNullTimePtr(deletedAt)
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Username,
		u.Name,
		u.PasswordHash,
		string(u.Role),
		u.Inactive,
		u.CreatedAt.UTC(),
		u.UpdatedAt.UTC(),
		mapOptionalTime(u.DeletedAt),
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string, activeOnly bool) (domain.User, error) {
	return r.getOne(ctx, "id", id, activeOnly)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string, activeOnly bool) (domain.User, error) {
	return r.getOne(ctx, "username", username, activeOnly)
}

func (r *usersRepo) getOne(ctx context.Context, column, value string, activeOnly bool) (domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`
	if activeOnly {
		q += activeClause
	}

	u, err := scanUser(r.db.QueryRowContext(ctx, q, value))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error {
	sets := []string{"updated_at = ?"}
	args := []any{r.now()}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *patch.PasswordHash)
	}
	if patch.Inactive != nil {
		sets = append(sets, "inactive = ?")
		args = append(args, *patch.Inactive)
	}
	if patch.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, string(*patch.Role))
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) SoftDeleteUser(ctx context.Context, id string) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET deleted_at = ?, inactive = 1, updated_at = ? WHERE id = ?`,
		now, now, id,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users)`).Scan(&exists); err != nil {
		return false, err
	}
	return !exists, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
