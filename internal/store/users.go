package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

const userColumns = `id, username, password_hash, name, cnic, paa, status, role, created_at, deleted_at`

// CreateUser creates a new user. An empty status defaults to Enabled.
func CreateUser(ctx context.Context, q db.Querier, u *model.User) (*model.User, error) {
	status := u.Status
	if status == "" {
		status = model.UserStatusEnabled
	}

	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, name, cnic, paa, status, role)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		u.Username, u.PasswordHash, u.Name, u.CNIC, u.PAA, status, u.Role,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, q, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, q db.Querier, id int64) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns the active user with the given username.
// Soft-deleted users keep their row but free the username.
func GetUserByUsername(ctx context.Context, q db.Querier, username string) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`, username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users, optionally filtered by role.
func ListUsers(ctx context.Context, q db.Querier, role string) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	var args []any
	if role != "" {
		query += ` AND role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ListEnabledBidderIDs returns the IDs of active bidders whose status is Enabled.
func ListEnabledBidderIDs(ctx context.Context, q db.Querier) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM users
		 WHERE deleted_at IS NULL AND role = ? AND status = ?
		 ORDER BY id`, model.RoleBidder, model.UserStatusEnabled,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bidders: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning bidder id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateUser updates a user's profile, status and role.
func UpdateUser(ctx context.Context, q db.Querier, u *model.User) error {
	result, err := q.ExecContext(ctx,
		`UPDATE users SET name = ?, cnic = ?, paa = ?, status = ?, role = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		u.Name, u.CNIC, u.PAA, u.Status, u.Role, u.ID,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return expectRow(result, "user", strconv.FormatInt(u.ID, 10))
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, q db.Querier, id int64, passwordHash string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return expectRow(result, "user", strconv.FormatInt(id, 10))
}

// DeleteUser soft-deletes a user. Their bids and wins stay in the ledger.
func DeleteUser(ctx context.Context, q db.Querier, id int64) error {
	result, err := q.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return expectRow(result, "user", strconv.FormatInt(id, 10))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.CNIC, &u.PAA,
		&u.Status, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// expectRow turns an update that touched nothing into a NotFoundError.
func expectRow(result sql.Result, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}
