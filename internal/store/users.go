package store

import (
	"context"
	"database/sql"
	"time"
)

const createUser = `
INSERT INTO users (email, password_hash, role, name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, email, password_hash, role, name, created_at, updated_at, last_login_at
`

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new user and returns the created row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Email, arg.PasswordHash, arg.Role, arg.Name, arg.CreatedAt, arg.UpdatedAt)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

const getUserByID = `
SELECT id, email, password_hash, role, name, created_at, updated_at, last_login_at
FROM users WHERE id = ?
`

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

const getUserByEmail = `
SELECT id, email, password_hash, role, name, created_at, updated_at, last_login_at
FROM users WHERE email = ?
`

// GetUserByEmail fetches a user by exact (case-sensitive) email match.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

const countUsers = `SELECT COUNT(*) FROM users`

// CountUsers returns the total number of registered users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsers)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateUserPassword = `
UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
`

// UpdateUserPasswordParams holds the fields for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

// UpdateUserPassword replaces a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

const updateUserLastLogin = `
UPDATE users SET last_login_at = ? WHERE id = ?
`

// UpdateUserLastLoginParams holds the fields for UpdateUserLastLogin.
type UpdateUserLastLoginParams struct {
	LastLoginAt sql.NullTime
	ID          int64
}

// UpdateUserLastLogin records the time of a successful login.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, arg.LastLoginAt, arg.ID)
	return err
}
