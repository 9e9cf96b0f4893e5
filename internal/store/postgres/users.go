package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/qartha/idfportal/internal/core"
)

const userColumns = `id, email, full_name, role, password_hash, is_active, created_at, last_login_at`

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &role, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = core.Role(role)
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, full_name, role, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		u.Email, u.FullName, string(u.Role), u.PasswordHash, u.Active, u.CreatedAt,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return core.ErrUserExists
	}
	return err
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*core.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (s *Store) UserByID(ctx context.Context, id int64) (*core.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUserNotFound
	}
	return nil
}
