package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/workpulse/workpulse/internal/identity/entity"
	"github.com/workpulse/workpulse/internal/pkg/goerror"
)

const userColumns = `id, username, email, password, role, active, created_at, updated_at`

const queryFindUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

const queryGetUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

const queryUpdateUserPassword = `UPDATE users SET password = $2, updated_at = now() WHERE id = $1`

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u    entity.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &role, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	return &u, nil
}

// FindUserByEmail expects email to be normalized already.
func (s *DB) FindUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, end := s.span(ctx, "FindUserByEmail", "users")
	defer func() { end(err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, queryFindUserByEmail, email))
	if err != nil {
		return nil, mapError(err)
	}

	return u, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, end := s.span(ctx, "GetUserByID", "users")
	defer func() { end(err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, queryGetUserByID, id))
	if err != nil {
		return nil, mapError(err)
	}

	return u, nil
}

func (s *DB) UpdateUserPassword(ctx context.Context, id int64, hash string) (err error) {
	ctx, end := s.span(ctx, "UpdateUserPassword", "users")
	defer func() { end(err) }()

	tag, err := s.conn.Exec(ctx, queryUpdateUserPassword, id, hash)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
