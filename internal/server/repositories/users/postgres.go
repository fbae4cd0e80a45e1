package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/dbx"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
)

const (
	emailKey    = "users_email_lower_key"
	usernameKey = "users_username_lower_key"
)

const userColumns = `id, email, username, password_hash, first_name, last_name,
		 is_active, is_staff, created_at, last_login_at, last_login_ip`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, username, password_hash, first_name, last_name, is_active, is_staff)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	user.Email = strings.ToLower(user.Email)
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.FirstName, user.LastName, user.IsActive, user.IsStaff).
		Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, mapWriteError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
}

func (r *PostgresRepository) ExistsEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1) AND id::text <> $2)`, email, excludeID)
}

func (r *PostgresRepository) ExistsUsername(ctx context.Context, username, excludeID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(username) = lower($1) AND id::text <> $2)`, username, excludeID)
}

func (r *PostgresRepository) UpdateLogin(ctx context.Context, id string, at time.Time, ip string) error {
	query :=
		`UPDATE users SET last_login_at = $2, last_login_ip = $3
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, at, ip)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $2
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET email = $2, username = $3, first_name = $4, last_name = $5
		 WHERE id = $1
		 `
	user.Email = strings.ToLower(user.Email)
	res, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.Username, user.FirstName, user.LastName)
	if err != nil {
		return mapWriteError(err)
	}
	return oneRow(res)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRow(res)
}

func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsActive, &u.IsStaff, &u.CreatedAt, &lastLogin, &u.LastLoginIP)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

func mapWriteError(err error) error {
	switch {
	case dbx.IsUniqueViolation(err, emailKey):
		return ErrEmailTaken
	case dbx.IsUniqueViolation(err, usernameKey):
		return ErrUsernameTaken
	case dbx.IsUniqueViolation(err, ""):
		return common.ErrorAlreadyExists
	}
	return fmt.Errorf("db error: %w", err)
}
