package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/dbx"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
)

const appColumns = `id, user_id, company_name, role, location, status,
		 applied_date, interview_date, notes, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	query :=
		`INSERT INTO applications (user_id, company_name, role, location, status, applied_date, interview_date, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		app.UserID, app.CompanyName, app.Role, app.Location, string(app.Status),
		app.AppliedDate, nullTime(app), app.Notes).
		Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return app, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications WHERE id = $1 AND user_id = $2`
	return r.getOne(ctx, query, id, userID)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID, id string) (*models.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications WHERE id = $1 AND user_id = $2 FOR UPDATE`
	return r.getOne(ctx, query, id, userID)
}

func (r *PostgresRepository) List(ctx context.Context, userID string, status models.Status) ([]models.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications
		 WHERE user_id = $1 AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]models.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

// Update replaces the editable fields and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, app *models.Application) error {
	query :=
		`UPDATE applications
		 SET company_name = $3, role = $4, location = $5, status = $6,
		     applied_date = $7, interview_date = $8, notes = $9, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		app.ID, app.UserID, app.CompanyName, app.Role, app.Location, string(app.Status),
		app.AppliedDate, nullTime(app), app.Notes).
		Scan(&app.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM applications WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Application, error) {
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(s scanner) (*models.Application, error) {
	a := &models.Application{}
	var status string
	var interview sql.NullTime
	err := s.Scan(&a.ID, &a.UserID, &a.CompanyName, &a.Role, &a.Location, &status,
		&a.AppliedDate, &interview, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = models.Status(status)
	if interview.Valid {
		t := interview.Time
		a.InterviewDate = &t
	}
	return a, nil
}

func nullTime(app *models.Application) sql.NullTime {
	if app.InterviewDate == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *app.InterviewDate, Valid: true}
}
