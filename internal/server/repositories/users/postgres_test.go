package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
)

var userCols = []string{"id", "email", "username", "password_hash", "first_name", "last_name",
	"is_active", "is_staff", "created_at", "last_login_at", "last_login_ip"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*username,\s*password_hash,\s*first_name,\s*last_name,\s*is_active,\s*is_staff\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*RETURNING\s+id,\s*created_at\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(insertQ).
		WithArgs("ann@example.com", "Ann", "hash", "Ann", "Lee", true, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", created))

	u := &models.User{Email: "Ann@Example.COM", Username: "Ann", PasswordHash: "hash", FirstName: "Ann", LastName: "Lee", IsActive: true}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || got.Email != "ann@example.com" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_UniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{"users_email_lower_key", ErrEmailTaken},
		{"users_username_lower_key", ErrUsernameTaken},
		{"something_else", common.ErrorAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(insertQ).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			_, err := repo.Create(context.Background(), &models.User{Email: "a@b.c", Username: "a"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
			if !errors.Is(err, common.ErrorAlreadyExists) {
				t.Fatalf("want ErrorAlreadyExists classification, got %v", err)
			}
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.c", Username: "a"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)\s*$`

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	login := created.Add(time.Hour)
	mock.ExpectQuery(q).
		WithArgs("ANN@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "ann@example.com", "ann", "h", "Ann", "Lee", true, false, created, login, "10.0.0.1"))

	got, err := repo.GetByEmail(context.Background(), "ANN@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}

	want := &models.User{
		ID: "u-1", Email: "ann@example.com", Username: "ann", PasswordHash: "h",
		FirstName: "Ann", LastName: "Lee", IsActive: true, CreatedAt: created,
		LastLoginAt: &login, LastLoginIP: "10.0.0.1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestGetByUsername_NullLastLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+lower\(username\)\s*=\s*lower\(\$1\)\s*$`

	mock.ExpectQuery(q).
		WithArgs("Ann").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "ann@example.com", "ann", "h", "", "", true, false, time.Now(), nil, ""))

	got, err := repo.GetByUsername(context.Background(), "Ann")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if got.LastLoginAt != nil {
		t.Fatalf("expected nil last login, got %v", got.LastLoginAt)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs("u").WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), "u")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+users\s+WHERE\s+lower\(email\)`).
		WithArgs("a@b.c", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+users\s+WHERE\s+lower\(username\)`).
		WithArgs("ann", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.ExistsEmail(context.Background(), "a@b.c", "")
	if err != nil || !ok {
		t.Fatalf("ExistsEmail = %v, %v", ok, err)
	}
	ok, err = repo.ExistsUsername(context.Background(), "ann", "u-1")
	if err != nil || ok {
		t.Fatalf("ExistsUsername = %v, %v", ok, err)
	}
}

func TestUpdateLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	q := `(?s)^UPDATE\s+users\s+SET\s+last_login_at\s*=\s*\$2,\s*last_login_ip\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs("u-1", at, "1.2.3.4").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateLogin(context.Background(), "u-1", at, "1.2.3.4"); err != nil {
		t.Fatalf("UpdateLogin error: %v", err)
	}
}

func TestUpdatePassword_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs("ghost", "h").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdatePassword(context.Background(), "ghost", "h"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	q := `(?s)^UPDATE\s+users\s+SET\s+email\s*=\s*\$2,\s*username\s*=\s*\$3,\s*first_name\s*=\s*\$4,\s*last_name\s*=\s*\$5\s+WHERE\s+id\s*=\s*\$1\s*$`

	t.Run("ok lowercases email", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WithArgs("u-1", "new@example.com", "ann", "A", "L").WillReturnResult(sqlmock.NewResult(0, 1))

		u := &models.User{ID: "u-1", Email: "NEW@example.com", Username: "ann", FirstName: "A", LastName: "L"}
		if err := repo.UpdateProfile(context.Background(), u); err != nil {
			t.Fatalf("UpdateProfile error: %v", err)
		}
		if u.Email != "new@example.com" {
			t.Fatalf("email not normalized: %q", u.Email)
		}
	})

	t.Run("username conflict", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_lower_key"})

		err := repo.UpdateProfile(context.Background(), &models.User{ID: "u-1"})
		if !errors.Is(err, ErrUsernameTaken) {
			t.Fatalf("want ErrUsernameTaken, got %v", err)
		}
	})
}
