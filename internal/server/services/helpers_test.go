package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/placementtracker/internal/dbx"
	"github.com/dmitrijs2005/placementtracker/internal/logging"
	"github.com/dmitrijs2005/placementtracker/internal/server/auth"
	"github.com/dmitrijs2005/placementtracker/internal/server/models"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/applications"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/memory"
	refreshtokensrepo "github.com/dmitrijs2005/placementtracker/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/placementtracker/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

var client = ClientInfo{IP: "10.0.0.1", UserAgent: "go-test"}

func newIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer([]byte("test-secret"), "tracker-test", 15*time.Minute, 24*time.Hour)
}

type env struct {
	store  *memory.Store
	auth   *AuthService
	apps   *ApplicationService
	issuer *auth.TokenIssuer
}

func newEnv(t *testing.T, rotate bool) *env {
	t.Helper()
	store := memory.New()
	issuer := newIssuer()
	return &env{
		store:  store,
		auth:   NewAuthService(store, store, issuer, auth.NewBcryptHasher(bcrypt.MinCost), rotate, logging.Nop{}),
		apps:   NewApplicationService(store, store, logging.Nop{}),
		issuer: issuer,
	}
}

func (e *env) register(t *testing.T, email, username string) *AuthResult {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Email: email, Username: username, Password: "S3cure!pass", PasswordConfirm: "S3cure!pass",
	}, client)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return res
}

// failingTokens wraps a RepositoryManager and makes refresh-token writes fail.
type failingTokens struct {
	repomanager.RepositoryManager
}

func (f failingTokens) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository {
	return &fakeRefreshRepo{createErr: errBoom{}}
}

// --- fakes for sqlmock-driven transaction tests ---

type fakeUsersRepo struct {
	usersrepo.Repository

	createOut *models.User
	createErr error

	updatePasswordErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = "u1"
	return u, nil
}

func (f *fakeUsersRepo) ExistsEmail(context.Context, string, string) (bool, error)    { return false, nil }
func (f *fakeUsersRepo) ExistsUsername(context.Context, string, string) (bool, error) { return false, nil }

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.createOut == nil {
		return nil, errBoom{}
	}
	return f.createOut, nil
}

func (f *fakeUsersRepo) UpdatePassword(context.Context, string, string) error {
	return f.updatePasswordErr
}

type fakeRefreshRepo struct {
	refreshtokensrepo.Repository

	createErr    error
	revokeAllErr error
	created      []*models.RefreshToken
}

func (f *fakeRefreshRepo) Create(ctx context.Context, t *models.RefreshToken) (*models.RefreshToken, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, t)
	t.ID = "rt1"
	return t, nil
}

func (f *fakeRefreshRepo) RevokeAllForUser(context.Context, string) (int64, error) {
	return 1, f.revokeAllErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Applications(db dbx.DBTX) applications.Repository       { return nil }
