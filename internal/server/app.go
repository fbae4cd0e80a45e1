// Package server wires configuration, storage, services and the HTTP API
// together and runs the tracker until it receives a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/placementtracker/internal/dbx"
	"github.com/dmitrijs2005/placementtracker/internal/logging"
	"github.com/dmitrijs2005/placementtracker/internal/server/auth"
	"github.com/dmitrijs2005/placementtracker/internal/server/config"
	"github.com/dmitrijs2005/placementtracker/internal/server/httpapi"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/memory"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/placementtracker/internal/server/services"
)

// Storage is an opened backend: the transaction runner plus the repositories
// bound to it.
type Storage struct {
	DB    dbx.DB
	Repos repomanager.RepositoryManager
	sqlDB *sql.DB
}

// OpenStorage connects to the configured backend. For postgres the schema
// is migrated before returning.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg.Storage == config.StorageMemory {
		m := memory.New()
		return &Storage{DB: m, Repos: m}, nil
	}

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return &Storage{DB: dbx.NewSQL(db), Repos: rm, sqlDB: db}, nil
}

func (s *Storage) Close() error {
	if s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// NewAuthService builds the auth service and its token issuer from cfg.
func NewAuthService(cfg *config.Config, st *Storage, l logging.Logger) (*services.AuthService, *auth.TokenIssuer) {
	issuer := auth.NewTokenIssuer(
		[]byte(cfg.SecretKey),
		cfg.Issuer,
		cfg.AccessTokenValidityDuration,
		cfg.RefreshTokenValidityDuration,
	)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	return services.NewAuthService(st.DB, st.Repos, issuer, hasher, cfg.RotateRefreshTokens, l), issuer
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	storage *Storage
	http    *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.Env, os.Stdout)

	if c.Env == logging.EnvLocal {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := OpenStorage(ctx, c)
	if err != nil {
		return nil, err
	}
	if c.Storage == config.StorageMemory {
		logger.Warn(ctx, "using in-memory storage, data is lost on exit")
	}

	as, issuer := NewAuthService(c, st, logger)
	aps := services.NewApplicationService(st.DB, st.Repos, logger)

	srv := httpapi.NewServer(c.EndpointAddrHTTP, httpapi.Timeouts{
		Read:  c.ReadTimeout,
		Write: c.WriteTimeout,
		Idle:  c.IdleTimeout,
	}, logger, as, aps, issuer)

	return &App{config: c, logger: logger, storage: st, http: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage, "rotate_refresh_tokens", app.config.RotateRefreshTokens)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.storage.Close(); err != nil {
		app.logger.Error(context.Background(), "error closing storage", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
