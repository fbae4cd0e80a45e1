// Package httpapi exposes the tracker over HTTP/JSON using gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/placementtracker/internal/logging"
	"github.com/dmitrijs2005/placementtracker/internal/server/auth"
	"github.com/dmitrijs2005/placementtracker/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

// Timeouts configures the underlying http.Server.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

type Server struct {
	address  string
	timeouts Timeouts
	auth     *services.AuthService
	apps     *services.ApplicationService
	issuer   *auth.TokenIssuer
	logger   logging.Logger
}

func NewServer(address string, t Timeouts, l logging.Logger, as *services.AuthService, aps *services.ApplicationService, issuer *auth.TokenIssuer) *Server {
	return &Server{
		address:  address,
		timeouts: t,
		auth:     as,
		apps:     aps,
		issuer:   issuer,
		logger:   l.With("module", "http_server"),
	}
}

// Routes builds the gin engine with every endpoint registered.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(s.requestLogger(), s.recovery())

	r.GET("/health", s.health)

	a := r.Group("/auth")
	{
		a.GET("/check-username", s.checkUsername)
		a.GET("/check-email", s.checkEmail)
		a.POST("/register", s.register)
		a.POST("/login", s.login)
		a.POST("/refresh", s.refresh)
		a.POST("/logout", s.requireAuth(), s.logout)
	}

	u := r.Group("/user", s.requireAuth())
	{
		u.GET("/profile", s.getProfile)
		u.PUT("/profile", s.putProfile)
		u.PATCH("/profile", s.patchProfile)
		u.POST("/change-password", s.changePassword)
		u.GET("/tokens", s.listTokens)
		u.POST("/tokens/:id/revoke", s.revokeToken)
	}

	apps := r.Group("/applications", s.requireAuth())
	{
		apps.GET("", s.listApplications)
		apps.POST("", s.createApplication)
		apps.GET("/:id", s.getApplication)
		apps.PUT("/:id", s.putApplication)
		apps.PATCH("/:id", s.patchApplication)
		apps.DELETE("/:id", s.deleteApplication)
	}

	r.GET("/dashboard/stats", s.requireAuth(), s.dashboardStats)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.Routes(),
		ReadTimeout:  s.timeouts.Read,
		WriteTimeout: s.timeouts.Write,
		IdleTimeout:  s.timeouts.Idle,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
