package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/server/auth"
	"github.com/dmitrijs2005/placementtracker/internal/server/services"
)

const (
	msgNoCredentials = "Authentication credentials were not provided."
	msgInvalidToken  = "Given token not valid for any token type"
)

// requireAuth accepts a bearer access token and stores the caller's identity
// on the request context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if header == "" {
			abortWithError(c, http.StatusUnauthorized, msgNoCredentials)
			return
		}
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			abortWithError(c, http.StatusUnauthorized, msgNoCredentials)
			return
		}

		claims, err := s.issuer.ParseAccess(strings.TrimSpace(token))
		if err != nil {
			msg := msgInvalidToken
			if errors.Is(err, common.ErrTokenExpired) {
				msg = msgTokenExpired
			}
			abortWithError(c, http.StatusUnauthorized, msg)
			return
		}

		id := auth.IdentityFromClaims(claims)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// requestLogger writes one line per request once the handler chain is done.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", clientIP(c),
		}
		if id, ok := auth.IdentityFromContext(c.Request.Context()); ok {
			args = append(args, "user_id", id.UserID)
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			s.logger.Error(c.Request.Context(), "request", args...)
		case c.Writer.Status() >= http.StatusBadRequest:
			s.logger.Warn(c.Request.Context(), "request", args...)
		default:
			s.logger.Info(c.Request.Context(), "request", args...)
		}
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		s.logger.Error(c.Request.Context(), "panic recovered", "panic", rec, "path", c.Request.URL.Path)
		abortWithError(c, http.StatusInternalServerError, msgInternal)
	})
}

// identity returns the caller set by requireAuth.
func identity(c *gin.Context) auth.Identity {
	id, _ := auth.IdentityFromContext(c.Request.Context())
	return id
}

// clientIP prefers the first X-Forwarded-For hop over the socket address.
func clientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.RemoteIP()
}

func clientInfo(c *gin.Context) services.ClientInfo {
	return services.ClientInfo{IP: clientIP(c), UserAgent: c.GetHeader("User-Agent")}
}
