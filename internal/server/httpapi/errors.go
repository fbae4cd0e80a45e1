package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/placementtracker/internal/common"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgTokenExpired       = "Token has expired"
	msgInvalidRefresh     = "Invalid refresh token"
	msgNotFound           = "Not found."
	msgInvalidBody        = "Invalid request body"
	msgInternal           = "Internal server error"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// writeError maps service errors to HTTP responses. Anything unrecognised is
// logged and reported as a 500 without detail.
func (s *Server) writeError(c *gin.Context, err error) {
	var ve *common.ValidationError

	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: ve.Error(), Fields: ve.Fields})
	case errors.Is(err, common.ErrorUnauthorized):
		abortWithError(c, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, common.ErrTokenExpired):
		abortWithError(c, http.StatusUnauthorized, msgTokenExpired)
	case errors.Is(err, common.ErrInvalidToken):
		abortWithError(c, http.StatusUnauthorized, msgInvalidRefresh)
	case errors.Is(err, common.ErrorNotFound):
		abortWithError(c, http.StatusNotFound, msgNotFound)
	default:
		s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
		abortWithError(c, http.StatusInternalServerError, msgInternal)
	}
}
