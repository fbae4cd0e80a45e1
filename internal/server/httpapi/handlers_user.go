package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/server/services"
)

func (s *Server) getProfile(c *gin.Context) {
	u, err := s.auth.Profile(c.Request.Context(), identity(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfile(u))
}

func (s *Server) putProfile(c *gin.Context) {
	var in services.ProfileInput
	if !bindJSON(c, &in, false) {
		return
	}
	s.updateProfile(c, in)
}

func (s *Server) patchProfile(c *gin.Context) {
	var p profilePatch
	if !bindJSON(c, &p, false) {
		return
	}
	u, err := s.auth.Profile(c.Request.Context(), identity(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.updateProfile(c, p.apply(u))
}

func (s *Server) updateProfile(c *gin.Context, in services.ProfileInput) {
	u, err := s.auth.UpdateProfile(c.Request.Context(), identity(c).UserID, in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfile(u))
}

// POST /user/change-password
func (s *Server) changePassword(c *gin.Context) {
	var in services.ChangePasswordInput
	if !bindJSON(c, &in, false) {
		return
	}
	if err := s.auth.ChangePassword(c.Request.Context(), identity(c).UserID, in); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Password changed successfully"})
}

// GET /user/tokens
func (s *Server) listTokens(c *gin.Context) {
	list, err := s.auth.ListSessions(c.Request.Context(), identity(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessions(list))
}

// POST /user/tokens/:id/revoke
func (s *Server) revokeToken(c *gin.Context) {
	err := s.auth.RevokeSession(c.Request.Context(), identity(c).UserID, c.Param("id"))
	if errors.Is(err, common.ErrorNotFound) {
		abortWithError(c, http.StatusNotFound, "Token not found")
		return
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Token revoked successfully"})
}
