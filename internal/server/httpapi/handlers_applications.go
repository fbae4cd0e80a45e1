package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/placementtracker/internal/server/services"
)

func (s *Server) listApplications(c *gin.Context) {
	list, err := s.apps.List(c.Request.Context(), identity(c).UserID, c.Query("status"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toApplications(list))
}

func (s *Server) createApplication(c *gin.Context) {
	var in services.ApplicationInput
	if !bindJSON(c, &in, false) {
		return
	}
	app, err := s.apps.Create(c.Request.Context(), identity(c).UserID, in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toApplication(app))
}

func (s *Server) getApplication(c *gin.Context) {
	app, err := s.apps.Get(c.Request.Context(), identity(c).UserID, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toApplication(app))
}

func (s *Server) putApplication(c *gin.Context) {
	var in services.ApplicationInput
	if !bindJSON(c, &in, false) {
		return
	}
	s.updateApplication(c, in)
}

func (s *Server) patchApplication(c *gin.Context) {
	var p applicationPatch
	if !bindJSON(c, &p, false) {
		return
	}
	cur, err := s.apps.Get(c.Request.Context(), identity(c).UserID, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.updateApplication(c, p.apply(cur))
}

func (s *Server) updateApplication(c *gin.Context, in services.ApplicationInput) {
	app, err := s.apps.Update(c.Request.Context(), identity(c).UserID, c.Param("id"), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toApplication(app))
}

func (s *Server) deleteApplication(c *gin.Context) {
	if err := s.apps.Delete(c.Request.Context(), identity(c).UserID, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /dashboard/stats
func (s *Server) dashboardStats(c *gin.Context) {
	d, err := s.apps.Stats(c.Request.Context(), identity(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDashboard(d))
}
