package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/server/services"
)

// bindJSON decodes the request body into v. An empty body is allowed when
// optional is set.
func bindJSON(c *gin.Context, v any, optional bool) bool {
	err := c.ShouldBindJSON(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	abortWithError(c, http.StatusBadRequest, msgInvalidBody)
	return false
}

// GET /auth/check-username?username=
func (s *Server) checkUsername(c *gin.Context) {
	ok, err := s.auth.UsernameAvailable(c.Request.Context(), c.Query("username"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, availabilityResponse{Available: ok})
}

// GET /auth/check-email?email=
func (s *Server) checkEmail(c *gin.Context) {
	ok, err := s.auth.EmailAvailable(c.Request.Context(), c.Query("email"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, availabilityResponse{Available: ok})
}

// POST /auth/register
func (s *Server) register(c *gin.Context) {
	var in services.RegisterInput
	if !bindJSON(c, &in, false) {
		return
	}

	// registration records the socket address, not the forwarded one
	client := services.ClientInfo{IP: c.RemoteIP(), UserAgent: c.GetHeader("User-Agent")}

	res, err := s.auth.Register(c.Request.Context(), in, client)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, registerResponse{
		Message: "User registered successfully",
		Access:  res.Tokens.Access,
		Refresh: res.Tokens.Refresh,
		User:    toProfile(res.User),
	})
}

// POST /auth/login
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}

	res, err := s.auth.Login(c.Request.Context(), identifier, req.Password, clientInfo(c))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Access:  res.Tokens.Access,
		Refresh: res.Tokens.Refresh,
		User:    toProfile(res.User),
	})
}

// POST /auth/refresh
func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req, true) {
		return
	}

	res, err := s.auth.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		var ve *common.ValidationError
		if errors.As(err, &ve) {
			abortWithError(c, http.StatusBadRequest, ve.Error())
			return
		}
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, refreshResponse{Access: res.Access, Refresh: res.Refresh})
}

// POST /auth/logout
func (s *Server) logout(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req, true) {
		return
	}

	if err := s.auth.Logout(c.Request.Context(), identity(c).UserID, req.Refresh); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}
