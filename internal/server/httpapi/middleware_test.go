package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/placementtracker/internal/common"
	"github.com/dmitrijs2005/placementtracker/internal/logging"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name string
		xff  string
		want string
	}{
		{"socket address", "", "192.0.2.1"},
		{"single hop", "198.51.100.2", "198.51.100.2"},
		{"first of many", " 198.51.100.2 , 10.0.0.1", "198.51.100.2"},
		{"blank first hop", " , 10.0.0.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = "192.0.2.1:1234"
			if tt.xff != "" {
				c.Request.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientIP(c); got != tt.want {
				t.Fatalf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	s := &Server{logger: logging.Nop{}}

	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", common.NewFieldError("email", "bad"), http.StatusBadRequest, "bad"},
		{"wrapped validation", fmt.Errorf("x: %w", common.NewValidationError("nope")), http.StatusBadRequest, "nope"},
		{"unauthorized", common.ErrorUnauthorized, http.StatusUnauthorized, msgInvalidCredentials},
		{"expired", common.ErrTokenExpired, http.StatusUnauthorized, msgTokenExpired},
		{"invalid token", common.ErrInvalidToken, http.StatusUnauthorized, msgInvalidRefresh},
		{"not found", fmt.Errorf("load: %w", common.ErrorNotFound), http.StatusNotFound, msgNotFound},
		{"internal", errors.New("db down"), http.StatusInternalServerError, msgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			s.writeError(c, tt.err)

			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.msg)
			assert.NotContains(t, rec.Body.String(), "db down")
		})
	}
}
