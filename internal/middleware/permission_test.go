package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dumeirei/smart-booking-backend/internal/models"
)

func doRoleRequest(t *testing.T, role string, mw gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/test", func(c *gin.Context) {
		if role != "" {
			c.Set(ContextKeyRole, role)
		}
		c.Next()
	}, mw, func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRequireRoles_Allowed(t *testing.T) {
	w := doRoleRequest(t, models.AdminRoleFinance, RequireFinance())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoles_PlatformBypass(t *testing.T) {
	w := doRoleRequest(t, models.AdminRolePlatform, RequireFinance())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoles_Forbidden(t *testing.T) {
	w := doRoleRequest(t, models.AdminRoleManager, RequireFinance())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoles_NotLoggedIn(t *testing.T) {
	w := doRoleRequest(t, "", RequireManager())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
