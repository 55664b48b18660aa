package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsRouter(allowlist []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(allowlist))
	r.POST("/api/v1/import", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestCORS_EmptyAllowlistSendsNoHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp := httptest.NewRecorder()
	corsRouter(nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowlistedOrigin(t *testing.T) {
	r := corsRouter([]string{"https://page.example/"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/import", nil)
	req.Header.Set("Origin", "https://page.example")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, "https://page.example", resp.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodPost, "/api/v1/import", nil)
	req.Header.Set("Origin", "https://other.example")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}
