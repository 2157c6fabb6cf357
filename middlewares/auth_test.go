package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
	"github.com/DanielTrujilloS/DafaMedicSistema/utils"
)

func newGuard(t *testing.T) (AdminGuard, *utils.SessionIssuer) {
	t.Helper()
	issuer, err := utils.NewSessionIssuer("test-secret", 7*24*time.Hour)
	require.NoError(t, err)
	return AdminGuard{
		Verifier:  issuer,
		Cookie:    "session",
		LoginPath: "/admin/login",
		HomePath:  "/",
	}, issuer
}

func sign(t *testing.T, issuer *utils.SessionIssuer, role models.Role) string {
	t.Helper()
	tok, err := issuer.Sign(utils.SessionPayload{Sub: "u-1", Email: "a@dafa.pe", Role: role})
	require.NoError(t, err)
	return tok
}

func TestGuard(t *testing.T) {
	g, issuer := newGuard(t)

	tests := []struct {
		name     string
		token    string
		allow    bool
		redirect string
	}{
		{"no token", "", false, "/admin/login"},
		{"garbage token", "not-a-jwt", false, "/admin/login"},
		{"user role", sign(t, issuer, models.RoleUser), false, "/"},
		{"admin role", sign(t, issuer, models.RoleAdmin), true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Guard(tt.token)
			assert.Equal(t, tt.allow, d.Allow)
			assert.Equal(t, tt.redirect, d.Redirect)
		})
	}
}

func TestProtects(t *testing.T) {
	g, _ := newGuard(t)
	assert.True(t, g.Protects("/admin"))
	assert.True(t, g.Protects("/admin/ordenes"))
	assert.False(t, g.Protects("/admin/login"))
	assert.False(t, g.Protects("/administrator"))
	assert.False(t, g.Protects("/"))
}

func pageRouter(g AdminGuard) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(g.Pages())
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/admin", ok)
	r.GET("/admin/login", ok)
	return r
}

func TestPages_RedirectsAnonymousToLogin(t *testing.T) {
	g, _ := newGuard(t)
	w := httptest.NewRecorder()
	pageRouter(g).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))
}

func TestPages_LoginPageIsOpen(t *testing.T) {
	g, _ := newGuard(t)
	w := httptest.NewRecorder()
	pageRouter(g).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/login", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPages_NonAdminGoesHome(t *testing.T) {
	g, issuer := newGuard(t)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: sign(t, issuer, models.RoleUser)})
	w := httptest.NewRecorder()
	pageRouter(g).ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestAPI_StatusCodes(t *testing.T) {
	g, issuer := newGuard(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/admin/ordenes", g.API(), func(c *gin.Context) {
		p, ok := SessionFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, p.Email)
	})

	cases := map[string]int{
		"":                                http.StatusUnauthorized,
		sign(t, issuer, models.RoleUser):  http.StatusForbidden,
		sign(t, issuer, models.RoleAdmin): http.StatusOK,
	}
	for token, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/ordenes", nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: "session", Value: token})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}
