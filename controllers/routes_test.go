package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielTrujilloS/DafaMedicSistema/cart"
	"github.com/DanielTrujilloS/DafaMedicSistema/middlewares"
	"github.com/DanielTrujilloS/DafaMedicSistema/models"
	"github.com/DanielTrujilloS/DafaMedicSistema/utils"
)

func fullRouter(t *testing.T) (*gin.Engine, *utils.SessionIssuer, *fakeOrders) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	issuer, err := utils.NewSessionIssuer("test-secret", 7*24*time.Hour)
	require.NoError(t, err)

	orders := &fakeOrders{orders: map[string]*models.Order{
		"ord-1": {ID: "ord-1", Email: "ana@correo.pe", TotalCents: 36000, Status: models.StatusPendingPayment},
	}}
	auth := &fakeAuth{issuer: issuer, password: "secreto123", role: models.RoleAdmin}

	r := gin.New()
	RegisterRoutes(r, Handlers{
		Orders: NewOrderController(orders),
		Auth:   NewAuthController(auth, CookieOptions{Name: "session", MaxAge: 604800}),
		Admin:  NewAdminController(orders),
		Cart:   NewCartController(cart.NewMemoryStorage(), testCatalog, CookieOptions{Name: "cart_id", MaxAge: 3600}),
		Guard: middlewares.AdminGuard{
			Verifier:  issuer,
			Cookie:    "session",
			LoginPath: "/admin/login",
			HomePath:  "/",
		},
	})
	return r, issuer, orders
}

func sessionCookie(t *testing.T, issuer *utils.SessionIssuer, role models.Role) *http.Cookie {
	t.Helper()
	tok, err := issuer.Sign(utils.SessionPayload{Sub: "u-1", Email: "admin@dafa.pe", Role: role})
	require.NoError(t, err)
	return &http.Cookie{Name: "session", Value: tok}
}

func TestRoutes_Health(t *testing.T) {
	r, _, _ := fullRouter(t)
	w := doJSON(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_AdminPages(t *testing.T) {
	r, issuer, _ := fullRouter(t)

	w := doJSON(r, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))

	w = doJSON(r, http.MethodGet, "/admin/login", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ingreso administrativo")

	w = doJSON(r, http.MethodGet, "/admin", nil, sessionCookie(t, issuer, models.RoleUser))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = doJSON(r, http.MethodGet, "/admin", nil, sessionCookie(t, issuer, models.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ord-1")
	assert.Contains(t, w.Body.String(), "S/ 360.00")
}

func TestRoutes_AdminAPI(t *testing.T) {
	r, issuer, orders := fullRouter(t)

	w := doJSON(r, http.MethodGet, "/api/admin/ordenes", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/admin/ordenes", nil, sessionCookie(t, issuer, models.RoleUser))
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := sessionCookie(t, issuer, models.RoleAdmin)
	w = doJSON(r, http.MethodGet, "/api/admin/ordenes", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPut, "/api/admin/ordenes/ord-1/status", gin.H{"status": "PAID"}, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusPaid, orders.orders["ord-1"].Status)

	w = doJSON(r, http.MethodPut, "/api/admin/ordenes/ord-1/status", gin.H{"status": "LOST"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPut, "/api/admin/ordenes/missing/status", gin.H{"status": "PAID"}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/admin/ordenes?limit=abc", nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
