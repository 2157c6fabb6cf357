package controllers

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DanielTrujilloS/DafaMedicSistema/middlewares"
	"github.com/DanielTrujilloS/DafaMedicSistema/models"
	"github.com/DanielTrujilloS/DafaMedicSistema/repository"
	"github.com/DanielTrujilloS/DafaMedicSistema/services"
)

type OrderAdmin interface {
	ListRecentOrders(ctx context.Context, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}

type AdminController struct {
	orders OrderAdmin
}

func NewAdminController(orders OrderAdmin) *AdminController {
	return &AdminController{orders: orders}
}

var adminTemplates = template.Must(template.New("admin").Funcs(template.FuncMap{
	"money": func(cents int64) string { return models.FormatMoney(cents, models.DefaultCurrency) },
}).Parse(`{{define "admin_login"}}<!doctype html>
<html lang="es"><head><meta charset="utf-8"><title>Dafa Medic · Admin</title></head>
<body>
<h1>Ingreso administrativo</h1>
<form id="login">
  <input name="email" type="email" placeholder="Email" required>
  <input name="password" type="password" placeholder="Contraseña" minlength="6" required>
  <button type="submit">Ingresar</button>
</form>
<p id="msg"></p>
<script>
document.getElementById("login").addEventListener("submit", async (e) => {
  e.preventDefault();
  const f = new FormData(e.target);
  const res = await fetch("/api/auth/login", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({email: f.get("email"), password: f.get("password")}),
  });
  if (res.ok) { location.href = "/admin"; } else { document.getElementById("msg").textContent = "Credenciales inválidas"; }
});
</script>
</body></html>{{end}}
{{define "admin_dashboard"}}<!doctype html>
<html lang="es"><head><meta charset="utf-8"><title>Dafa Medic · Órdenes</title></head>
<body>
<h1>Órdenes recientes</h1>
<p>{{.Email}}</p>
<table>
<tr><th>ID</th><th>Cliente</th><th>Total</th><th>Estado</th><th>Fecha</th></tr>
{{range .Orders}}<tr><td>{{.ID}}</td><td>{{.Email}}</td><td>{{money .TotalCents}}</td><td>{{.Status}}</td><td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td></tr>
{{else}}<tr><td colspan="5">Sin órdenes</td></tr>{{end}}
</table>
</body></html>{{end}}`))

func (ac *AdminController) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "admin_login", nil)
}

// Dashboard runs behind the admin page guard.
func (ac *AdminController) Dashboard(c *gin.Context) {
	orders, err := ac.orders.ListRecentOrders(c.Request.Context(), 50)
	if err != nil {
		slog.Error("Failed to list orders", "err", err)
		c.String(http.StatusInternalServerError, "Error al cargar las órdenes")
		return
	}
	email := ""
	if p, ok := middlewares.SessionFrom(c); ok {
		email = p.Email
	}
	c.HTML(http.StatusOK, "admin_dashboard", gin.H{"Orders": orders, "Email": email})
}

func (ac *AdminController) ListOrders(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	orders, err := ac.orders.ListRecentOrders(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Failed to list orders", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al cargar las órdenes"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (ac *AdminController) UpdateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := ac.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	var validationErr *services.ValidationError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true, "status": req.Status})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Orden no encontrada"})
	default:
		slog.Error("Failed to update order status", "order_id", c.Param("id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al actualizar la orden"})
	}
}
