package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DanielTrujilloS/DafaMedicSistema/middlewares"
)

type Handlers struct {
	Orders *OrderController
	Auth   *AuthController
	Admin  *AdminController
	Cart   *CartController
	Guard  middlewares.AdminGuard
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.SetHTMLTemplate(adminTemplates)
	r.Use(middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/productos", h.Orders.GetProducts)
		api.POST("/ordenes", h.Orders.CreateOrder)
		api.GET("/ordenes/:id", h.Orders.GetOrder)

		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", middlewares.RequireSession(h.Guard.Verifier, h.Guard.Cookie), h.Auth.Me)

		api.GET("/carrito", h.Cart.GetCart)
		api.DELETE("/carrito", h.Cart.Clear)
		api.POST("/carrito/items", h.Cart.AddItem)
		api.PUT("/carrito/items/:productId", h.Cart.SetQuantity)
		api.POST("/carrito/items/:productId/increase", h.Cart.Increase)
		api.POST("/carrito/items/:productId/decrease", h.Cart.Decrease)
		api.DELETE("/carrito/items/:productId", h.Cart.RemoveItem)
	}

	adminAPI := r.Group("/api/admin", h.Guard.API())
	{
		adminAPI.GET("/ordenes", h.Admin.ListOrders)
		adminAPI.PUT("/ordenes/:id/status", h.Admin.UpdateOrderStatus)
	}

	admin := r.Group("/admin", h.Guard.Pages())
	{
		admin.GET("", h.Admin.Dashboard)
		admin.GET("/login", h.Admin.LoginPage)
	}
}
