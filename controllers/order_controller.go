package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DanielTrujilloS/DafaMedicSistema/middlewares"
	"github.com/DanielTrujilloS/DafaMedicSistema/models"
	"github.com/DanielTrujilloS/DafaMedicSistema/repository"
	"github.com/DanielTrujilloS/DafaMedicSistema/services"
)

type OrderService interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

type OrderController struct {
	orders OrderService
}

func NewOrderController(orders OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (oc *OrderController) GetProducts(c *gin.Context) {
	products, err := oc.orders.ListProducts(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list products", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al cargar el catálogo"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middlewares.RecordOrderOperation("create", false)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datos incompletos"})
		return
	}

	res, err := oc.orders.CreateOrder(c.Request.Context(), req)
	if err != nil {
		middlewares.RecordOrderOperation("create", false)

		var stockErr *repository.StockError
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &stockErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Stock insuficiente para " + stockErr.Product})
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Datos incompletos", "field": validationErr.Field})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Producto no encontrado"})
		case errors.Is(err, repository.ErrAmountOutOfRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Monto fuera de rango"})
		default:
			slog.Error("Failed to create order", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al crear la orden"})
		}
		return
	}

	middlewares.RecordOrderOperation("create", true)
	c.JSON(http.StatusCreated, res)
}

func (oc *OrderController) GetOrder(c *gin.Context) {
	order, err := oc.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Orden no encontrada"})
		return
	}
	if err != nil {
		slog.Error("Failed to get order", "order_id", c.Param("id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al cargar la orden"})
		return
	}

	c.JSON(http.StatusOK, models.OrderResponse{
		Order:        *order,
		TotalDisplay: models.FormatMoney(order.TotalCents, models.DefaultCurrency),
	})
}
