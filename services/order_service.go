package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/DanielTrujilloS/DafaMedicSistema/events"
	"github.com/DanielTrujilloS/DafaMedicSistema/models"
	"github.com/DanielTrujilloS/DafaMedicSistema/repository"
)

var ErrInvalidOrder = errors.New("invalid order")

// ValidationError describes the first invalid field of an order request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidOrder }

type OrderService struct {
	orders           repository.OrderRepository
	products         repository.ProductRepository
	publisher        events.Publisher
	trustClientPrice bool
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, publisher events.Publisher, trustClientPrice bool) *OrderService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &OrderService{
		orders:           orders,
		products:         products,
		publisher:        publisher,
		trustClientPrice: trustClientPrice,
	}
}

func (s *OrderService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.products.ListActive(ctx)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *OrderService) ListRecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	return s.orders.ListRecent(ctx, limit)
}

// CreateOrder validates the request and commits the order. Shipping is free.
func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	in, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	slog.Info("Placing order", "email", in.Email, "items", len(in.Lines))
	order, err := s.orders.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	if req.TotalCents != 0 && req.TotalCents != order.TotalCents {
		slog.Warn("Client total differs from stored total",
			"order_id", order.ID, "client_total", req.TotalCents, "total", order.TotalCents)
	}
	slog.Info("Order created", "order_id", order.ID, "total_cents", order.TotalCents)

	s.publish(ctx, order, models.EventOrderCreated)

	return &models.CreateOrderResponse{
		OrderID:    order.ID,
		Email:      order.Email,
		TotalCents: order.TotalCents,
		Status:     order.Status,
	}, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	if !status.Valid() {
		return &ValidationError{Field: "status", Reason: "is not a known order status"}
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	slog.Info("Order status updated", "order_id", id, "status", status)

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		slog.Error("Failed to reload order for status event", "order_id", id, "err", err)
		return nil
	}
	s.publish(ctx, order, models.EventOrderStatusUpdated)
	return nil
}

// publish runs after commit; a broker failure never undoes the order.
func (s *OrderService) publish(ctx context.Context, order *models.Order, eventType string) {
	evt := models.OrderEvent{
		OrderID:    order.ID,
		Type:       eventType,
		Status:     order.Status,
		Email:      order.Email,
		TotalCents: order.TotalCents,
		Occurred:   time.Now().UTC(),
	}
	if err := s.publisher.PublishOrderEvent(ctx, evt); err != nil {
		slog.Error("Failed to publish order event", "order_id", order.ID, "type", eventType, "err", err)
	}
}

func (s *OrderService) validate(req models.CreateOrderRequest) (repository.NewOrder, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"userEmail", req.UserEmail},
		{"userFullName", req.UserFullName},
		{"userPhone", req.UserPhone},
		{"shippingAddress", req.ShippingAddress},
		{"shippingCity", req.ShippingCity},
		{"shippingPostalCode", req.ShippingPostalCode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return repository.NewOrder{}, &ValidationError{Field: f.name, Reason: "is required"}
		}
	}
	email := strings.TrimSpace(req.UserEmail)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return repository.NewOrder{}, &ValidationError{Field: "userEmail", Reason: "is not a valid email"}
	}
	if len(req.Items) == 0 {
		return repository.NewOrder{}, &ValidationError{Field: "items", Reason: "must not be empty"}
	}

	lines := make([]repository.OrderLine, 0, len(req.Items))
	for i, it := range req.Items {
		switch {
		case strings.TrimSpace(it.ProductID) == "":
			return repository.NewOrder{}, &ValidationError{Field: fmt.Sprintf("items[%d].productId", i), Reason: "is required"}
		case it.Quantity <= 0:
			return repository.NewOrder{}, &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be positive"}
		case it.PriceCents < 0:
			return repository.NewOrder{}, &ValidationError{Field: fmt.Sprintf("items[%d].priceCents", i), Reason: "must not be negative"}
		case it.PriceCents > models.MaxUnitCents:
			return repository.NewOrder{}, &ValidationError{Field: fmt.Sprintf("items[%d].priceCents", i), Reason: "is out of range"}
		}
		lines = append(lines, repository.OrderLine{
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			ClientPriceCents: it.PriceCents,
		})
	}

	return repository.NewOrder{
		Email:            email,
		FullName:         strings.TrimSpace(req.UserFullName),
		Phone:            strings.TrimSpace(req.UserPhone),
		Address:          strings.TrimSpace(req.ShippingAddress),
		City:             strings.TrimSpace(req.ShippingCity),
		PostalCode:       strings.TrimSpace(req.ShippingPostalCode),
		ShippingCents:    0,
		Lines:            lines,
		TrustClientPrice: s.trustClientPrice,
	}, nil
}
