package models

import (
	"time"
)

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	StatusPaid           OrderStatus = "PAID"
	StatusPreparing      OrderStatus = "PREPARING"
	StatusShipped        OrderStatus = "SHIPPED"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCanceled       OrderStatus = "CANCELED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusPaid, StatusPreparing, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

type Order struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	FullName      string      `json:"fullName"`
	Phone         string      `json:"phone"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	PostalCode    string      `json:"postalCode"`
	SubtotalCents int64       `json:"subtotalCents"`
	ShippingCents int64       `json:"shippingCents"`
	TotalCents    int64       `json:"totalCents"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	Items         []OrderItem `json:"items"`
}

// OrderItem is the snapshot of one purchased product, owned by its order.
type OrderItem struct {
	ID        int64  `json:"id"`
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitCents int64  `json:"unitCents"`
	Quantity  int    `json:"quantity"`
}

func (i OrderItem) SubtotalCents() int64 {
	return i.UnitCents * int64(i.Quantity)
}

type CreateOrderItem struct {
	ProductID  string `json:"productId" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	PriceCents int64  `json:"priceCents" binding:"gte=0,lte=100000000"`
}

type CreateOrderRequest struct {
	UserEmail          string            `json:"userEmail" binding:"required,email"`
	UserFullName       string            `json:"userFullName" binding:"required"`
	UserPhone          string            `json:"userPhone" binding:"required"`
	ShippingAddress    string            `json:"shippingAddress" binding:"required"`
	ShippingCity       string            `json:"shippingCity" binding:"required"`
	ShippingPostalCode string            `json:"shippingPostalCode" binding:"required"`
	Items              []CreateOrderItem `json:"items" binding:"required,min=1,dive"`
	TotalCents         int64             `json:"totalCents"`
}

type CreateOrderResponse struct {
	OrderID    string      `json:"orderId"`
	Email      string      `json:"email"`
	TotalCents int64       `json:"totalCents"`
	Status     OrderStatus `json:"status"`
}

type OrderResponse struct {
	Order
	TotalDisplay string `json:"totalDisplay"`
}

type OrderEvent struct {
	OrderID    string      `json:"order_id"`
	Type       string      `json:"type"` // created, status_updated
	Status     OrderStatus `json:"status"`
	Email      string      `json:"email"`
	TotalCents int64       `json:"total_cents"`
	Occurred   time.Time   `json:"occurred"`
}

const (
	EventOrderCreated       = "created"
	EventOrderStatusUpdated = "status_updated"
)
