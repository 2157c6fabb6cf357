package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrAmountOutOfRange reports an order whose line or total amount does
	// not fit in int64 cents.
	ErrAmountOutOfRange = errors.New("order amount out of range")
)

// StockError names the product whose stock could not cover an order line.
type StockError struct {
	ProductID string
	Product   string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Product)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

type ProductRepository interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	// Seed inserts products whose slug is not present yet.
	Seed(ctx context.Context, products []models.Product) (int, error)
}

// OrderLine is one requested line of a new order.
type OrderLine struct {
	ProductID        string
	Quantity         int
	ClientPriceCents int64
}

type NewOrder struct {
	Email         string
	FullName      string
	Phone         string
	Address       string
	City          string
	PostalCode    string
	ShippingCents int64
	Lines         []OrderLine
	// TrustClientPrice prices lines with ClientPriceCents instead of the
	// product row.
	TrustClientPrice bool
}

type OrderRepository interface {
	// Create validates stock and writes the order, its items and the stock
	// decrements in one transaction.
	Create(ctx context.Context, in NewOrder) (*models.Order, error)
	FindByID(ctx context.Context, id string) (*models.Order, error)
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// Upsert inserts the user when the email is unknown and leaves an
	// existing row untouched.
	Upsert(ctx context.Context, u models.User) (*models.User, error)
}

// StatementBuilder returns a squirrel builder using the placeholder style of
// the given database/sql driver.
func StatementBuilder(driver string) sq.StatementBuilderType {
	if driver == "postgres" {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}
