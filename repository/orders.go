package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
)

var orderColumns = []string{"id", "email", "full_name", "phone", "address", "city", "postal_code", "subtotal_cents", "shipping_cents", "total_cents", "status", "created_at", "updated_at"}

type orderRepository struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

func NewOrderRepository(db *sql.DB, driver string) OrderRepository {
	return &orderRepository{db: db, sb: StatementBuilder(driver), now: time.Now}
}

type lockedProduct struct {
	name       string
	priceCents int64
	stock      int
}

func (r *orderRepository) Create(ctx context.Context, in NewOrder) (*models.Order, error) {
	if len(in.Lines) == 0 {
		return nil, errors.New("order must have at least one item")
	}

	// Several lines may name the same product; stock is checked on the sum.
	requested := make(map[string]int, len(in.Lines))
	for _, l := range in.Lines {
		requested[l.ProductID] += l.Quantity
	}
	ids := make([]string, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Row locks keep concurrent checkouts from both passing the stock check.
	rows, err := r.sb.Select("id", "name", "price_cents", "stock").
		From("products").
		Where(sq.Eq{"id": ids}).
		OrderBy("id").
		Suffix("FOR UPDATE").
		RunWith(tx).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	products := make(map[string]lockedProduct, len(ids))
	for rows.Next() {
		var (
			id string
			p  lockedProduct
		)
		if err := rows.Scan(&id, &p.name, &p.priceCents, &p.stock); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[id] = p
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	rows.Close()

	now := r.now().UTC().Truncate(time.Microsecond)
	order := &models.Order{
		ID:            uuid.NewString(),
		Email:         in.Email,
		FullName:      in.FullName,
		Phone:         in.Phone,
		Address:       in.Address,
		City:          in.City,
		PostalCode:    in.PostalCode,
		ShippingCents: in.ShippingCents,
		Status:        models.StatusPendingPayment,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         make([]models.OrderItem, 0, len(in.Lines)),
	}

	for _, l := range in.Lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, &StockError{ProductID: l.ProductID, Product: "producto", Requested: requested[l.ProductID]}
		}
		if p.stock < requested[l.ProductID] {
			return nil, &StockError{ProductID: l.ProductID, Product: p.name, Available: p.stock, Requested: requested[l.ProductID]}
		}
		unit := p.priceCents
		if in.TrustClientPrice {
			unit = l.ClientPriceCents
		}
		item := models.OrderItem{
			OrderID:   order.ID,
			ProductID: l.ProductID,
			Name:      p.name,
			UnitCents: unit,
			Quantity:  l.Quantity,
		}
		lineCents, ok := models.MulCents(unit, l.Quantity)
		if !ok {
			return nil, fmt.Errorf("%w: line %s", ErrAmountOutOfRange, l.ProductID)
		}
		if order.SubtotalCents, ok = models.AddCents(order.SubtotalCents, lineCents); !ok {
			return nil, fmt.Errorf("%w: subtotal", ErrAmountOutOfRange)
		}
		order.Items = append(order.Items, item)
	}
	var ok bool
	if order.TotalCents, ok = models.AddCents(order.SubtotalCents, order.ShippingCents); !ok {
		return nil, fmt.Errorf("%w: total", ErrAmountOutOfRange)
	}

	_, err = r.sb.Insert("orders").
		Columns(orderColumns...).
		Values(order.ID, order.Email, order.FullName, order.Phone, order.Address, order.City, order.PostalCode,
			order.SubtotalCents, order.ShippingCents, order.TotalCents, string(order.Status), order.CreatedAt, order.UpdatedAt).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	insertItems := r.sb.Insert("order_items").Columns("order_id", "product_id", "name", "unit_cents", "quantity")
	for _, it := range order.Items {
		insertItems = insertItems.Values(it.OrderID, it.ProductID, it.Name, it.UnitCents, it.Quantity)
	}
	if _, err := insertItems.RunWith(tx).ExecContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert order items: %w", err)
	}

	for _, id := range ids {
		qty := requested[id]
		res, err := r.sb.Update("products").
			Set("stock", sq.Expr("stock - ?", qty)).
			Where(sq.And{sq.Eq{"id": id}, sq.GtOrEq{"stock": qty}}).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to update product stock: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n != 1 {
			p := products[id]
			return nil, &StockError{ProductID: id, Product: p.name, Available: p.stock, Requested: qty}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	row := r.sb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		RunWith(r.db).
		QueryRowContext(ctx)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = nonNilItems(items[o.ID])
	return o, nil
}

func (r *orderRepository) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.sb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = nonNilItems(items[orders[i].ID])
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res, err := r.sb.Update("orders").
		Set("status", string(status)).
		Set("updated_at", r.now().UTC().Truncate(time.Microsecond)).
		Where(sq.Eq{"id": id}).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) itemsFor(ctx context.Context, orderIDs []string) (map[string][]models.OrderItem, error) {
	rows, err := r.sb.Select("id", "order_id", "product_id", "name", "unit_cents", "quantity").
		From("order_items").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("id ASC").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]models.OrderItem, len(orderIDs))
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.UnitCents, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items[it.OrderID] = append(items[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order item rows: %w", err)
	}
	return items, nil
}

func scanOrder(s scanner) (*models.Order, error) {
	var (
		o      models.Order
		status string
	)
	err := s.Scan(&o.ID, &o.Email, &o.FullName, &o.Phone, &o.Address, &o.City, &o.PostalCode,
		&o.SubtotalCents, &o.ShippingCents, &o.TotalCents, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	o.Status = models.OrderStatus(status)
	return &o, nil
}

func nonNilItems(items []models.OrderItem) []models.OrderItem {
	if items == nil {
		return []models.OrderItem{}
	}
	return items
}
