package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
)

var productColumns = []string{"id", "name", "slug", "brand", "price_cents", "stock", "description", "images", "is_active", "created_at"}

type productRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewProductRepository(db *sql.DB, driver string) ProductRepository {
	return &productRepository{db: db, sb: StatementBuilder(driver)}
}

func (r *productRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	rows, err := r.sb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"is_active": true}).
		OrderBy("created_at DESC").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	row := r.sb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": id}).
		RunWith(r.db).
		QueryRowContext(ctx)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *productRepository) Seed(ctx context.Context, products []models.Product) (int, error) {
	inserted := 0
	for _, p := range products {
		var id string
		err := r.sb.Select("id").From("products").Where(sq.Eq{"slug": p.Slug}).
			RunWith(r.db).QueryRowContext(ctx).Scan(&id)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return inserted, fmt.Errorf("failed to look up product %s: %w", p.Slug, err)
		}

		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		images, err := json.Marshal(nonNil(p.Images))
		if err != nil {
			return inserted, err
		}
		_, err = r.sb.Insert("products").
			SetMap(map[string]interface{}{
				"id":          p.ID,
				"name":        p.Name,
				"slug":        p.Slug,
				"brand":       p.Brand,
				"price_cents": p.PriceCents,
				"stock":       p.Stock,
				"description": p.Description,
				"images":      string(images),
				"is_active":   p.IsActive,
				"created_at":  p.CreatedAt,
			}).
			RunWith(r.db).
			ExecContext(ctx)
		if err != nil {
			return inserted, fmt.Errorf("failed to seed product %s: %w", p.Slug, err)
		}
		inserted++
	}
	return inserted, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s scanner) (*models.Product, error) {
	var (
		p      models.Product
		images string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Slug, &p.Brand, &p.PriceCents, &p.Stock, &p.Description, &images, &p.IsActive, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	p.Images = []string{}
	if images != "" {
		if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
			return nil, fmt.Errorf("failed to decode images of product %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
