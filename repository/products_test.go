package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
)

func TestListActiveProducts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewProductRepository(db, "mysql")

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, name, slug, brand, price_cents, stock, description, images, is_active, created_at FROM products WHERE is_active = \? ORDER BY created_at DESC`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("p2", "Estetoscopio", "estetoscopio", "Dafa Medic", int64(32000), 15, "desc", `["https://example.com/e.jpg"]`, true, created).
			AddRow("p1", "Oxímetro", "oximetro", "Riester", int64(18000), 25, "desc", ``, true, created.Add(-time.Hour)))

	products, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p2", products[0].ID)
	assert.Equal(t, []string{"https://example.com/e.jpg"}, products[0].Images)
	assert.Equal(t, "https://example.com/e.jpg", products[0].ImageURL())
	assert.Equal(t, []string{}, products[1].Images)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindProductNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewProductRepository(db, "postgres")

	mock.ExpectQuery(`FROM products WHERE id = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedSkipsExistingSlugs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewProductRepository(db, "mysql")

	mock.ExpectQuery(`SELECT id FROM products WHERE slug = \?`).WithArgs("oximetro").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))
	mock.ExpectQuery(`SELECT id FROM products WHERE slug = \?`).WithArgs("glucometro").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO products`).WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.Seed(context.Background(), []models.Product{
		{Name: "Oxímetro", Slug: "oximetro", PriceCents: 18000, Stock: 25, IsActive: true},
		{Name: "Glucómetro", Slug: "glucometro", PriceCents: 4500, Stock: 40, IsActive: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpsertKeepsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepository(db, "mysql")

	mock.ExpectQuery(`FROM users WHERE email = \?`).WithArgs("admin@dafamedic.pe").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "password_hash", "role", "is_active", "created_at"}).
			AddRow("u1", "admin@dafamedic.pe", "Admin", "hash", "ADMIN", true, time.Now()))

	u, err := repo.Upsert(context.Background(), models.User{Email: "admin@dafamedic.pe", PasswordHash: "other"})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpsertInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepository(db, "mysql")

	mock.ExpectQuery(`FROM users WHERE email = \?`).WithArgs("new@dafamedic.pe").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := repo.Upsert(context.Background(), models.User{Email: "new@dafamedic.pe", Role: models.RoleUser, IsActive: true})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
