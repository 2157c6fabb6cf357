package database

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
	"github.com/DanielTrujilloS/DafaMedicSistema/repository"
)

// Runs against a real PostgreSQL downloaded by embedded-postgres; enable with
// STOREFRONT_PG_IT=1.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if os.Getenv("STOREFRONT_PG_IT") == "" {
		t.Skip("set STOREFRONT_PG_IT=1 to run PostgreSQL integration tests")
	}
	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Port(54329).
		Database("storefront").
		RuntimePath(t.TempDir()))
	require.NoError(t, pg.Start())
	t.Cleanup(func() { _ = pg.Stop() })

	db, err := InitDB(context.Background(), "postgres",
		"host=localhost port=54329 user=postgres password=postgres dbname=storefront sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func stockOf(t *testing.T, db *sql.DB, slug string) (string, int) {
	t.Helper()
	var (
		id    string
		stock int
	)
	require.NoError(t, db.QueryRow("SELECT id, stock FROM products WHERE slug = $1", slug).Scan(&id, &stock))
	return id, stock
}

func TestOrderTransactionPostgres(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db, "postgres")
	products := repository.NewProductRepository(db, "postgres")
	orders := repository.NewOrderRepository(db, "postgres")

	require.NoError(t, Seed(ctx, users, products, "admin@dafamedic.pe", "firstPassword123!"))
	// second run is a no-op
	require.NoError(t, Seed(ctx, users, products, "admin@dafamedic.pe", "firstPassword123!"))

	active, err := products.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, len(StarterProducts))

	oxiID, oxiStock := stockOf(t, db, "oximetro-pulso-profesional")
	newOrder := func(productID string, qty int) repository.NewOrder {
		return repository.NewOrder{
			Email: "c@example.com", FullName: "Ana", Phone: "999", Address: "Av. 1", City: "Lima", PostalCode: "15001",
			Lines: []repository.OrderLine{{ProductID: productID, Quantity: qty}},
		}
	}

	order, err := orders.Create(ctx, newOrder(oxiID, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(36000), order.TotalCents)
	_, after := stockOf(t, db, "oximetro-pulso-profesional")
	assert.Equal(t, oxiStock-2, after)

	stored, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingPayment, stored.Status)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, stored.TotalCents, stored.Items[0].SubtotalCents())

	_, err = orders.Create(ctx, newOrder(oxiID, after+1))
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	_, unchanged := stockOf(t, db, "oximetro-pulso-profesional")
	assert.Equal(t, after, unchanged)

	require.NoError(t, orders.UpdateStatus(ctx, order.ID, models.StatusPaid))
}

func TestConcurrentCheckoutDoesNotOversell(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()
	products := repository.NewProductRepository(db, "postgres")
	orders := repository.NewOrderRepository(db, "postgres")

	_, err := products.Seed(ctx, []models.Product{{Name: "Último tensiómetro", Slug: "ultimo", PriceCents: 9000, Stock: 1, IsActive: true}})
	require.NoError(t, err)
	id, _ := stockOf(t, db, "ultimo")

	const buyers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orders.Create(ctx, repository.NewOrder{
				Email: "c@example.com", FullName: "Ana", Phone: "999", Address: "Av. 1", City: "Lima", PostalCode: "15001",
				Lines: []repository.OrderLine{{ProductID: id, Quantity: 1}},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	_, stock := stockOf(t, db, "ultimo")
	assert.Equal(t, 0, stock)
}
