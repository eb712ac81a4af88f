package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"order-management/internal/domain"
	"order-management/internal/repository"
	mysqlrepo "order-management/internal/repository/mysql"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db      *gorm.DB
	store   repository.Store
	alloc   *AllocationService
	orders  *OrderService
	catalog *CatalogService
}

// newTestEnv backs the services with an in-memory sqlite database. A single
// connection keeps every transaction on the same database handle.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Category{},
		&domain.Customer{},
		&domain.Product{},
		&domain.Order{},
		&domain.OrderItem{},
	))

	store := mysqlrepo.NewStore(db)
	return &testEnv{
		db:      db,
		store:   store,
		alloc:   NewAllocationService(store, nil),
		orders:  NewOrderService(store),
		catalog: NewCatalogService(store),
	}
}

func (e *testEnv) seedCatalog(t *testing.T, quantity int64, price string) (*domain.Product, *domain.Customer) {
	t.Helper()
	ctx := context.Background()

	category := &domain.Category{Name: "Electronics"}
	require.NoError(t, e.store.CreateCategory(ctx, category))

	customer := &domain.Customer{Name: "Ada Lovelace", Email: "ada@example.com", Address: "12 Analytical Way"}
	require.NoError(t, e.store.CreateCustomer(ctx, customer))

	product := &domain.Product{
		Name:       "Mechanical Keyboard",
		Quantity:   quantity,
		Price:      decimal.RequireFromString(price),
		Active:     true,
		CategoryID: category.ID,
	}
	require.NoError(t, e.store.CreateProduct(ctx, product))

	return product, customer
}

func (e *testEnv) newOrder(t *testing.T, customerID uint64) *domain.Order {
	t.Helper()
	order, err := e.orders.CreateOrder(context.Background(), customerID)
	require.NoError(t, err)
	return order
}

func (e *testEnv) productQuantity(t *testing.T, id uint64) int64 {
	t.Helper()
	product, err := e.store.FindProduct(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, product)
	return product.Quantity
}

func (e *testEnv) orderTotal(t *testing.T, id uint64) decimal.Decimal {
	t.Helper()
	order, err := e.store.FindOrder(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order.Total
}

func TestAddItem_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	product, customer := env.seedCatalog(t, 10, "100.00")
	order := env.newOrder(t, customer.ID)
	ctx := context.Background()

	res, err := env.alloc.AddItem(ctx, order.ID, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, res.Action)
	assert.Equal(t, int64(2), res.LineQuantity)
	assert.True(t, res.OrderTotal.Equal(decimal.RequireFromString("200.00")))
	assert.Equal(t, int64(8), env.productQuantity(t, product.ID))

	_, err = env.alloc.AddItem(ctx, order.ID, product.ID, 20)
	stockErr, ok := domain.IsInsufficientStock(err)
	require.True(t, ok)
	assert.Equal(t, int64(8), stockErr.Available)
	assert.Equal(t, int64(8), env.productQuantity(t, product.ID))
	assert.True(t, env.orderTotal(t, order.ID).Equal(decimal.RequireFromString("200.00")))

	res, err = env.alloc.AddItem(ctx, order.ID, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, res.Action)
	assert.Equal(t, int64(5), res.LineQuantity)
	assert.True(t, res.OrderTotal.Equal(decimal.RequireFromString("500.00")))
	assert.Equal(t, int64(5), env.productQuantity(t, product.ID))
}

func TestAddItem_MergesIntoSingleLine(t *testing.T) {
	env := newTestEnv(t)
	product, customer := env.seedCatalog(t, 10, "100.00")
	order := env.newOrder(t, customer.ID)
	ctx := context.Background()

	_, err := env.alloc.AddItem(ctx, order.ID, product.ID, 2)
	require.NoError(t, err)
	_, err = env.alloc.AddItem(ctx, order.ID, product.ID, 3)
	require.NoError(t, err)

	items, err := env.store.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(5), items[0].Quantity)
}

func TestAddItem_UnitPriceStableAcrossRepricing(t *testing.T) {
	env := newTestEnv(t)
	product, customer := env.seedCatalog(t, 10, "100.00")
	order := env.newOrder(t, customer.ID)
	ctx := context.Background()

	_, err := env.alloc.AddItem(ctx, order.ID, product.ID, 2)
	require.NoError(t, err)

	err = env.db.Model(&domain.Product{}).
		Where("id = ?", product.ID).
		Update("price", decimal.RequireFromString("150.00")).Error
	require.NoError(t, err)

	res, err := env.alloc.AddItem(ctx, order.ID, product.ID, 3)
	require.NoError(t, err)

	items, err := env.store.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("100.00")),
		"merge must not re-price the existing line, got %s", items[0].UnitPrice)
	assert.True(t, res.OrderTotal.Equal(decimal.RequireFromString("500.00")))
}

func TestAddItem_RejectionLeavesNoResidue(t *testing.T) {
	env := newTestEnv(t)
	product, customer := env.seedCatalog(t, 10, "100.00")
	order := env.newOrder(t, customer.ID)
	ctx := context.Background()

	_, err := env.alloc.AddItem(ctx, order.ID, product.ID, 20)
	_, ok := domain.IsInsufficientStock(err)
	require.True(t, ok)

	items, err := env.store.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int64(10), env.productQuantity(t, product.ID))
	assert.True(t, env.orderTotal(t, order.ID).Equal(decimal.Zero))
}

func TestAddItem_InactiveProduct(t *testing.T) {
	env := newTestEnv(t)
	product, customer := env.seedCatalog(t, 10, "100.00")
	order := env.newOrder(t, customer.ID)
	ctx := context.Background()

	require.NoError(t, env.db.Model(&domain.Product{}).
		Where("id = ?", product.ID).
		Update("active", false).Error)

	_, err := env.alloc.AddItem(ctx, order.ID, product.ID, 1)
	assert.ErrorIs(t, err, domain.ErrProductInactive)
	assert.Equal(t, int64(10), env.productQuantity(t, product.ID))
}

func TestAddItem_DeadlineExpiryIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	product, customer := env.seedCatalog(t, 10, "100.00")
	order := env.newOrder(t, customer.ID)

	env.alloc.SetTxTimeout(time.Nanosecond)

	_, err := env.alloc.AddItem(context.Background(), order.ID, product.ID, 1)
	assert.ErrorIs(t, err, domain.ErrAllocationTimeout)

	// the aborted attempt left nothing behind
	items, listErr := env.store.ListOrderItems(context.Background(), order.ID)
	require.NoError(t, listErr)
	assert.Empty(t, items)
	assert.Equal(t, int64(10), env.productQuantity(t, product.ID))
}

func TestRecompute_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	product, customer := env.seedCatalog(t, 10, "33.33")
	order := env.newOrder(t, customer.ID)
	ctx := context.Background()

	_, err := env.alloc.AddItem(ctx, order.ID, product.ID, 3)
	require.NoError(t, err)

	first, err := env.alloc.Recompute(ctx, order.ID)
	require.NoError(t, err)
	second, err := env.alloc.Recompute(ctx, order.ID)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.True(t, first.Equal(decimal.RequireFromString("99.99")))
}

// TestAddItem_NoOversell launches more concurrent allocations than there is
// stock. Exactly Q of the N unit requests may succeed and the final quantity
// must be zero, never negative.
func TestAddItem_NoOversell(t *testing.T) {
	const stock = 10
	const requests = 20

	env := newTestEnv(t)
	product, customer := env.seedCatalog(t, stock, "100.00")

	orderIDs := make([]uint64, requests)
	for i := range orderIDs {
		orderIDs[i] = env.newOrder(t, customer.ID).ID
	}

	var mu sync.Mutex
	succeeded := 0
	rejected := 0

	var g errgroup.Group
	for i := 0; i < requests; i++ {
		orderID := orderIDs[i]
		g.Go(func() error {
			_, err := env.alloc.AddItem(context.Background(), orderID, product.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return nil
			}
			if _, ok := domain.IsInsufficientStock(err); ok {
				rejected++
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, requests-stock, rejected)
	assert.Equal(t, int64(0), env.productQuantity(t, product.ID))
}

func TestOrderDetail_MatchesItems(t *testing.T) {
	env := newTestEnv(t)
	product, customer := env.seedCatalog(t, 10, "100.00")
	order := env.newOrder(t, customer.ID)
	ctx := context.Background()

	_, err := env.alloc.AddItem(ctx, order.ID, product.ID, 2)
	require.NoError(t, err)

	detail, err := env.orders.GetOrderDetail(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", detail.Customer.Name)
	assert.Equal(t, "ada@example.com", detail.Customer.Email)
	require.Len(t, detail.Order.Items, 1)

	item := detail.Order.Items[0]
	require.NotNil(t, item.Product)
	assert.Equal(t, "Mechanical Keyboard", item.Product.Name)
	assert.True(t, item.LineTotal().Equal(decimal.RequireFromString("200.00")))
	assert.True(t, detail.Order.Total.Equal(decimal.RequireFromString("200.00")))
}

func TestCategoryCycle_TreeUnchanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := &domain.Category{Name: "root"}
	require.NoError(t, env.catalog.CreateCategory(ctx, root))
	child := &domain.Category{Name: "child", ParentID: &root.ID}
	require.NoError(t, env.catalog.CreateCategory(ctx, child))
	grandchild := &domain.Category{Name: "grandchild", ParentID: &child.ID}
	require.NoError(t, env.catalog.CreateCategory(ctx, grandchild))

	err := env.catalog.SetCategoryParent(ctx, root.ID, &grandchild.ID)
	assert.ErrorIs(t, err, domain.ErrCyclicHierarchy)

	stored, findErr := env.store.FindCategory(ctx, root.ID)
	require.NoError(t, findErr)
	require.NotNil(t, stored)
	assert.Nil(t, stored.ParentID)
}

func TestStockReport_Filters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	category := &domain.Category{Name: "Shelf"}
	require.NoError(t, env.store.CreateCategory(ctx, category))

	for _, p := range []struct {
		name string
		qty  int64
	}{
		{"gone", 0},
		{"scarce", 5},
		{"edge", 10},
		{"plenty", 50},
	} {
		require.NoError(t, env.store.CreateProduct(ctx, &domain.Product{
			Name: p.name, Quantity: p.qty, Price: decimal.RequireFromString("1.00"),
			Active: true, CategoryID: category.ID,
		}))
	}

	low, err := env.catalog.StockReport(ctx, repository.StockLow)
	require.NoError(t, err)
	names := []string{}
	for _, p := range low {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"scarce", "edge"}, names)

	out, err := env.catalog.StockReport(ctx, repository.StockOut)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "gone", out[0].Name)

	all, err := env.catalog.StockReport(ctx, repository.StockAll)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestDeleteProduct_RefusedWhileReferenced(t *testing.T) {
	env := newTestEnv(t)
	product, customer := env.seedCatalog(t, 10, "100.00")
	order := env.newOrder(t, customer.ID)
	ctx := context.Background()

	_, err := env.alloc.AddItem(ctx, order.ID, product.ID, 1)
	require.NoError(t, err)

	err = env.catalog.DeleteProduct(ctx, product.ID)
	assert.ErrorIs(t, err, domain.ErrProductReferenced)

	// still present
	stored, err := env.store.FindProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}
