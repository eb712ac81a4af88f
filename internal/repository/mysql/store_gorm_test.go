package mysql

import (
	"context"
	"errors"
	"testing"

	"order-management/internal/domain"
	"order-management/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) repository.Store {
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

	return NewStore(db)
}

func seedOrderAndProduct(t *testing.T, store repository.Store) (*domain.Order, *domain.Product) {
	t.Helper()
	ctx := context.Background()

	category := &domain.Category{Name: "Shelf"}
	require.NoError(t, store.CreateCategory(ctx, category))

	customer := &domain.Customer{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, store.CreateCustomer(ctx, customer))

	product := &domain.Product{
		Name:       "Widget",
		Quantity:   10,
		Price:      decimal.RequireFromString("10.00"),
		Active:     true,
		CategoryID: category.ID,
	}
	require.NoError(t, store.CreateProduct(ctx, product))

	order := &domain.Order{CustomerID: customer.ID, Status: domain.StatusPending, Total: decimal.Zero}
	require.NoError(t, store.CreateOrder(ctx, order))

	return order, product
}

func TestStore_FindersReturnNilOnMissingRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	order, err := store.FindOrder(ctx, 404)
	assert.NoError(t, err)
	assert.Nil(t, order)

	product, err := store.FindProductForUpdate(ctx, 404)
	assert.NoError(t, err)
	assert.Nil(t, product)

	item, err := store.FindOrderItem(ctx, 404, 404)
	assert.NoError(t, err)
	assert.Nil(t, item)

	category, err := store.FindCategory(ctx, 404)
	assert.NoError(t, err)
	assert.Nil(t, category)
}

func TestStore_UniqueOrderProductConstraint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	order, product := seedOrderAndProduct(t, store)

	first := &domain.OrderItem{
		OrderID: order.ID, ProductID: product.ID,
		Quantity: 1, UnitPrice: product.Price,
	}
	require.NoError(t, store.CreateOrderItem(ctx, first))

	duplicate := &domain.OrderItem{
		OrderID: order.ID, ProductID: product.ID,
		Quantity: 2, UnitPrice: product.Price,
	}
	assert.Error(t, store.CreateOrderItem(ctx, duplicate))
}

func TestStore_InTxRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	order, product := seedOrderAndProduct(t, store)

	sentinel := errors.New("abort")
	err := store.InTx(ctx, func(tx repository.Store) error {
		item := &domain.OrderItem{
			OrderID: order.ID, ProductID: product.ID,
			Quantity: 1, UnitPrice: product.Price,
		}
		if err := tx.CreateOrderItem(ctx, item); err != nil {
			return err
		}
		if err := tx.UpdateProductQuantity(ctx, product.ID, 9); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	items, err := store.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	stored, err := store.FindProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored.Quantity)
}

func TestStore_UpdateOrderTotalRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	order, _ := seedOrderAndProduct(t, store)

	total := decimal.RequireFromString("123.45")
	require.NoError(t, store.UpdateOrderTotal(ctx, order.ID, total))

	stored, err := store.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(total), "got %s", stored.Total)
}

func TestStore_DeleteProduct(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	order, product := seedOrderAndProduct(t, store)

	item := &domain.OrderItem{
		OrderID: order.ID, ProductID: product.ID,
		Quantity: 1, UnitPrice: product.Price,
	}
	require.NoError(t, store.CreateOrderItem(ctx, item))

	assert.ErrorIs(t, store.DeleteProduct(ctx, product.ID), domain.ErrProductReferenced)

	assert.ErrorIs(t, store.DeleteProduct(ctx, 404), domain.ErrProductNotFound)
}

func TestStore_ListProductsByStock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	category := &domain.Category{Name: "Shelf"}
	require.NoError(t, store.CreateCategory(ctx, category))

	quantities := map[string]int64{"gone": 0, "scarce": 3, "plenty": 100}
	for name, qty := range quantities {
		require.NoError(t, store.CreateProduct(ctx, &domain.Product{
			Name: name, Quantity: qty, Price: decimal.RequireFromString("1.00"),
			Active: true, CategoryID: category.ID,
		}))
	}

	low, err := store.ListProductsByStock(ctx, repository.StockLow)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "scarce", low[0].Name)

	out, err := store.ListProductsByStock(ctx, repository.StockOut)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "gone", out[0].Name)

	all, err := store.ListProductsByStock(ctx, repository.StockAll)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
