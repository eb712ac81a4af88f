package repository

import (
	"context"

	"order-management/internal/domain"

	"github.com/shopspring/decimal"
)

type StockFilter int

const (
	StockAll StockFilter = iota
	StockLow
	StockOut
)

// Store is the unit-of-work boundary over the relational store. Finder
// methods return (nil, nil) when the row does not exist; services translate
// that into their own not-found errors.
//
// InTx runs fn against a Store bound to a single transaction and commits on
// nil, rolls back on error. The ...ForUpdate finders take exclusive row locks
// valid for the life of that transaction. Lock order is fixed everywhere:
// order row first, then product row.
type Store interface {
	InTx(ctx context.Context, fn func(tx Store) error) error

	CreateOrder(ctx context.Context, order *domain.Order) error
	FindOrder(ctx context.Context, id uint64) (*domain.Order, error)
	FindOrderWithItems(ctx context.Context, id uint64) (*domain.Order, error)
	FindOrderForUpdate(ctx context.Context, id uint64) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uint64, status domain.OrderStatus) error
	UpdateOrderTotal(ctx context.Context, id uint64, total decimal.Decimal) error

	FindOrderItem(ctx context.Context, orderID, productID uint64) (*domain.OrderItem, error)
	ListOrderItems(ctx context.Context, orderID uint64) ([]domain.OrderItem, error)
	CreateOrderItem(ctx context.Context, item *domain.OrderItem) error
	UpdateOrderItemQuantity(ctx context.Context, id uint64, quantity int64) error

	CreateProduct(ctx context.Context, product *domain.Product) error
	FindProduct(ctx context.Context, id uint64) (*domain.Product, error)
	FindProductForUpdate(ctx context.Context, id uint64) (*domain.Product, error)
	UpdateProductQuantity(ctx context.Context, id uint64, quantity int64) error
	DeleteProduct(ctx context.Context, id uint64) error
	ListProductsByStock(ctx context.Context, filter StockFilter) ([]domain.Product, error)

	CreateCategory(ctx context.Context, category *domain.Category) error
	FindCategory(ctx context.Context, id uint64) (*domain.Category, error)
	UpdateCategoryParent(ctx context.Context, id uint64, parentID *uint64) error

	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	FindCustomer(ctx context.Context, id uint64) (*domain.Customer, error)
}
